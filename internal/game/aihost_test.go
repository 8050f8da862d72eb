package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapechat/internal/models"
	"shapechat/internal/store"
)

func TestBeginAITurn(t *testing.T) {
	t.Run("snapshots the turn and flips the guard", func(t *testing.T) {
		s, st, _ := newTestService(t)
		g, players := startedGame(t, s, st, 3)
		ai := findAI(t, players)

		tc, ok := s.BeginAITurn(g.ID)
		require.True(t, ok)
		assert.Equal(t, ai.Shape, tc.AIShape)
		assert.Len(t, tc.ActiveShapes, 4)
		assert.True(t, tc.EarlyGame, "a fresh round is early game")
		assert.NotEmpty(t, tc.ImageHint)

		g2, _ := st.GetGame(g.ID)
		assert.True(t, g2.AIProcessing)
	})

	t.Run("refuses while a turn is in flight", func(t *testing.T) {
		s, st, _ := newTestService(t)
		g, _ := startedGame(t, s, st, 3)

		_, ok := s.BeginAITurn(g.ID)
		require.True(t, ok)
		_, ok = s.BeginAITurn(g.ID)
		assert.False(t, ok)

		s.AbortAITurn(g.ID)
		_, ok = s.BeginAITurn(g.ID)
		assert.True(t, ok, "abort must release the guard")
	})

	t.Run("refuses outside discussion", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, _ := startedGame(t, s, st, 3)
		toVoting(t, st, sc, g.ID)
		_, ok := s.BeginAITurn(g.ID)
		assert.False(t, ok)
	})

	t.Run("never speaks twice in a row", func(t *testing.T) {
		s, st, _ := newTestService(t)
		g, _ := startedGame(t, s, st, 3)

		_, ok := s.BeginAITurn(g.ID)
		require.True(t, ok)
		require.True(t, s.CommitAIMessage(g.ID, "hmm lots of red"))

		_, ok = s.BeginAITurn(g.ID)
		assert.False(t, ok, "the last speaker is the impostor")

		// A human reply reopens the turn.
		human := humanPlayer(t, st, g.ID)
		_, err := s.SendMessage(g.ID, human.ID, "yeah agreed")
		require.NoError(t, err)
		_, ok = s.BeginAITurn(g.ID)
		assert.True(t, ok)
	})

	t.Run("refuses when the impostor is eliminated", func(t *testing.T) {
		s, st, _ := newTestService(t)
		g, players := startedGame(t, s, st, 3)
		ai := findAI(t, players)
		st.PatchPlayer(ai.ID, func(p *models.Player) { p.Eliminated = true })
		_, ok := s.BeginAITurn(g.ID)
		assert.False(t, ok)
	})

	t.Run("collects the impostor's recent texts", func(t *testing.T) {
		s, st, _ := newTestService(t)
		g, _ := startedGame(t, s, st, 3)
		human := humanPlayer(t, st, g.ID)

		for _, text := range []string{"one", "two", "three", "four"} {
			_, ok := s.BeginAITurn(g.ID)
			require.True(t, ok)
			require.True(t, s.CommitAIMessage(g.ID, text))
			st.PatchPlayer(human.ID, func(p *models.Player) { p.LastMsgAt = time.Time{} })
			_, err := s.SendMessage(g.ID, human.ID, "ok")
			require.NoError(t, err)
		}

		tc, ok := s.BeginAITurn(g.ID)
		require.True(t, ok)
		require.Len(t, tc.MyRecent, s.policy.RepeatWindow)
		assert.Equal(t, "four", tc.MyRecent[0], "newest first")
		assert.NotContains(t, tc.MyRecent, "one")
	})
}

func TestCommitAIMessage(t *testing.T) {
	t.Run("late responses are discarded after the deadline", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, _ := startedGame(t, s, st, 3)

		_, ok := s.BeginAITurn(g.ID)
		require.True(t, ok)
		toVoting(t, st, sc, g.ID) // deadline fires mid-generation

		before := len(st.MessagesByGame(g.ID))
		assert.False(t, s.CommitAIMessage(g.ID, "too slow"))
		assert.Len(t, st.MessagesByGame(g.ID), before)

		g2, _ := st.GetGame(g.ID)
		assert.False(t, g2.AIProcessing, "discarded commit still clears the guard")
	})

	t.Run("posted messages carry the impostor's current shape", func(t *testing.T) {
		s, st, _ := newTestService(t)
		g, players := startedGame(t, s, st, 3)
		ai := findAI(t, players)

		_, ok := s.BeginAITurn(g.ID)
		require.True(t, ok)
		require.True(t, s.CommitAIMessage(g.ID, "blue corner kinda sus"))

		msgs := st.MessagesByGame(g.ID)
		last := msgs[len(msgs)-1]
		assert.Equal(t, ai.Shape, last.Shape)
		assert.True(t, last.IsAI)
	})
}

func TestBeginAIVote(t *testing.T) {
	t.Run("lists only living humans", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 4)
		toVoting(t, st, sc, g.ID)
		ai := findAI(t, players)

		vc, ok := s.BeginAIVote(g.ID)
		require.True(t, ok)
		assert.Equal(t, ai.ID, vc.AIPlayerID)
		assert.Len(t, vc.Humans, 4)
		for _, c := range vc.Humans {
			assert.NotEqual(t, ai.ID, c.ID)
		}
	})

	t.Run("refuses outside voting or after the ballot is cast", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 3)

		_, ok := s.BeginAIVote(g.ID)
		assert.False(t, ok, "discussion phase")

		toVoting(t, st, sc, g.ID)
		ai := findAI(t, players)
		require.NoError(t, s.CastVote(g.ID, ai.ID, players[0].ID))
		_, ok = s.BeginAIVote(g.ID)
		assert.False(t, ok, "already voted")
	})

	t.Run("surfaces mob favorite and accuser", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 4)
		ai := findAI(t, players)
		h1, h2, h3 := players[0], players[1], players[2]
		if h1.IsAI || h2.IsAI || h3.IsAI {
			t.Fatal("seat order changed")
		}

		appendChat(st, g.ID, h1, "vote "+h2.Shape)
		appendChat(st, g.ID, h3, "vote "+h2.Shape)
		appendChat(st, g.ID, h2, "its "+ai.Shape+" for sure")
		toVoting(t, st, sc, g.ID)

		vc, ok := s.BeginAIVote(g.ID)
		require.True(t, ok)
		assert.Equal(t, h2.Shape, vc.MobShape)
		assert.Equal(t, h2.ID, vc.AccuserID)
	})
}

// humanPlayer returns any living human seat
func humanPlayer(t *testing.T, st *store.Memory, gameID string) *models.Player {
	t.Helper()
	for _, p := range st.PlayersByGame(gameID) {
		if !p.IsAI && p.Active() {
			return p
		}
	}
	t.Fatal("no human seat found")
	return nil
}

// appendChat writes a chat line straight into the store, bypassing the
// cooldown so tests can build a transcript quickly
func appendChat(st *store.Memory, gameID string, p *models.Player, text string) {
	st.AppendMessage(&models.Message{
		ID:       uuid.New().String(),
		GameID:   gameID,
		PlayerID: p.ID,
		Shape:    p.Shape,
		Text:     text,
		SentAt:   time.Now(),
		IsAI:     p.IsAI,
	})
}
