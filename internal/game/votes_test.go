package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shapechat/internal/models"
	"shapechat/internal/sched"
	"shapechat/internal/store"
)

// toVoting drives the pending round deadline so the game enters voting
func toVoting(t *testing.T, st *store.Memory, sc *sched.Manual, gameID string) {
	t.Helper()
	task, ok := sc.Pop()
	require.True(t, ok, "no deadline scheduled")
	task.Fn()
	g, ok := st.GetGame(gameID)
	require.True(t, ok)
	require.Equal(t, models.PhaseVoting, g.Phase)
}

func TestDeadline(t *testing.T) {
	t.Run("moves discussion to voting", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, _ := startedGame(t, s, st, 3)
		toVoting(t, st, sc, g.ID)

		msgs := systemMessages(st, g.ID)
		assert.Equal(t, 1, countContaining(msgs, "Time is up"))
	})

	t.Run("duplicate delivery is a no-op", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, _ := startedGame(t, s, st, 3)
		task, ok := sc.Pop()
		require.True(t, ok)
		task.Fn()
		task.Fn() // fired again

		g2, _ := st.GetGame(g.ID)
		assert.Equal(t, models.PhaseVoting, g2.Phase)
		assert.Equal(t, 1, g2.Round)
		msgs := systemMessages(st, g.ID)
		assert.Equal(t, 1, countContaining(msgs, "Time is up"))
	})

	t.Run("stale callback from a finished round is ignored", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 3)
		stale, ok := sc.Pop()
		require.True(t, ok)
		stale.Fn() // round 1 -> voting

		// Everyone abstains so round 2 starts.
		for _, p := range players {
			require.NoError(t, s.CastVote(g.ID, p.ID, ""))
		}
		g2, _ := st.GetGame(g.ID)
		require.Equal(t, models.PhaseDiscussion, g2.Phase)
		require.Equal(t, 2, g2.Round)

		stale.Fn() // round 1 deadline again, long dead
		g3, _ := st.GetGame(g.ID)
		assert.Equal(t, models.PhaseDiscussion, g3.Phase)
		assert.Equal(t, 2, g3.Round)
	})

	t.Run("an unwired impostor seat abstains automatically", func(t *testing.T) {
		s, st, sc := newTestService(t) // no engine set
		g, players := startedGame(t, s, st, 3)
		toVoting(t, st, sc, g.ID)

		// The deadline queued the seat's abstain; run it.
		task, ok := sc.Pop()
		require.True(t, ok)
		task.Fn()

		votes := st.VotesByRound(g.ID, 1)
		require.Len(t, votes, 1)
		assert.True(t, votes[0].Abstain())
		ai := findAI(t, players)
		p, _ := st.GetPlayer(ai.ID)
		assert.True(t, p.HasVoted)
	})

	t.Run("deadline after teardown is ignored", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, _ := startedGame(t, s, st, 3)
		task, ok := sc.Pop()
		require.True(t, ok)
		st.DeleteGame(g.ID)
		assert.NotPanics(t, func() { task.Fn() })
	})
}

func TestCastVote(t *testing.T) {
	t.Run("resolution waits for every active ballot", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 3) // 4 seats
		toVoting(t, st, sc, g.ID)

		for _, p := range players[:3] {
			require.NoError(t, s.CastVote(g.ID, p.ID, ""))
		}
		g2, _ := st.GetGame(g.ID)
		assert.Equal(t, models.PhaseVoting, g2.Phase, "three of four ballots must not resolve")

		require.NoError(t, s.CastVote(g.ID, players[3].ID, ""))
		g3, _ := st.GetGame(g.ID)
		assert.Equal(t, models.PhaseDiscussion, g3.Phase)
		assert.Equal(t, 2, g3.Round)
	})

	t.Run("strict majority target is eliminated", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 3)
		toVoting(t, st, sc, g.ID)

		victim := players[1]
		for _, p := range players {
			target := victim.ID
			if p.ID == victim.ID {
				target = players[0].ID
			}
			require.NoError(t, s.CastVote(g.ID, p.ID, target))
		}

		v, _ := st.GetPlayer(victim.ID)
		assert.True(t, v.Eliminated)
		msgs := systemMessages(st, g.ID)
		assert.Equal(t, 1, countContaining(msgs, victim.Shape+" was eliminated"))

		g2, _ := st.GetGame(g.ID)
		assert.Equal(t, models.PhaseDiscussion, g2.Phase)
		assert.Equal(t, 2, g2.Round)
	})

	t.Run("a 2-2 tie with one abstention eliminates nobody", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 4) // 5 seats
		toVoting(t, st, sc, g.ID)

		require.NoError(t, s.CastVote(g.ID, players[0].ID, players[1].ID))
		require.NoError(t, s.CastVote(g.ID, players[2].ID, players[1].ID))
		require.NoError(t, s.CastVote(g.ID, players[1].ID, players[0].ID))
		require.NoError(t, s.CastVote(g.ID, players[3].ID, players[0].ID))
		require.NoError(t, s.CastVote(g.ID, players[4].ID, ""))

		for _, p := range st.PlayersByGame(g.ID) {
			assert.False(t, p.Eliminated)
		}
		msgs := systemMessages(st, g.ID)
		assert.Equal(t, 1, countContaining(msgs, "The vote was tied"))
	})

	t.Run("double vote is a silent no-op", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 4)
		toVoting(t, st, sc, g.ID)

		require.NoError(t, s.CastVote(g.ID, players[0].ID, players[1].ID))
		require.NoError(t, s.CastVote(g.ID, players[0].ID, players[2].ID))
		assert.Len(t, st.VotesByRound(g.ID, 1), 1)
	})

	t.Run("voting outside the voting phase records nothing", func(t *testing.T) {
		s, st, _ := newTestService(t)
		g, players := startedGame(t, s, st, 3)
		require.NoError(t, s.CastVote(g.ID, players[0].ID, players[1].ID))
		assert.Empty(t, st.VotesByRound(g.ID, 1))
	})

	t.Run("dead or unknown target degrades to abstain", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 4)
		toVoting(t, st, sc, g.ID)

		st.PatchPlayer(players[1].ID, func(p *models.Player) { p.Eliminated = true })
		require.NoError(t, s.CastVote(g.ID, players[0].ID, players[1].ID))
		require.NoError(t, s.CastVote(g.ID, players[2].ID, "no-such-player"))

		votes := st.VotesByRound(g.ID, 1)
		require.Len(t, votes, 2)
		for _, v := range votes {
			assert.True(t, v.Abstain())
		}
	})

	t.Run("votes from a previous round never leak forward", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 3)
		toVoting(t, st, sc, g.ID)
		for _, p := range players {
			require.NoError(t, s.CastVote(g.ID, p.ID, ""))
		}
		g2, _ := st.GetGame(g.ID)
		require.Equal(t, 2, g2.Round)

		assert.Len(t, st.VotesByRound(g.ID, 1), 4)
		assert.Empty(t, st.VotesByRound(g.ID, 2))
	})

	t.Run("eliminating the impostor ends the game for the humans", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 3)
		toVoting(t, st, sc, g.ID)

		ai := findAI(t, players)
		for _, p := range players {
			target := ai.ID
			if p.ID == ai.ID {
				target = ""
			}
			require.NoError(t, s.CastVote(g.ID, p.ID, target))
		}

		g2, _ := st.GetGame(g.ID)
		assert.Equal(t, models.PhaseEnded, g2.Phase)
		assert.Equal(t, models.WinnerHumans, g2.Winner)
		msgs := systemMessages(st, g.ID)
		assert.Equal(t, 1, countContaining(msgs, "Humans win"))
	})

	t.Run("eliminating a human down to one ends the game for the impostor", func(t *testing.T) {
		s, st, sc := newTestService(t)
		g, players := startedGame(t, s, st, 3) // 3 humans + ai
		toVoting(t, st, sc, g.ID)

		victim := players[0]
		if victim.IsAI {
			victim = players[1]
		}
		require.NoError(t, s.LeaveGame(g.ID, victim.ID)) // 2 humans left
		remaining := 0
		for _, p := range st.PlayersByGame(g.ID) {
			if p.Active() && !p.IsAI {
				remaining++
			}
		}
		require.Equal(t, 2, remaining)

		// Vote out another human; one human left means the impostor wins.
		var second *models.Player
		for _, p := range st.PlayersByGame(g.ID) {
			if p.Active() && !p.IsAI {
				second = p
				break
			}
		}
		require.NotNil(t, second)
		for _, p := range st.PlayersByGame(g.ID) {
			if !p.Active() {
				continue
			}
			target := second.ID
			if p.ID == second.ID {
				target = ""
			}
			require.NoError(t, s.CastVote(g.ID, p.ID, target))
		}

		g2, _ := st.GetGame(g.ID)
		assert.Equal(t, models.PhaseEnded, g2.Phase)
		assert.Equal(t, models.WinnerAI, g2.Winner)
	})

	t.Run("ended game surfaces an error", func(t *testing.T) {
		s, st, _ := newTestService(t)
		g, players := startedGame(t, s, st, 3)
		lock := s.lockGame(g.ID)
		lock.Lock()
		s.endGame(g.ID, models.WinnerHumans)
		lock.Unlock()

		err := s.CastVote(g.ID, players[0].ID, "")
		assert.ErrorIs(t, err, ErrGameEnded)
	})
}

func TestShapeReshuffle(t *testing.T) {
	s, st, sc := newTestService(t)
	s.policy.SwapChance = 1 // always reshuffle after resolution
	g, players := startedGame(t, s, st, 4)
	toVoting(t, st, sc, g.ID)

	for _, p := range players {
		require.NoError(t, s.CastVote(g.ID, p.ID, ""))
	}

	msgs := systemMessages(st, g.ID)
	assert.Equal(t, 1, countContaining(msgs, "The shapes have been swapped!"))

	// Labels stay a bijection after the shuffle.
	seen := make(map[string]bool)
	for _, p := range st.PlayersByGame(g.ID) {
		require.NotEmpty(t, p.Shape)
		assert.False(t, seen[p.Shape])
		seen[p.Shape] = true
	}
}
