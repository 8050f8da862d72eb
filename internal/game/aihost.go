package game

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shapechat/internal/models"
)

// TurnContext is the snapshot handed to the decision engine for one
// speaking opportunity. It is assembled under the game lock; the engine
// works on it without holding anything.
type TurnContext struct {
	GameID       string
	AIShape      string
	ActiveShapes []string
	Lines        []ChatLine // recent window, oldest first
	MyRecent     []string   // AI's own last few texts, lowercased
	Signals      Signals
	EarlyGame    bool
	ImageHint    string
	TimeLeft     time.Duration
}

// Candidate is one possible vote target
type Candidate struct {
	ID    string
	Shape string
}

// VoteContext is the snapshot handed to the vote strategist
type VoteContext struct {
	GameID     string
	AIPlayerID string
	AIShape    string
	Humans     []Candidate // active humans only
	MobShape   string      // clear chat favorite, if any
	AccuserID  string      // a human who named the AI's label, if any
}

// aiPlayer returns the game's live AI seat
func (s *Service) aiPlayer(gameID string) (*models.Player, bool) {
	for _, p := range s.store.PlayersByGame(gameID) {
		if p.IsAI && p.Active() {
			return p, true
		}
	}
	return nil, false
}

// BeginAITurn validates that the AI may consider speaking, flips the
// reentrancy guard, and snapshots everything the engine needs. Returns
// false when the turn must be skipped. Every true return must be paired
// with CommitAIMessage or AbortAITurn.
func (s *Service) BeginAITurn(gameID string) (*TurnContext, bool) {
	lock := s.lockGame(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, ok := s.store.GetGame(gameID)
	if !ok || g.Phase != models.PhaseDiscussion {
		return nil, false
	}
	if g.AIProcessing {
		return nil, false // a turn is already in flight
	}
	ai, ok := s.aiPlayer(gameID)
	if !ok {
		return nil, false
	}
	timeLeft := time.Until(g.Deadline())
	if timeLeft < time.Duration(s.policy.MinTurnSecondsLeft)*time.Second {
		return nil, false
	}

	msgs := s.store.MessagesByGame(gameID)
	lines := recentLines(msgs, s.policy.RecentWindow)

	// Never two AI messages without an intervening human one.
	active := s.activeShapes(gameID)
	sig := Analyze(lines, active, ai.Shape)
	if sig.LastSpeakerIsAI {
		return nil, false
	}

	roundMsgs := 0
	for _, m := range msgs {
		if !m.System() && m.SentAt.After(g.PhaseStart) {
			roundMsgs++
		}
	}
	elapsed := time.Since(g.PhaseStart)
	early := roundMsgs < s.policy.EarlyGameMessages ||
		elapsed < time.Duration(s.policy.EarlyGameSeconds)*time.Second

	myRecent := make([]string, 0, s.policy.RepeatWindow)
	for i := len(msgs) - 1; i >= 0 && len(myRecent) < s.policy.RepeatWindow; i-- {
		if msgs[i].IsAI {
			myRecent = append(myRecent, msgs[i].Text)
		}
	}

	s.store.PatchGame(gameID, func(gm *models.Game) { gm.AIProcessing = true })

	return &TurnContext{
		GameID:       gameID,
		AIShape:      ai.Shape,
		ActiveShapes: active,
		Lines:        lines,
		MyRecent:     myRecent,
		Signals:      sig,
		EarlyGame:    early,
		ImageHint:    s.policy.HintFor(g.Image),
		TimeLeft:     timeLeft,
	}, true
}

// CommitAIMessage posts filtered AI output as chat and clears the guard.
// A response arriving after the discussion deadline is discarded.
func (s *Service) CommitAIMessage(gameID, text string) bool {
	lock := s.lockGame(gameID)
	lock.Lock()
	defer lock.Unlock()

	defer s.clearGuard(gameID)

	g, ok := s.store.GetGame(gameID)
	if !ok || g.Phase != models.PhaseDiscussion {
		return false // phase moved on while generating
	}
	ai, ok := s.aiPlayer(gameID)
	if !ok {
		return false
	}

	now := time.Now()
	m := &models.Message{
		ID:       uuid.New().String(),
		GameID:   gameID,
		PlayerID: ai.ID,
		Shape:    ai.Shape,
		Text:     text,
		SentAt:   now,
		IsAI:     true,
	}
	s.store.AppendMessage(m)
	s.store.PatchPlayer(ai.ID, func(p *models.Player) { p.LastMsgAt = now })
	s.publish(gameID, EventMessage, msgView(m))
	s.log.Debug("ai spoke", zap.String("gameID", gameID), zap.Int("len", len(text)))
	return true
}

// AbortAITurn clears the reentrancy guard without posting. Safe to call on
// any failure path, including games that no longer exist.
func (s *Service) AbortAITurn(gameID string) {
	lock := s.lockGame(gameID)
	lock.Lock()
	defer lock.Unlock()
	s.clearGuard(gameID)
}

func (s *Service) clearGuard(gameID string) {
	s.store.PatchGame(gameID, func(gm *models.Game) { gm.AIProcessing = false })
}

// BeginAIVote snapshots what the strategist needs, or reports that no AI
// vote is due. The mob signal comes from the recent window; accusers are
// scanned over the whole game, matching how players remember grudges.
func (s *Service) BeginAIVote(gameID string) (*VoteContext, bool) {
	lock := s.lockGame(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, ok := s.store.GetGame(gameID)
	if !ok || g.Phase != models.PhaseVoting {
		return nil, false
	}
	ai, ok := s.aiPlayer(gameID)
	if !ok || ai.HasVoted {
		return nil, false
	}

	humans := make([]Candidate, 0, 8)
	byShape := make(map[string]string)
	for _, p := range s.activePlayers(gameID) {
		if p.IsAI {
			continue
		}
		humans = append(humans, Candidate{ID: p.ID, Shape: p.Shape})
		byShape[p.Shape] = p.ID
	}
	if len(humans) == 0 {
		return nil, false
	}

	msgs := s.store.MessagesByGame(gameID)
	active := s.activeShapes(gameID)
	recent := Analyze(recentLines(msgs, s.policy.RecentWindow), active, ai.Shape)
	full := Analyze(recentLines(msgs, len(msgs)), active, ai.Shape)

	accuserID := ""
	for _, shape := range full.AIAccusers {
		if id, ok := byShape[shape]; ok {
			accuserID = id
			break
		}
	}

	return &VoteContext{
		GameID:     gameID,
		AIPlayerID: ai.ID,
		AIShape:    ai.Shape,
		Humans:     humans,
		MobShape:   recent.MobTarget(),
		AccuserID:  accuserID,
	}, true
}

// recentLines converts the tail of the message log into signal input
func recentLines(msgs []*models.Message, window int) []ChatLine {
	if window > len(msgs) {
		window = len(msgs)
	}
	lines := make([]ChatLine, 0, window)
	for _, m := range msgs[len(msgs)-window:] {
		lines = append(lines, ChatLine{
			Shape:  m.Shape,
			Text:   m.Text,
			IsAI:   m.IsAI,
			System: m.System(),
		})
	}
	return lines
}
