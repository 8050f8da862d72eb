package game

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"shapechat/internal/models"
)

// beginDiscussion enters the next round, or ends the game if a win
// condition is already met. Lock must be held. The win check runs before
// anything is scheduled.
func (s *Service) beginDiscussion(gameID string) {
	if winner := s.evaluateWin(gameID); winner != models.WinnerNone {
		s.endGame(gameID, winner)
		return
	}

	g, ok := s.store.GetGame(gameID)
	if !ok || !g.Phase.CanTransitionTo(models.PhaseDiscussion) {
		return
	}

	active := s.activePlayers(gameID)
	round := g.Round + 1
	duration := s.policy.RoundDuration(len(active))
	image := s.policy.Images[rand.Intn(len(s.policy.Images))]
	now := time.Now()

	s.store.PatchGame(gameID, func(gm *models.Game) {
		gm.Phase = models.PhaseDiscussion
		gm.Round = round
		gm.PhaseStart = now
		gm.RoundDuration = duration
		gm.Image = image
		gm.AIProcessing = false
	})
	for _, p := range active {
		s.store.PatchPlayer(p.ID, func(pl *models.Player) { pl.HasVoted = false })
	}

	s.systemMessage(gameID, fmt.Sprintf("Round %d started. Discuss the image.", round))
	s.publish(gameID, EventPhase, models.PhaseDiscussion)
	s.log.Info("discussion started",
		zap.String("gameID", gameID),
		zap.Int("round", round),
		zap.Duration("duration", duration),
		zap.Int("active", len(active)))

	// Exactly one deadline per round. The callback carries the round number
	// so a stale delivery is a provable no-op.
	s.sched.At(now.Add(duration), func() { s.onDeadline(gameID, round) })

	s.scheduleAITurn(gameID, time.Duration(s.policy.FirstTurnDelaySec)*time.Second)
}

// onDeadline moves discussion to voting. Fired by the scheduler; tolerates
// duplicate or late delivery by re-validating phase and round first.
func (s *Service) onDeadline(gameID string, round int) {
	lock := s.lockGame(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, ok := s.store.GetGame(gameID)
	if !ok {
		return // game torn down since scheduling
	}
	if g.Phase != models.PhaseDiscussion || g.Round != round {
		return // stale callback
	}

	s.store.PatchGame(gameID, func(gm *models.Game) {
		gm.Phase = models.PhaseVoting
	})
	s.systemMessage(gameID, "Time is up. Vote for the imposter.")
	s.publish(gameID, EventPhase, models.PhaseVoting)
	s.log.Info("voting started", zap.String("gameID", gameID), zap.Int("round", round))

	if s.ai != nil {
		delay := s.jitter(s.policy.VoteDelayMinMs, s.policy.VoteDelayMaxMs)
		s.sched.After(delay, func() { s.ai.VoteNow(gameID) })
	} else if ai, ok := s.aiPlayer(gameID); ok {
		// No engine wired: the impostor seat abstains so the round can
		// still resolve once the humans have voted.
		aiID := ai.ID
		s.sched.After(0, func() { s.CastVote(gameID, aiID, "") })
	}
}

// endGame moves a game to its terminal phase. Lock must be held.
func (s *Service) endGame(gameID string, winner models.Winner) {
	g, ok := s.store.GetGame(gameID)
	if !ok || g.Phase == models.PhaseEnded {
		return
	}
	s.store.PatchGame(gameID, func(gm *models.Game) {
		gm.Phase = models.PhaseEnded
		gm.Winner = winner
	})

	switch winner {
	case models.WinnerHumans:
		s.systemMessage(gameID, "The imposter was eliminated. Humans win!")
	case models.WinnerAI:
		s.systemMessage(gameID, "Too few humans remain. The imposter wins!")
	}
	s.publish(gameID, EventGameOver, winner)
	s.log.Info("game ended",
		zap.String("gameID", gameID),
		zap.String("winner", string(winner)))
}

// evaluateWin checks the win conditions against current active players
func (s *Service) evaluateWin(gameID string) models.Winner {
	aiAlive := false
	humansAlive := 0
	for _, p := range s.activePlayers(gameID) {
		if p.IsAI {
			aiAlive = true
		} else {
			humansAlive++
		}
	}
	if !aiAlive {
		return models.WinnerHumans
	}
	if humansAlive <= 1 {
		return models.WinnerAI
	}
	return models.WinnerNone
}

// scheduleAITurn queues one AI speaking opportunity after delay. Lock must
// be held by the caller; the fired callback re-validates everything itself.
func (s *Service) scheduleAITurn(gameID string, delay time.Duration) {
	if s.ai == nil {
		return
	}
	s.sched.After(delay, func() { s.ai.TakeTurn(gameID) })
}

// readingDelay approximates how long a human would take to read text before
// replying
func (s *Service) readingDelay(text string) time.Duration {
	perChar := time.Duration(s.policy.ReadDelayPerCharMs) * time.Millisecond
	return s.jitter(s.policy.TurnJitterMinMs, s.policy.TurnJitterMaxMs) + time.Duration(len(text))*perChar
}

func (s *Service) jitter(minMs, maxMs int) time.Duration {
	if maxMs <= minMs {
		return time.Duration(minMs) * time.Millisecond
	}
	return time.Duration(minMs+rand.Intn(maxMs-minMs)) * time.Millisecond
}
