package game

import (
	"math/rand"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shapechat/internal/models"
)

// CastVote records one vote for the current round. Casting while already
// voted, eliminated or outside the voting phase is a silent no-op; only a
// missing game or player surfaces a validation error. The AI votes through
// this same path.
func (s *Service) CastVote(gameID, voterID, targetID string) error {
	lock := s.lockGame(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, ok := s.store.GetGame(gameID)
	if !ok {
		return ErrGameNotFound
	}
	if g.Phase == models.PhaseEnded {
		return ErrGameEnded
	}

	voter, ok := s.store.GetPlayer(voterID)
	if !ok || voter.GameID != gameID {
		return ErrPlayerNotFound
	}

	if g.Phase != models.PhaseVoting || voter.Eliminated || voter.HasVoted {
		return nil // silent no-op, no mutation
	}

	// An unknown or dead target degrades to an abstain rather than failing
	// the cast; the ballot still counts toward completion.
	if targetID != "" {
		target, ok := s.store.GetPlayer(targetID)
		if !ok || target.GameID != gameID || target.Eliminated {
			targetID = ""
		}
	}

	s.store.AddVote(&models.Vote{
		ID:       uuid.New().String(),
		GameID:   gameID,
		Round:    g.Round,
		VoterID:  voterID,
		TargetID: targetID,
	})
	s.store.PatchPlayer(voterID, func(p *models.Player) { p.HasVoted = true })

	cast := len(s.store.VotesByRound(gameID, g.Round))
	total := len(s.activePlayers(gameID))
	s.publish(gameID, EventVoteCount, map[string]int{"cast": cast, "total": total})
	s.log.Debug("vote cast",
		zap.String("gameID", gameID),
		zap.Int("round", g.Round),
		zap.Int("cast", cast),
		zap.Int("total", total))

	s.maybeResolve(gameID, g.Round)
	return nil
}

// maybeResolve triggers resolution once every active player has voted.
// Lock must be held. Resolution runs inside the same critical section as
// the triggering cast, so it fires at most once per round.
func (s *Service) maybeResolve(gameID string, round int) {
	g, ok := s.store.GetGame(gameID)
	if !ok || g.Phase != models.PhaseVoting || g.Round != round {
		return
	}
	if len(s.store.VotesByRound(gameID, round)) < len(s.activePlayers(gameID)) {
		return
	}
	s.resolveRound(gameID, round)
}

// resolveRound tallies the round, applies elimination or declares a tie,
// maybe reshuffles shapes, and loops back into the round-start sequence.
// Lock must be held.
func (s *Service) resolveRound(gameID string, round int) {
	g, ok := s.store.GetGame(gameID)
	if !ok || g.Phase != models.PhaseVoting || g.Round != round {
		return
	}

	// Only votes under the exact current round number count; abstains
	// contribute to no bucket.
	tally := make(map[string]int)
	for _, v := range s.store.VotesByRound(gameID, round) {
		if v.Abstain() {
			continue
		}
		tally[v.TargetID]++
	}

	maxVotes := 0
	var top []string
	for targetID, count := range tally {
		if count > maxVotes {
			maxVotes = count
			top = []string{targetID}
		} else if count == maxVotes {
			top = append(top, targetID)
		}
	}

	switch {
	case len(top) == 1:
		victim, ok := s.store.GetPlayer(top[0])
		if ok {
			s.store.PatchPlayer(victim.ID, func(p *models.Player) { p.Eliminated = true })
			s.systemMessage(gameID, victim.Shape+" was eliminated")
			s.log.Info("player eliminated",
				zap.String("gameID", gameID),
				zap.Int("round", round),
				zap.String("shape", victim.Shape),
				zap.Bool("wasAI", victim.IsAI))
		}
	default:
		s.systemMessage(gameID, "The vote was tied. Nobody was eliminated.")
		s.log.Info("vote tied", zap.String("gameID", gameID), zap.Int("round", round))
	}

	if rand.Float64() < s.policy.SwapChance {
		s.assignShapes(gameID, true)
	}

	s.beginDiscussion(gameID)
}
