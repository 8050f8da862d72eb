package game

import (
	"math/rand"

	"shapechat/internal/models"
)

// assignShapes deals a fresh random permutation of the label pool across all
// active players, one label each, no repeats. Announce emits the swap
// narration used mid-game. Lock must be held.
//
// Pool size >= seat count is a configuration invariant checked at load time,
// not a runtime error.
func (s *Service) assignShapes(gameID string, announce bool) {
	active := s.activePlayers(gameID)
	perm := rand.Perm(len(s.policy.Shapes))
	for i, p := range active {
		shape := s.policy.Shapes[perm[i]]
		s.store.PatchPlayer(p.ID, func(pl *models.Player) { pl.Shape = shape })
	}
	if announce {
		// The word "swapped" is load-bearing: chat signal analysis keys on it.
		s.systemMessage(gameID, "The shapes have been swapped!")
		s.publish(gameID, EventPlayers, nil)
	}
}
