package ai

import (
	"math/rand"

	"shapechat/internal/config"
	"shapechat/internal/game"
)

// Strategist picks the AI's vote target. Priority order: join a clear mob
// favorite, retaliate against an accuser, otherwise chaos. Each branch is
// gated by a named probability so the AI stays non-deterministic.
type Strategist struct {
	policy *config.Policy

	randFloat func() float64
	randIntn  func(int) int
}

// NewStrategist creates a strategist with real randomness
func NewStrategist(policy *config.Policy) *Strategist {
	return &Strategist{
		policy:    policy,
		randFloat: rand.Float64,
		randIntn:  rand.Intn,
	}
}

// Pick returns the target player id, or empty for no vote. The candidates
// exclude the AI itself, so it can never self-vote.
func (st *Strategist) Pick(vc *game.VoteContext) string {
	if len(vc.Humans) == 0 {
		return ""
	}

	// 1. Blend in: join the mob when chat shows a clear favorite.
	if vc.MobShape != "" && vc.MobShape != vc.AIShape && st.randFloat() < st.policy.MobJoinChance {
		for _, c := range vc.Humans {
			if c.Shape == vc.MobShape {
				return c.ID
			}
		}
	}

	// 2. Revenge: someone named our label.
	if vc.AccuserID != "" && st.randFloat() < st.policy.RetaliateChance {
		return vc.AccuserID
	}

	// 3. Chaos.
	return vc.Humans[st.randIntn(len(vc.Humans))].ID
}
