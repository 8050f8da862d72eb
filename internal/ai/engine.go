package ai

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"shapechat/internal/config"
	"shapechat/internal/game"
)

// GameHost is the serialized game surface the engine drives. The game
// service implements it; the engine never touches game state directly.
type GameHost interface {
	BeginAITurn(gameID string) (*game.TurnContext, bool)
	CommitAIMessage(gameID, text string) bool
	AbortAITurn(gameID string)
	BeginAIVote(gameID string) (*game.VoteContext, bool)
	CastVote(gameID, voterID, targetID string) error
}

// generateTimeout bounds the outbound call; a slow model is treated the
// same as a model that chose silence
const generateTimeout = 15 * time.Second

// Engine decides whether and what the AI says, and delegates voting to the
// strategist. All failure paths are silent toward players.
type Engine struct {
	host       GameHost
	gen        Generator
	policy     *config.Policy
	strategist *Strategist
	log        *zap.Logger

	// injectable for deterministic tests
	randFloat func() float64
	sleep     func(time.Duration)
}

// NewEngine creates the decision engine
func NewEngine(host GameHost, gen Generator, policy *config.Policy, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		host:       host,
		gen:        gen,
		policy:     policy,
		strategist: NewStrategist(policy),
		log:        log,
		randFloat:  rand.Float64,
		sleep:      time.Sleep,
	}
}

// TakeTurn evaluates one speaking opportunity. Any abort leaves the game
// untouched; the AI simply does not speak this turn.
func (e *Engine) TakeTurn(gameID string) {
	tc, ok := e.host.BeginAITurn(gameID)
	if !ok {
		return
	}
	committed := false
	defer func() {
		// Failure paths must never leave the reentrancy guard stuck.
		if !committed {
			e.host.AbortAITurn(gameID)
		}
	}()

	speakChance := e.policy.SpeakChance
	if tc.Signals.AIAccused {
		speakChance = e.policy.AccusedSpeakChance
	}
	if e.randFloat() >= speakChance {
		e.log.Debug("ai stays silent", zap.String("gameID", gameID))
		return
	}

	system := buildSystemPrompt(tc)
	user := buildUserPrompt(tc)

	// Variable delay to feel human. The discussion deadline does not wait
	// for us; a response landing after it is discarded at commit time.
	e.sleep(e.thinkingJitter())

	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()
	raw, err := e.gen.Generate(ctx, system, user)
	if err != nil {
		e.log.Warn("generation failed", zap.String("gameID", gameID), zap.Error(err))
		return
	}

	text, err := FilterMessage(raw, tc, e.policy)
	if err != nil {
		e.log.Debug("ai output rejected",
			zap.String("gameID", gameID),
			zap.String("reason", err.Error()))
		return
	}

	committed = e.host.CommitAIMessage(gameID, text)
}

// VoteNow casts the AI's ballot for the current round, if one is due
func (e *Engine) VoteNow(gameID string) {
	vc, ok := e.host.BeginAIVote(gameID)
	if !ok {
		return
	}
	targetID := e.strategist.Pick(vc)
	if targetID == "" {
		return
	}
	if err := e.host.CastVote(vc.GameID, vc.AIPlayerID, targetID); err != nil {
		e.log.Warn("ai vote failed", zap.String("gameID", gameID), zap.Error(err))
	}
}

func (e *Engine) thinkingJitter() time.Duration {
	min, max := e.policy.TurnJitterMinMs, e.policy.TurnJitterMaxMs
	if max <= min {
		return time.Duration(min) * time.Millisecond
	}
	return time.Duration(min) * time.Millisecond +
		time.Duration(e.randFloat()*float64(max-min))*time.Millisecond
}

var _ game.AIPlayer = (*Engine)(nil)
