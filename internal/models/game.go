package models

import "time"

// Phase represents the current state of a game
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseDiscussion Phase = "discussion"
	PhaseVoting     Phase = "voting"
	PhaseEnded      Phase = "ended"
)

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// CanTransitionTo checks if a transition from the current phase to target is valid
func (p Phase) CanTransitionTo(target Phase) bool {
	validTransitions := map[Phase][]Phase{
		PhaseWaiting:    {PhaseDiscussion},
		PhaseDiscussion: {PhaseVoting, PhaseEnded},
		PhaseVoting:     {PhaseDiscussion, PhaseEnded},
		PhaseEnded:      {},
	}
	for _, allowed := range validTransitions[p] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Winner identifies which side won an ended game
type Winner string

const (
	WinnerNone   Winner = ""
	WinnerHumans Winner = "humans"
	WinnerAI     Winner = "ai"
)

// Game represents one match
type Game struct {
	ID            string
	Code          string // join code
	HostID        string
	Phase         Phase
	Round         int // monotonic, 0 while waiting
	PhaseStart    time.Time
	RoundDuration time.Duration
	Image         string // shared image for the current round, hidden from the AI
	Winner        Winner
	AIProcessing  bool // reentrancy guard: an AI turn is in flight
	CreatedAt     time.Time
}

// Deadline returns when the current discussion phase times out
func (g *Game) Deadline() time.Time {
	return g.PhaseStart.Add(g.RoundDuration)
}
