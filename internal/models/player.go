package models

import "time"

// Player represents one participant in a game, including the synthetic AI seat
type Player struct {
	ID         string
	GameID     string
	RealName   string // true identity, hidden from others during play
	Shape      string // rotating public label, reassigned at round boundaries
	IsAI       bool   // immutable after game start
	Eliminated bool   // monotonic false -> true
	HasVoted   bool   // reset every round
	LastMsgAt  time.Time
	JoinedAt   time.Time
}

// Active reports whether the player still participates in the round
func (p *Player) Active() bool {
	return !p.Eliminated
}
