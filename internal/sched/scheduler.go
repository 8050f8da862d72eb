// Package sched provides the fire-and-forget timer primitive driving phase
// transitions and AI turns. Delivery is at-least-once: every callback must
// re-check game state before acting.
package sched

import "time"

// Scheduler fires a callback at or after a given time
type Scheduler interface {
	After(d time.Duration, fn func())
	At(t time.Time, fn func())
}

// Timers is the production Scheduler backed by the runtime timer heap
type Timers struct{}

// NewTimers creates the production scheduler
func NewTimers() *Timers {
	return &Timers{}
}

// After runs fn in its own goroutine once d has elapsed
func (*Timers) After(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	time.AfterFunc(d, fn)
}

// At runs fn once the wall clock reaches t
func (s *Timers) At(t time.Time, fn func()) {
	s.After(time.Until(t), fn)
}
