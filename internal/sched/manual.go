package sched

import (
	"sync"
	"time"
)

// Task is one pending callback recorded by the Manual scheduler
type Task struct {
	Delay time.Duration
	Fn    func()
}

// Manual is a Scheduler for tests: callbacks are recorded, never fired on
// their own. Tests pop and run them to drive time forward deterministically,
// including firing the same task twice to simulate duplicate delivery.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	tasks []Task
}

// NewManual creates a manual scheduler anchored at now
func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

// After records fn without running it
func (m *Manual) After(d time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, Task{Delay: d, Fn: fn})
}

// At records fn relative to the anchor time
func (m *Manual) At(t time.Time, fn func()) {
	m.mu.Lock()
	d := t.Sub(m.now)
	m.mu.Unlock()
	m.After(d, fn)
}

// Pending returns the number of recorded tasks
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Pop removes and returns the oldest recorded task
func (m *Manual) Pop() (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tasks) == 0 {
		return Task{}, false
	}
	t := m.tasks[0]
	m.tasks = m.tasks[1:]
	return t, true
}

// RunAll pops and runs every currently recorded task, including tasks those
// callbacks schedule in turn, up to a fixed depth to avoid loops
func (m *Manual) RunAll() {
	for i := 0; i < 1000; i++ {
		t, ok := m.Pop()
		if !ok {
			return
		}
		t.Fn()
	}
}

var _ Scheduler = (*Manual)(nil)
