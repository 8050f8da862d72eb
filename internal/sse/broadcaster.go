// Package sse fans game events out to connected clients as Server-Sent
// Events. Sends never block game logic: a slow client drops events.
package sse

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// ClientBufferSize is the per-client event buffer
const ClientBufferSize = 10

// Event is one outbound SSE frame
type Event struct {
	Name string
	Data string // JSON payload
}

// Broadcaster tracks subscribed clients per game
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[string]map[chan Event]string // game id -> channel -> player id
	log     *zap.Logger
}

// NewBroadcaster creates an empty broadcaster
func NewBroadcaster(log *zap.Logger) *Broadcaster {
	if log == nil {
		log = zap.NewNop()
	}
	return &Broadcaster{
		clients: make(map[string]map[chan Event]string),
		log:     log,
	}
}

// Subscribe registers a client channel for one game's events
func (b *Broadcaster) Subscribe(gameID, playerID string) chan Event {
	ch := make(chan Event, ClientBufferSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clients[gameID] == nil {
		b.clients[gameID] = make(map[chan Event]string)
	}
	b.clients[gameID][ch] = playerID
	return ch
}

// Unsubscribe removes a client channel
func (b *Broadcaster) Unsubscribe(gameID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if chans, ok := b.clients[gameID]; ok {
		delete(chans, ch)
		if len(chans) == 0 {
			delete(b.clients, gameID)
		}
	}
}

// Publish marshals payload and delivers the event to every client of the
// game. Implements the game service's Notifier. Never blocks.
func (b *Broadcaster) Publish(gameID, event string, payload any) {
	data := []byte("{}")
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			b.log.Error("event marshal failed", zap.String("event", event), zap.Error(err))
			return
		}
	}

	b.mu.RLock()
	chans := make([]chan Event, 0, len(b.clients[gameID]))
	for ch := range b.clients[gameID] {
		chans = append(chans, ch)
	}
	b.mu.RUnlock()

	ev := Event{Name: event, Data: string(data)}
	for _, ch := range chans {
		select {
		case ch <- ev:
		default:
			// client buffer full, drop rather than stall the game
		}
	}
}
