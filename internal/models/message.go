package models

import "time"

// SystemAuthor is the label snapshotted onto narration messages
const SystemAuthor = "SYSTEM"

// Message is an append-only chat record. Once written it is never mutated.
type Message struct {
	ID       string
	GameID   string
	PlayerID string // empty for system narration
	Shape    string // author's public label at send time; labels rotate
	Text     string
	SentAt   time.Time
	IsAI     bool
}

// System reports whether the message is game narration rather than chat
func (m *Message) System() bool {
	return m.Shape == SystemAuthor
}
