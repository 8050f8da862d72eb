package game

import (
	"time"

	"shapechat/internal/models"
)

// ViewMessageLimit bounds the chat window returned to clients
const ViewMessageLimit = 50

// PlayerView is the redacted per-player projection. RealName and IsAI stay
// zero-valued unless the game has ended or the player is the requester;
// storage always holds ground truth and the transform happens here.
type PlayerView struct {
	ID         string `json:"id"`
	Shape      string `json:"shape"`
	Eliminated bool   `json:"eliminated"`
	HasVoted   bool   `json:"hasVoted"`
	IsSelf     bool   `json:"isSelf"`
	RealName   string `json:"realName,omitempty"`
	IsAI       bool   `json:"isAI,omitempty"`
}

// MessageView is one chat line as shown to players
type MessageView struct {
	Shape  string    `json:"shape"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
	System bool      `json:"system"`
	IsAI   bool      `json:"isAI,omitempty"` // revealed only after the game ends
}

// GameView is the player-facing query result
type GameView struct {
	Code        string        `json:"code"`
	Phase       models.Phase  `json:"phase"`
	Round       int           `json:"round"`
	Winner      models.Winner `json:"winner,omitempty"`
	Image       string        `json:"image,omitempty"`
	PhaseEndsAt time.Time     `json:"phaseEndsAt,omitempty"`
	Players     []PlayerView  `json:"players"`
	Messages    []MessageView `json:"messages"` // bounded window, newest first
}

// msgView redacts a message for broadcast while the game is live
func msgView(m *models.Message) MessageView {
	return MessageView{
		Shape:  m.Shape,
		Text:   m.Text,
		SentAt: m.SentAt,
		System: m.System(),
	}
}

// View builds the redacted game state for one requesting player
func (s *Service) View(code, requesterID string) (*GameView, error) {
	g, ok := s.store.GetGameByCode(code)
	if !ok {
		return nil, ErrGameNotFound
	}
	ended := g.Phase == models.PhaseEnded

	view := &GameView{
		Code:   g.Code,
		Phase:  g.Phase,
		Round:  g.Round,
		Winner: g.Winner,
		Image:  g.Image,
	}
	if g.Phase == models.PhaseDiscussion {
		view.PhaseEndsAt = g.Deadline()
	}

	for _, p := range s.store.PlayersByGame(g.ID) {
		pv := PlayerView{
			ID:         p.ID,
			Shape:      p.Shape,
			Eliminated: p.Eliminated,
			HasVoted:   p.HasVoted,
			IsSelf:     p.ID == requesterID,
		}
		if ended || pv.IsSelf {
			pv.RealName = p.RealName
			pv.IsAI = p.IsAI
		}
		view.Players = append(view.Players, pv)
	}

	msgs := s.store.MessagesByGame(g.ID)
	start := 0
	if len(msgs) > ViewMessageLimit {
		start = len(msgs) - ViewMessageLimit
	}
	for i := len(msgs) - 1; i >= start; i-- {
		m := msgs[i]
		mv := MessageView{
			Shape:  m.Shape,
			Text:   m.Text,
			SentAt: m.SentAt,
			System: m.System(),
		}
		if ended {
			mv.IsAI = m.IsAI
		}
		view.Messages = append(view.Messages, mv)
	}
	return view, nil
}
