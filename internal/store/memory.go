package store

import (
	"sort"
	"sync"

	"shapechat/internal/models"
)

// Memory is an in-process Store backed by maps. Game teardown purges the
// game's players, messages and votes in one call.
type Memory struct {
	mu       sync.RWMutex
	games    map[string]*models.Game
	byCode   map[string]string // join code -> game id
	players  map[string]*models.Player
	messages map[string][]*models.Message // game id -> append-only log
	votes    map[string][]*models.Vote    // game id -> all rounds
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		games:    make(map[string]*models.Game),
		byCode:   make(map[string]string),
		players:  make(map[string]*models.Player),
		messages: make(map[string][]*models.Message),
		votes:    make(map[string][]*models.Vote),
	}
}

// CreateGame stores a new game record
func (s *Memory) CreateGame(g *models.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *g
	s.games[g.ID] = &cp
	s.byCode[g.Code] = g.ID
}

// GetGame retrieves a game by id
func (s *Memory) GetGame(id string) (*models.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *g
	return &cp, true
}

// GetGameByCode retrieves a game by join code
func (s *Memory) GetGameByCode(code string) (*models.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return nil, false
	}
	g, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *g
	return &cp, true
}

// PatchGame applies a field-level patch to a stored game
func (s *Memory) PatchGame(id string, patch func(*models.Game)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return false
	}
	patch(g)
	return true
}

// DeleteGame removes a game and purges its players, messages and votes
func (s *Memory) DeleteGame(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return
	}
	delete(s.byCode, g.Code)
	delete(s.games, id)
	delete(s.messages, id)
	delete(s.votes, id)
	for pid, p := range s.players {
		if p.GameID == id {
			delete(s.players, pid)
		}
	}
}

// CreatePlayer stores a new player record
func (s *Memory) CreatePlayer(p *models.Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.players[p.ID] = &cp
}

// GetPlayer retrieves a player by id
func (s *Memory) GetPlayer(id string) (*models.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// PlayersByGame returns all players of a game, oldest join first
func (s *Memory) PlayersByGame(gameID string) []*models.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Player, 0, 8)
	for _, p := range s.players {
		if p.GameID == gameID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out
}

// PatchPlayer applies a field-level patch to a stored player
func (s *Memory) PatchPlayer(id string, patch func(*models.Player)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return false
	}
	patch(p)
	return true
}

// DeletePlayer removes a single player record (lobby departures)
func (s *Memory) DeletePlayer(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
}

// AppendMessage appends to the game's chat log
func (s *Memory) AppendMessage(m *models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.messages[m.GameID] = append(s.messages[m.GameID], &cp)
}

// MessagesByGame returns the game's chat log in insertion order
func (s *Memory) MessagesByGame(gameID string) []*models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[gameID]
	out := make([]*models.Message, len(msgs))
	copy(out, msgs) // records are immutable once written
	return out
}

// AddVote inserts a vote record
func (s *Memory) AddVote(v *models.Vote) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.votes[v.GameID] = append(s.votes[v.GameID], &cp)
}

// VotesByRound returns votes recorded under the exact round number
func (s *Memory) VotesByRound(gameID string, round int) []*models.Vote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Vote, 0, 8)
	for _, v := range s.votes[gameID] {
		if v.Round == round {
			out = append(out, v)
		}
	}
	return out
}

var _ Store = (*Memory)(nil)
