package game

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shapechat/internal/config"
	"shapechat/internal/models"
	"shapechat/internal/sched"
	"shapechat/internal/store"
)

// Notifier pushes game events to connected clients. Implementations must
// never block.
type Notifier interface {
	Publish(gameID, event string, payload any)
}

// AIPlayer is the decision engine seam. The controller only schedules these
// calls; all bluffing logic lives behind the interface.
type AIPlayer interface {
	TakeTurn(gameID string)
	VoteNow(gameID string)
}

// Event names published through the Notifier
const (
	EventPlayers   = "players"
	EventMessage   = "message"
	EventPhase     = "phase"
	EventVoteCount = "vote-count"
	EventGameOver  = "game-over"
)

// Service owns the round state machine and serializes all mutations per
// game. Scheduled callbacks, votes and chat sends all funnel through the
// same per-game lock.
type Service struct {
	store  store.Store
	sched  sched.Scheduler
	policy config.Policy
	notify Notifier
	log    *zap.Logger
	ai     AIPlayer

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService creates the game service
func NewService(st store.Store, sc sched.Scheduler, policy config.Policy, notify Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  st,
		sched:  sc,
		policy: policy,
		notify: notify,
		log:    log,
		locks:  make(map[string]*sync.Mutex),
	}
}

// SetAI wires the decision engine. Must be called before any game starts.
func (s *Service) SetAI(ai AIPlayer) {
	s.ai = ai
}

// lockGame returns the mutex serializing one game's mutations
func (s *Service) lockGame(gameID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[gameID] = l
	}
	return l
}

func (s *Service) publish(gameID, event string, payload any) {
	if s.notify != nil {
		s.notify.Publish(gameID, event, payload)
	}
}

// GameByCode looks up a game by its join code
func (s *Service) GameByCode(code string) (*models.Game, error) {
	g, ok := s.store.GetGameByCode(code)
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// Player returns one seated player of a game
func (s *Service) Player(gameID, playerID string) (*models.Player, error) {
	p, ok := s.store.GetPlayer(playerID)
	if !ok || p.GameID != gameID {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

// CreateGame creates a game in the waiting phase with the host seated
func (s *Service) CreateGame(hostName string) (*models.Game, *models.Player, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, nil, ErrNameRequired
	}

	now := time.Now()
	host := &models.Player{
		ID:       uuid.New().String(),
		RealName: hostName,
		JoinedAt: now,
	}
	g := &models.Game{
		ID:        uuid.New().String(),
		Code:      UniqueJoinCode(s.store),
		HostID:    host.ID,
		Phase:     models.PhaseWaiting,
		CreatedAt: now,
	}
	host.GameID = g.ID

	s.store.CreateGame(g)
	s.store.CreatePlayer(host)

	s.log.Info("game created",
		zap.String("code", g.Code),
		zap.String("gameID", g.ID),
		zap.String("host", host.ID))
	return g, host, nil
}

// JoinGame seats a new player in a waiting lobby
func (s *Service) JoinGame(code, name string) (*models.Game, *models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, ErrNameRequired
	}

	g, ok := s.store.GetGameByCode(strings.ToUpper(strings.TrimSpace(code)))
	if !ok {
		return nil, nil, ErrGameNotFound
	}

	lock := s.lockGame(g.ID)
	lock.Lock()
	defer lock.Unlock()

	g, ok = s.store.GetGame(g.ID)
	if !ok {
		return nil, nil, ErrGameNotFound
	}
	if g.Phase != models.PhaseWaiting {
		return nil, nil, ErrGameStarted
	}
	if len(s.store.PlayersByGame(g.ID)) >= s.policy.MaxHumans {
		return nil, nil, ErrLobbyFull
	}

	p := &models.Player{
		ID:       uuid.New().String(),
		GameID:   g.ID,
		RealName: name,
		JoinedAt: time.Now(),
	}
	s.store.CreatePlayer(p)

	s.log.Info("player joined",
		zap.String("code", g.Code),
		zap.String("playerID", p.ID))
	s.publish(g.ID, EventPlayers, nil)
	return g, p, nil
}

// StartGame seats the AI impostor, deals shapes and enters round 1. Only the
// host can start, and only with enough humans present.
func (s *Service) StartGame(gameID, playerID string) error {
	lock := s.lockGame(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, ok := s.store.GetGame(gameID)
	if !ok {
		return ErrGameNotFound
	}
	if g.HostID != playerID {
		return ErrNotHost
	}
	if g.Phase != models.PhaseWaiting {
		return ErrGameStarted
	}
	humans := s.store.PlayersByGame(gameID)
	if len(humans) < s.policy.MinHumans {
		return ErrNotEnoughPlayers
	}

	// One synthetic seat joins the humans; its identity stays ground truth
	// in storage and is redacted at the query boundary.
	aiSeat := &models.Player{
		ID:       uuid.New().String(),
		GameID:   gameID,
		RealName: "imposter",
		IsAI:     true,
		JoinedAt: time.Now(),
	}
	s.store.CreatePlayer(aiSeat)

	s.assignShapes(gameID, false)
	s.log.Info("game started",
		zap.String("code", g.Code),
		zap.Int("humans", len(humans)))

	s.beginDiscussion(gameID)
	return nil
}

// SendMessage appends a chat message from a human player during discussion
func (s *Service) SendMessage(gameID, playerID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	lock := s.lockGame(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, ok := s.store.GetGame(gameID)
	if !ok {
		return nil, ErrGameNotFound
	}
	if g.Phase == models.PhaseEnded {
		return nil, ErrGameEnded
	}
	if g.Phase != models.PhaseDiscussion {
		return nil, ErrWrongPhase
	}

	p, ok := s.store.GetPlayer(playerID)
	if !ok || p.GameID != gameID {
		return nil, ErrPlayerNotFound
	}
	if p.Eliminated {
		return nil, ErrEliminated
	}

	now := time.Now()
	if !p.LastMsgAt.IsZero() && now.Sub(p.LastMsgAt) < s.policy.MessageCooldown() {
		return nil, ErrCooldown
	}

	m := &models.Message{
		ID:       uuid.New().String(),
		GameID:   gameID,
		PlayerID: p.ID,
		Shape:    p.Shape,
		Text:     text,
		SentAt:   now,
		IsAI:     false,
	}
	s.store.AppendMessage(m)
	s.store.PatchPlayer(p.ID, func(pl *models.Player) { pl.LastMsgAt = now })
	s.publish(gameID, EventMessage, msgView(m))

	// A human spoke: give the AI a chance to respond after a plausible
	// reading delay.
	s.scheduleAITurn(gameID, s.readingDelay(text))
	return m, nil
}

// LeaveGame handles voluntary departure. Mid-game it is an immediate
// elimination and may itself satisfy a win condition.
func (s *Service) LeaveGame(gameID, playerID string) error {
	lock := s.lockGame(gameID)
	lock.Lock()
	defer lock.Unlock()

	g, ok := s.store.GetGame(gameID)
	if !ok {
		return ErrGameNotFound
	}
	p, ok := s.store.GetPlayer(playerID)
	if !ok || p.GameID != gameID {
		return ErrPlayerNotFound
	}

	switch g.Phase {
	case models.PhaseWaiting:
		s.store.DeletePlayer(playerID)
		remaining := s.store.PlayersByGame(gameID)
		if len(remaining) == 0 || playerID == g.HostID {
			// No humans remain responsible for the lobby: full teardown
			s.store.DeleteGame(gameID)
			s.log.Info("lobby torn down", zap.String("code", g.Code))
			return nil
		}
		s.publish(gameID, EventPlayers, nil)
		return nil

	case models.PhaseEnded:
		return nil

	default:
		if p.Eliminated {
			return nil
		}
		s.store.PatchPlayer(playerID, func(pl *models.Player) { pl.Eliminated = true })
		s.systemMessage(gameID, p.Shape+" left the game")
		s.publish(gameID, EventPlayers, nil)

		// Eager win check so the game cannot silently continue with no
		// pending timer able to notice the losing condition.
		if winner := s.evaluateWin(gameID); winner != models.WinnerNone {
			s.endGame(gameID, winner)
			return nil
		}
		if g.Phase == models.PhaseVoting {
			s.maybeResolve(gameID, g.Round)
		}
		return nil
	}
}

// systemMessage appends narration and publishes it. Lock must be held.
func (s *Service) systemMessage(gameID, text string) {
	m := &models.Message{
		ID:     uuid.New().String(),
		GameID: gameID,
		Shape:  models.SystemAuthor,
		Text:   text,
		SentAt: time.Now(),
	}
	s.store.AppendMessage(m)
	s.publish(gameID, EventMessage, msgView(m))
}

// activePlayers returns the game's non-eliminated players
func (s *Service) activePlayers(gameID string) []*models.Player {
	all := s.store.PlayersByGame(gameID)
	out := make([]*models.Player, 0, len(all))
	for _, p := range all {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

// activeShapes returns the labels of non-eliminated players
func (s *Service) activeShapes(gameID string) []string {
	active := s.activePlayers(gameID)
	shapes := make([]string, 0, len(active))
	for _, p := range active {
		shapes = append(shapes, p.Shape)
	}
	return shapes
}
