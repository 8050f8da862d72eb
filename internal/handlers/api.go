package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"shapechat/internal/config"
	"shapechat/internal/game"
	"shapechat/internal/sse"
)

// Context holds shared application dependencies
type Context struct {
	Service     *game.Service
	Broadcaster *sse.Broadcaster
	Config      *config.Config
	Log         *zap.Logger
}

type createGameRequest struct {
	Name string `json:"name"`
}

type joinGameRequest struct {
	Name string `json:"name"`
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type castVoteRequest struct {
	TargetID string `json:"targetId"`
}

type gameCreatedResponse struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

// HandleCreateGame creates a game and seats the host
func (ctx *Context) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createGameRequest
	if !ctx.readJSON(w, r, &req) {
		return
	}

	g, host, err := ctx.Service.CreateGame(req.Name)
	if err != nil {
		ctx.writeError(w, err)
		return
	}

	setPlayerCookie(w, host.ID)
	ctx.writeJSON(w, http.StatusCreated, gameCreatedResponse{Code: g.Code, PlayerID: host.ID})
}

// HandleGameMux routes /api/games/{code} and its action subpaths
func (ctx *Context) HandleGameMux(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/games/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}
	code := strings.ToUpper(parts[0])
	seg := ""
	if len(parts) > 1 {
		seg = parts[1]
	}

	if seg == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx.gameView(w, r, code)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch seg {
	case "join":
		ctx.gameJoin(w, r, code)
	case "start":
		ctx.gameStart(w, r, code)
	case "messages":
		ctx.gameMessage(w, r, code)
	case "votes":
		ctx.gameVote(w, r, code)
	case "leave":
		ctx.gameLeave(w, r, code)
	default:
		http.NotFound(w, r)
	}
}

func (ctx *Context) gameView(w http.ResponseWriter, r *http.Request, code string) {
	playerID := playerIDFromCookie(r)
	view, err := ctx.Service.View(code, playerID)
	if err != nil {
		ctx.writeError(w, err)
		return
	}
	ctx.writeJSON(w, http.StatusOK, view)
}

func (ctx *Context) gameJoin(w http.ResponseWriter, r *http.Request, code string) {
	var req joinGameRequest
	if !ctx.readJSON(w, r, &req) {
		return
	}

	g, p, err := ctx.Service.JoinGame(code, req.Name)
	if err != nil {
		ctx.writeError(w, err)
		return
	}

	setPlayerCookie(w, p.ID)
	ctx.writeJSON(w, http.StatusOK, gameCreatedResponse{Code: g.Code, PlayerID: p.ID})
}

func (ctx *Context) gameStart(w http.ResponseWriter, r *http.Request, code string) {
	g, playerID, ok := ctx.requireMember(w, r, code)
	if !ok {
		return
	}
	if err := ctx.Service.StartGame(g.ID, playerID); err != nil {
		ctx.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ctx *Context) gameMessage(w http.ResponseWriter, r *http.Request, code string) {
	g, playerID, ok := ctx.requireMember(w, r, code)
	if !ok {
		return
	}
	var req sendMessageRequest
	if !ctx.readJSON(w, r, &req) {
		return
	}
	if _, err := ctx.Service.SendMessage(g.ID, playerID, req.Text); err != nil {
		ctx.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ctx *Context) gameVote(w http.ResponseWriter, r *http.Request, code string) {
	g, playerID, ok := ctx.requireMember(w, r, code)
	if !ok {
		return
	}
	var req castVoteRequest
	if !ctx.readJSON(w, r, &req) {
		return
	}
	if err := ctx.Service.CastVote(g.ID, playerID, req.TargetID); err != nil {
		ctx.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ctx *Context) gameLeave(w http.ResponseWriter, r *http.Request, code string) {
	g, playerID, ok := ctx.requireMember(w, r, code)
	if !ok {
		return
	}
	if err := ctx.Service.LeaveGame(g.ID, playerID); err != nil {
		ctx.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
