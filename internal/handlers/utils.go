package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"shapechat/internal/game"
	"shapechat/internal/models"
)

const maxBodyBytes = 4 << 10

type errorResponse struct {
	Error string `json:"error"`
}

// readJSON decodes a small JSON body, writing a 400 on failure
func (ctx *Context) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		ctx.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (ctx *Context) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		ctx.Log.Error("response encode failed", zap.Error(err))
	}
}

// writeError maps service errors onto HTTP statuses
func (ctx *Context) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrGameNotFound), errors.Is(err, game.ErrPlayerNotFound):
		status = http.StatusNotFound
	case game.IsValidation(err):
		status = http.StatusBadRequest
	default:
		ctx.Log.Error("request failed", zap.Error(err))
	}
	ctx.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// setPlayerCookie stores the session player id
func setPlayerCookie(w http.ResponseWriter, playerID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "player_id",
		Value:    playerID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable when serving over HTTPS
	})
}

func playerIDFromCookie(r *http.Request) string {
	cookie, err := r.Cookie("player_id")
	if err != nil {
		return ""
	}
	return cookie.Value
}

// requireMember validates the session cookie against the game's seats
func (ctx *Context) requireMember(w http.ResponseWriter, r *http.Request, code string) (*models.Game, string, bool) {
	g, err := ctx.Service.GameByCode(code)
	if err != nil {
		ctx.writeError(w, err)
		return nil, "", false
	}
	playerID := playerIDFromCookie(r)
	if playerID == "" {
		ctx.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "no session"})
		return nil, "", false
	}
	if _, err := ctx.Service.Player(g.ID, playerID); err != nil {
		ctx.writeJSON(w, http.StatusForbidden, errorResponse{Error: "not a member"})
		return nil, "", false
	}
	return g, playerID, true
}
