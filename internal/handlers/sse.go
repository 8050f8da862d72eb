package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// HandleSSE streams game events to one connected player
func (ctx *Context) HandleSSE(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.Trim(strings.TrimPrefix(r.URL.Path, "/sse/"), "/"))
	if code == "" || strings.Contains(code, "/") {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}

	g, playerID, ok := ctx.requireMember(w, r, code)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable buffering in nginx/proxies
	flusher.Flush()

	ch := ctx.Broadcaster.Subscribe(g.ID, playerID)
	defer ctx.Broadcaster.Unsubscribe(g.ID, ch)

	ctx.Log.Debug("sse client connected",
		zap.String("code", code),
		zap.String("player", playerID))

	reqCtx := r.Context()
	for {
		select {
		case <-reqCtx.Done():
			ctx.Log.Debug("sse client disconnected",
				zap.String("code", code),
				zap.String("player", playerID))
			return
		case ev := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}
