package handlers

import (
	"fmt"
	"net/http"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const qrSize = 256

// HandleQR serves a QR code PNG of the join link for a game
func (ctx *Context) HandleQR(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.Trim(strings.TrimPrefix(r.URL.Path, "/qr/"), "/"))
	if code == "" || strings.Contains(code, "/") {
		http.Error(w, "Invalid URL", http.StatusBadRequest)
		return
	}

	if _, err := ctx.Service.GameByCode(code); err != nil {
		ctx.writeError(w, err)
		return
	}

	joinURL := fmt.Sprintf("%s/join/%s", strings.TrimRight(ctx.Config.PublicURL, "/"), code)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
	if err != nil {
		ctx.Log.Error("qr encode failed", zap.String("code", code), zap.Error(err))
		http.Error(w, "QR generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
