package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shapechat/internal/ai"
	"shapechat/internal/config"
	"shapechat/internal/game"
	"shapechat/internal/handlers"
	"shapechat/internal/sched"
	"shapechat/internal/sse"
	"shapechat/internal/store"
)

func main() {
	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	zapCfg := zap.NewProductionConfig()
	if os.Getenv("DEBUG") != "" {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	broadcaster := sse.NewBroadcaster(logger)
	svc := game.NewService(store.NewMemory(), sched.NewTimers(), cfg.Policy, broadcaster, logger)

	if cfg.Gemini.APIKey == "" {
		logger.Warn("no Gemini API key set, the imposter seat will stay silent")
	} else {
		gen, err := ai.NewGemini(context.Background(), cfg.Gemini)
		if err != nil {
			logger.Fatal("gemini client init failed", zap.Error(err))
		}
		svc.SetAI(ai.NewEngine(svc, gen, &cfg.Policy, logger))
	}

	hctx := &handlers.Context{
		Service:     svc,
		Broadcaster: broadcaster,
		Config:      cfg,
		Log:         logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/games", hctx.HandleCreateGame)
	mux.HandleFunc("/api/games/", hctx.HandleGameMux)
	mux.HandleFunc("/sse/", hctx.HandleSSE)
	mux.HandleFunc("/qr/", hctx.HandleQR)

	logger.Info("server listening", zap.String("addr", cfg.Addr))
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
