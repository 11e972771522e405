package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"psykos/internal/config"
	"psykos/internal/content"
	"psykos/internal/db"
	"psykos/internal/game"
	"psykos/internal/server"
	"psykos/internal/store"
)

const shutdownGrace = 10 * time.Second

func main() {
	envErr := config.LoadDotEnv(".env")
	cfg := config.Load()
	logger := cfg.Logger()
	if envErr != nil {
		logger.Warn().Err(envErr).Msg("failed to load .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gameStore, library := openStore(cfg, logger)
	llm := content.NewChatClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTimeout())
	provider := content.NewProvider(llm, library, logger)
	if cfg.LLMAPIKey == "" {
		logger.Warn().Msg("LLM_API_KEY is not set, using fallback prompts")
	}

	srv := server.New(gameStore, provider, cfg, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("psykos server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openStore returns a database-backed store when DATABASE_URL is set and an
// in-memory one otherwise. The prompt library is only available with a
// database.
func openStore(cfg config.Config, logger zerolog.Logger) (game.Store, content.PromptSource) {
	if cfg.DatabaseURL == "" {
		logger.Warn().Msg("DATABASE_URL is not set, rooms live in memory only")
		return game.NewMemoryStore(), nil
	}
	conn, err := db.Open(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	if err := db.Migrate(conn); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	}
	gormStore := store.NewGormStore(conn)
	return gormStore, gormStore
}
