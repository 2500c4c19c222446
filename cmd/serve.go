package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/tsm-education/scolarite/internal/api"
	"github.com/tsm-education/scolarite/internal/completion"
	"github.com/tsm-education/scolarite/internal/config"
	"github.com/tsm-education/scolarite/internal/docs"
	"github.com/tsm-education/scolarite/internal/log"
	"github.com/tsm-education/scolarite/internal/prompt"
	"github.com/tsm-education/scolarite/internal/session"
)

// runServe initializes and starts the HTTP server.
// Startup order: config → logger → documents → prompt → store → gateway → server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.New(log.Config{Level: parseLevel(cfg.LogLevel), JSON: cfg.LogJSON})
	slog.SetDefault(logger)
	logger.Info("starting scolarite", "version", Version, "config", cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The system instruction is computed once and shared by all sessions.
	documentText := docs.Load(cfg.DocsDir, logger.With("component", "docs"))
	instruction := prompt.Build(documentText)
	logger.Info("system instruction built", "chars", len(instruction))

	store := session.NewStore(session.Config{
		SystemInstruction: instruction,
		MaxStoredTurns:    cfg.MaxStoredTurns,
		TTL:               cfg.SessionTTL,
		MaxSessions:       cfg.MaxSessions,
	}, logger.With("component", "session"))

	gateway := completion.NewClient(completion.Config{
		APIKey:      cfg.GroqAPIKey,
		BaseURL:     cfg.GroqBaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.GatewayTimeout,
	}, logger.With("component", "gateway"))

	srv := api.NewServer(api.ServerConfig{
		Logger:         logger,
		Store:          store,
		Completer:      gateway,
		WindowTurns:    cfg.WindowTurns,
		GatewayTimeout: cfg.GatewayTimeout,
	})

	return srv.Run(ctx, cfg.Addr())
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
