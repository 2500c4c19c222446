// Package api exposes the chatbot over HTTP.
//
// Routes:
//
//	GET  /        → static chat page
//	GET  /health  → liveness probe
//	POST /chat    → one message exchange (JSON in, JSON out)
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: recovery and request logging
//   - chat.go: message-exchange endpoint
//   - pages.go: embedded chat page
//   - health.go: liveness probe
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tsm-education/scolarite/internal/completion"
	"github.com/tsm-education/scolarite/internal/session"
)

const (
	// DefaultAddr matches the original deployment port.
	DefaultAddr = ":5000"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads (Slowloris protection).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the minimum duration allowed for writing the
	// response; see Server.writeTimeout for the gateway-aware deadline.
	WriteTimeout = 60 * time.Second

	// WriteTimeoutHeadroom is added on top of the gateway timeout when it
	// would otherwise crowd the write deadline.
	WriteTimeoutHeadroom = 10 * time.Second

	// IdleTimeout applies to keep-alive connections between requests.
	IdleTimeout = 120 * time.Second
)

// ServerConfig carries the server's dependencies.
type ServerConfig struct {
	Logger      *slog.Logger
	Store       *session.Store
	Completer   completion.Completer
	WindowTurns int

	// GatewayTimeout is the completion call's deadline; the server's
	// write timeout is derived from it so slow completions are never cut
	// off mid-response.
	GatewayTimeout time.Duration
}

// Server is the HTTP server for the chatbot.
type Server struct {
	mux            *http.ServeMux
	logger         *slog.Logger
	gatewayTimeout time.Duration

	chat   *ChatHandler
	pages  *PagesHandler
	health *HealthHandler
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:            mux,
		logger:         logger,
		gatewayTimeout: cfg.GatewayTimeout,
		chat:   NewChatHandler(cfg.Store, cfg.Completer, cfg.WindowTurns, logger.With("handler", "chat")),
		pages:  NewPagesHandler(logger.With("handler", "pages")),
		health: NewHealthHandler(cfg.Store),
	}

	s.pages.RegisterRoutes(mux)
	s.health.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
	)
}

// writeTimeout returns the response write deadline: at least
// WriteTimeout, and always comfortably above the gateway timeout.
func (s *Server) writeTimeout() time.Duration {
	if wt := s.gatewayTimeout + WriteTimeoutHeadroom; wt > WriteTimeout {
		return wt
	}
	return WriteTimeout
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      s.writeTimeout(),
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
