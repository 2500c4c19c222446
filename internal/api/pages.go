package api

import (
	_ "embed"
	"log/slog"
	"net/http"
)

//go:embed static/index.html
var chatPage []byte

// PagesHandler serves the static chat interface.
type PagesHandler struct {
	logger *slog.Logger
}

// NewPagesHandler creates a pages handler.
func NewPagesHandler(logger *slog.Logger) *PagesHandler {
	return &PagesHandler{logger: logger}
}

// RegisterRoutes registers page routes on the given mux.
func (h *PagesHandler) RegisterRoutes(mux *http.ServeMux) {
	// {$} restricts the pattern to exactly "/"; anything else is 404.
	mux.HandleFunc("GET /{$}", h.handleIndex)
}

func (h *PagesHandler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(chatPage); err != nil {
		h.logger.Debug("failed to write chat page", "error", err)
	}
}
