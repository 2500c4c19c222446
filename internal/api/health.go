package api

import (
	"net/http"

	"github.com/tsm-education/scolarite/internal/session"
)

// HealthHandler serves the liveness probe.
type HealthHandler struct {
	store *session.Store
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(store *session.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sessions := 0
	if h.store != nil {
		sessions = h.store.Len()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": sessions,
	})
}
