package api

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/tsm-education/scolarite/internal/completion"
	"github.com/tsm-education/scolarite/internal/session"
)

// MaxMessageLength bounds a single user message.
const MaxMessageLength = 4000

// maxRequestBytes bounds the /chat request body before it is decoded,
// leaving headroom over MaxMessageLength for JSON escaping and the
// user_id field.
const maxRequestBytes = 4 * MaxMessageLength

// ChatHandler handles the message-exchange endpoint.
type ChatHandler struct {
	store       *session.Store
	completer   completion.Completer
	windowTurns int
	logger      *slog.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(store *session.Store, completer completion.Completer, windowTurns int, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		store:       store,
		completer:   completer,
		windowTurns: windowTurns,
		logger:      logger,
	}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /chat", h.handleChat)
}

// ChatRequest is the request body for POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// ChatResponse is the success body for POST /chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// handleChat runs one message exchange: append the user turn, submit the
// recent window to the gateway, append and return the reply.
//
// Input is validated before any session state is touched. The whole
// exchange holds the per-session ordering lock, so concurrent requests
// for the same session key are strictly ordered while other sessions
// proceed in parallel.
func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}
	if len(req.Message) > MaxMessageLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "message too long")
		return
	}

	key := h.sessionKey(r, req.UserID)
	done := h.store.BeginExchange(key)
	defer done()

	h.store.AppendUserTurn(key, req.Message)
	window := h.store.Window(key, h.windowTurns)

	reply, err := h.completer.Complete(r.Context(), window)
	if err != nil {
		// The user turn stays; no assistant turn is recorded for a
		// failed completion.
		h.logger.Error("completion failed",
			"error", err,
			"session", key,
			"request_id", RequestID(r.Context()))
		writeError(w, http.StatusBadGateway, "upstream_error", "the assistant is unavailable, please retry")
		return
	}

	h.store.AppendAssistantTurn(key, reply.Content)
	writeJSON(w, http.StatusOK, ChatResponse{Reply: reply.Content})
}

// sessionKey derives the session key: the client-supplied user_id when
// present, otherwise the network origin address. The store treats it as
// an opaque string either way.
func (h *ChatHandler) sessionKey(r *http.Request, userID string) string {
	if userID != "" {
		return userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
