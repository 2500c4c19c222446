package completion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsm-education/scolarite/internal/log"
	"github.com/tsm-education/scolarite/internal/session"
)

func testConfig(baseURL string) Config {
	return Config{
		APIKey:      "test-key",
		BaseURL:     baseURL,
		Model:       "llama-3.2-3b-fast",
		Temperature: 0.6,
		MaxTokens:   500,
		Timeout:     5 * time.Second,
	}
}

// wireMessage mirrors the chat-completions request message shape.
type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

func completionBody(text string) string {
	return `{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":` +
		mustJSON(text) + `},"finish_reason":"stop"}]}`
}

func mustJSON(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestClient_Complete(t *testing.T) {
	var got wireRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("Les inscriptions ouvrent le 1er septembre.")))
	}))
	defer ts.Close()

	c := NewClient(testConfig(ts.URL), log.NewNop())
	reply, err := c.Complete(context.Background(), []session.Turn{
		{Role: session.RoleSystem, Content: "tu es l'assistant scolarité"},
		{Role: session.RoleUser, Content: "Quand sont les inscriptions ?"},
		{Role: session.RoleAssistant, Content: "Je vérifie."},
		{Role: session.RoleUser, Content: "Merci"},
	})
	require.NoError(t, err)

	assert.Equal(t, session.RoleAssistant, reply.Role)
	assert.Equal(t, "Les inscriptions ouvrent le 1er septembre.", reply.Content)

	// Only role and content cross the wire, in the submitted order.
	assert.Equal(t, "llama-3.2-3b-fast", got.Model)
	assert.InDelta(t, 0.6, got.Temperature, 1e-6)
	assert.Equal(t, 500, got.MaxTokens)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, wireMessage{Role: "system", Content: "tu es l'assistant scolarité"}, got.Messages[0])
	assert.Equal(t, wireMessage{Role: "user", Content: "Quand sont les inscriptions ?"}, got.Messages[1])
	assert.Equal(t, wireMessage{Role: "assistant", Content: "Je vérifie."}, got.Messages[2])
	assert.Equal(t, wireMessage{Role: "user", Content: "Merci"}, got.Messages[3])
}

func TestClient_Complete_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid model"}}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	c := NewClient(testConfig(ts.URL), log.NewNop())
	_, err := c.Complete(context.Background(), []session.Turn{{Role: session.RoleUser, Content: "salut"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
}

func TestClient_Complete_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-2","object":"chat.completion","choices":[]}`))
	}))
	defer ts.Close()

	c := NewClient(testConfig(ts.URL), log.NewNop())
	_, err := c.Complete(context.Background(), []session.Turn{{Role: session.RoleUser, Content: "salut"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
}

func TestClient_Complete_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	cfg := testConfig(ts.URL)
	cfg.Timeout = 50 * time.Millisecond
	c := NewClient(cfg, log.NewNop())

	start := time.Now()
	_, err := c.Complete(context.Background(), []session.Turn{{Role: session.RoleUser, Content: "salut"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGateway)
	assert.Less(t, time.Since(start), time.Second, "expiry must be bounded by the configured timeout")
}
