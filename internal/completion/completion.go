// Package completion adapts the external Groq chat-completions API.
//
// Groq exposes an OpenAI-compatible endpoint, so the adapter is the
// official OpenAI client pointed at Groq's base URL. Everything behind
// Complete is an external trust boundary: failures are surfaced as
// ErrGateway, never swallowed.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tsm-education/scolarite/internal/session"
)

// ErrGateway indicates the external completion call failed or timed out.
var ErrGateway = errors.New("completion gateway")

// Completer produces one assistant turn from an ordered turn window.
// Consumer-side interface; the api package depends on it, tests fake it.
type Completer interface {
	Complete(ctx context.Context, turns []session.Turn) (session.Turn, error)
}

// Config holds the gateway settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int

	// Timeout bounds each completion call. Expiry is a gateway failure.
	Timeout time.Duration
}

// Client is the Groq-backed Completer.
type Client struct {
	api    openai.Client
	cfg    Config
	logger *slog.Logger
}

// NewClient creates a gateway client. logger may be nil.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		api: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
		),
		cfg:    cfg,
		logger: logger,
	}
}

// Complete sends the turn window (role and content only) to the model and
// returns its reply as an assistant turn.
func (c *Client) Complete(ctx context.Context, turns []session.Turn) (session.Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case session.RoleSystem:
			messages = append(messages, openai.SystemMessage(t.Content))
		case session.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(t.Content))
		default:
			messages = append(messages, openai.UserMessage(t.Content))
		}
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    messages,
		Temperature: openai.Float(c.cfg.Temperature),
		MaxTokens:   openai.Int(int64(c.cfg.MaxTokens)),
	})
	if err != nil {
		return session.Turn{}, fmt.Errorf("%w: %w", ErrGateway, err)
	}
	if len(resp.Choices) == 0 {
		return session.Turn{}, fmt.Errorf("%w: response contained no choices", ErrGateway)
	}

	c.logger.Debug("completion",
		"model", c.cfg.Model,
		"turns", len(turns),
		"duration", time.Since(start))

	return session.Turn{Role: session.RoleAssistant, Content: resp.Choices[0].Message.Content}, nil
}
