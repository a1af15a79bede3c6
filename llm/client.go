// Package llm rewrites transcripts with a chat-completion model.
package llm

import (
	"context"
	"net/http"
	"time"

	"go.aimuz.me/vibeflow/internal/netutil"
	"go.aimuz.me/vibeflow/internal/types"
)

const requestTimeout = 30 * time.Second

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer performs chat completions.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, types.Usage, error)
}

// completerConfig holds all parameters needed by completers.
type completerConfig struct {
	http            *http.Client
	apiKey          string
	baseURL         string
	model           string
	maxTokens       int
	temperature     float64
	disableThinking bool // gemini: thinkingBudget 0
}

// NewCompleter creates a Completer for the configured provider.
func NewCompleter(p types.Provider) Completer {
	cfg := completerConfig{
		http:            netutil.NewHTTPClient(requestTimeout),
		apiKey:          p.APIKey,
		baseURL:         p.BaseURL,
		model:           p.Model,
		maxTokens:       p.MaxTokens,
		temperature:     p.Temperature,
		disableThinking: p.DisableThinking,
	}
	if cfg.maxTokens == 0 {
		cfg.maxTokens = types.DefaultMaxTokens
	}
	if cfg.temperature == 0 {
		cfg.temperature = types.DefaultTemperature
	}

	switch p.Type {
	case "gemini":
		return &geminiCompleter{cfg: cfg}
	case "claude":
		return &claudeCompleter{cfg: cfg}
	case "openai-compatible":
		return newOpenAICompleter(cfg, true)
	default:
		return newOpenAICompleter(cfg, false)
	}
}
