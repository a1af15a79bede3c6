package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.aimuz.me/vibeflow/internal/types"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com/v1/messages"
	claudeAPIVersion     = "2023-06-01"
)

// claudeCompleter implements Completer for the Anthropic Messages API.
type claudeCompleter struct {
	cfg completerConfig
}

type claudeRequest struct {
	Model       string          `json:"model"`
	Messages    []claudeMessage `json:"messages"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *claudeCompleter) Complete(ctx context.Context, messages []Message) (string, types.Usage, error) {
	req := claudeRequest{
		Model:       c.cfg.model,
		MaxTokens:   c.cfg.maxTokens,
		Temperature: c.cfg.temperature,
	}
	var system []string
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, claudeMessage{Role: m.Role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n")

	url := defaultClaudeBaseURL
	if c.cfg.baseURL != "" {
		url = c.cfg.baseURL
	}
	header := http.Header{}
	header.Set("x-api-key", c.cfg.apiKey)
	header.Set("anthropic-version", claudeAPIVersion)

	var resp claudeResponse
	status, err := postJSON(ctx, c.cfg.http, url, header, req, &resp)
	if err != nil {
		return "", types.Usage{}, err
	}
	if resp.Error != nil {
		return "", types.Usage{}, fmt.Errorf("api error: %d %s - %s", status, resp.Error.Type, resp.Error.Message)
	}

	var text strings.Builder
	for _, part := range resp.Content {
		if part.Type == "text" {
			text.WriteString(part.Text)
		}
	}
	if text.Len() == 0 {
		return "", types.Usage{}, errors.New("no content returned")
	}

	var usage types.Usage
	if resp.Usage != nil {
		usage = types.Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
			TotalTokens:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		}
	}
	return text.String(), usage, nil
}
