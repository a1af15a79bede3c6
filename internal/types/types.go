// Package types provides shared type definitions for the application.
package types

import (
	"fmt"
	"time"
)

// InputMode selects how finished text reaches the target application.
type InputMode string

const (
	// InputPaste writes the text to the clipboard and sends the paste chord.
	InputPaste InputMode = "paste"
	// InputType synthesizes key presses at the cursor.
	InputType InputMode = "type"
)

// ParseInputMode validates a configured mode.
func ParseInputMode(s string) (InputMode, error) {
	switch InputMode(s) {
	case InputPaste, InputType:
		return InputMode(s), nil
	case "":
		return InputPaste, nil
	default:
		return "", fmt.Errorf("unknown input mode %q", s)
	}
}

// Provider represents an LLM provider configuration used for formatting.
type Provider struct {
	Type            string  `json:"type" yaml:"type" mapstructure:"type"` // "openai", "openai-compatible", "gemini", "claude"
	BaseURL         string  `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`
	APIKey          string  `json:"api_key" yaml:"api_key" mapstructure:"api_key"`
	Model           string  `json:"model" yaml:"model" mapstructure:"model"`
	MaxTokens       int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" mapstructure:"max_tokens"`
	Temperature     float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" mapstructure:"temperature"`
	DisableThinking bool    `json:"disable_thinking,omitempty" yaml:"disable_thinking,omitempty" mapstructure:"disable_thinking"` // For Gemini: set thinkingBudget to 0
}

// DefaultMaxTokens is the default max tokens if not specified.
const DefaultMaxTokens = 1000

// DefaultTemperature is the default temperature if not specified.
const DefaultTemperature = 0.1

// Usage represents token usage statistics from LLM API calls.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// HistoryEntry is one finished transcription.
type HistoryEntry struct {
	ID        string        `json:"id"`
	Text      string        `json:"text"`
	Provider  string        `json:"provider"`
	Duration  time.Duration `json:"duration"` // length of the recorded audio
	CreatedAt time.Time     `json:"createdAt"`
}

// STTProviderInfo represents information about an STT provider.
type STTProviderInfo struct {
	Name          string `json:"name"`          // Provider identifier
	DisplayName   string `json:"displayName"`   // Human-readable name
	IsLocal       bool   `json:"isLocal"`       // Whether it runs locally
	RequiresSetup bool   `json:"requiresSetup"` // Whether setup is needed (e.g., model download)
	SetupProgress int    `json:"setupProgress"` // Setup progress 0-100, -1 if not started
	IsReady       bool   `json:"isReady"`       // Whether the provider is ready to use
	Active        bool   `json:"active"`
}
