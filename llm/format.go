package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Mode selects how aggressively a Formatter edits a transcript.
type Mode string

const (
	// ModeStrict only adds line breaks and bullet lists.
	ModeStrict Mode = "strict"
	// ModeTypoFix also corrects obvious misspellings.
	ModeTypoFix Mode = "typofix"
)

// ParseMode validates a configured formatting mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStrict:
		return ModeStrict, nil
	case ModeTypoFix:
		return ModeTypoFix, nil
	default:
		return "", fmt.Errorf("unknown formatting mode %q", s)
	}
}

// ErrImplausible is returned when the model output does not look like a
// reformatting of the input.
var ErrImplausible = errors.New("llm: implausible formatting result")

// A formatted transcript longer than this many times the input is rejected.
const maxGrowth = 3

const strictPrompt = `You are a text formatter. Your only job is to add line breaks and bullet points to dictated text.

Rules:
1. Do not change, add, remove or reorder any words.
2. Do not rephrase anything.
3. Add line breaks between sentences where appropriate.
4. Turn comma-separated lists into bullet points.

Example:
Input: I need milk, eggs, bread, and butter.
Output:
I need:
- milk
- eggs
- bread
- butter

Reply with the formatted text only.`

const typoFixPrompt = `You are a text formatter. Add line breaks and bullet points to dictated text and fix obvious typos.

Rules:
1. Add line breaks between sentences where appropriate.
2. Turn comma-separated lists into bullet points.
3. Fix obvious spelling mistakes and misrecognized words.
4. Do not rephrase or change the meaning.
5. Do not add or remove words except to fix typos.

Example:
Input: Hi, how are yuo? I wantd to ask about the meetting.
Output:
Hi, how are you?

I wanted to ask about the meeting.

Reply with the formatted text only.`

// FormatterConfig configures a Formatter. Empty prompts use the built-in
// ones.
type FormatterConfig struct {
	Mode          Mode
	StrictPrompt  string
	TypoFixPrompt string
	Logger        *slog.Logger
}

// Formatter rewrites transcripts with a Completer.
type Formatter struct {
	completer Completer
	system    string
	log       *slog.Logger
}

// NewFormatter returns a Formatter backed by c.
func NewFormatter(c Completer, cfg FormatterConfig) *Formatter {
	system := cfg.StrictPrompt
	if system == "" {
		system = strictPrompt
	}
	if cfg.Mode == ModeTypoFix {
		system = cfg.TypoFixPrompt
		if system == "" {
			system = typoFixPrompt
		}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Formatter{completer: c, system: system, log: log}
}

// Format returns the reformatted text. Blank input is returned unchanged.
func (f *Formatter) Format(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	out, usage, err := f.completer.Complete(ctx, []Message{
		{Role: "system", Content: f.system},
		{Role: "user", Content: text},
	})
	if err != nil {
		return "", fmt.Errorf("format transcript: %w", err)
	}
	out = strings.TrimSpace(out)
	if out == "" || utf8.RuneCountInString(out) > maxGrowth*utf8.RuneCountInString(text) {
		return "", ErrImplausible
	}

	f.log.Debug("transcript formatted", "in", len(text), "out", len(out), "tokens", usage.TotalTokens)
	return out, nil
}
