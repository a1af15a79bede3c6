package dictation

import (
	"errors"
	"unicode"
	"unicode/utf8"

	"go.aimuz.me/vibeflow/inject"
	"go.aimuz.me/vibeflow/internal/types"
)

// injectTask is a scheduled text injection. Its fields are fixed when the
// session finishes; the task may run after a new session has started.
type injectTask struct {
	text   string
	target int
	mode   types.InputMode
}

// withTrailingSpace appends a space unless text already ends in whitespace,
// so the injected text does not fuse with whatever is typed next.
func withTrailingSpace(text string) string {
	if text == "" {
		return text
	}
	if r, _ := utf8.DecodeLastRuneInString(text); unicode.IsSpace(r) {
		return text
	}
	return text + " "
}

func injectFailureMessage(mode types.InputMode, err error) string {
	switch {
	case errors.Is(err, inject.ErrClipboard):
		return "Failed to copy text to the clipboard. Try dictating again."
	case mode == types.InputType:
		return "Failed to type text. Enable Accessibility for VibeFlow in System Settings."
	default:
		return "Transcribed text copied to clipboard. Enable Accessibility for VibeFlow to auto-paste."
	}
}
