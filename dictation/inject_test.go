package dictation

import (
	"errors"
	"fmt"
	"testing"

	"go.aimuz.me/vibeflow/inject"
	"go.aimuz.me/vibeflow/internal/types"
)

func TestWithTrailingSpace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello "},
		{"hello ", "hello "},
		{"hello\n", "hello\n"},
		{"hello\t", "hello\t"},
		{"你好", "你好 "},
		{"a　", "a　"},
		{"ok\xff", "ok\xff "},
		{"", ""},
	}
	for _, tt := range tests {
		if got := withTrailingSpace(tt.in); got != tt.want {
			t.Errorf("withTrailingSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestInjectFailureMessage(t *testing.T) {
	keys := errors.New("no accessibility")
	clip := fmt.Errorf("%w: %w", inject.ErrClipboard, errors.New("no pasteboard"))

	paste := injectFailureMessage(types.InputPaste, keys)
	typ := injectFailureMessage(types.InputType, keys)
	copyFailed := injectFailureMessage(types.InputPaste, clip)

	if paste == typ || paste == copyFailed || typ == copyFailed {
		t.Fatalf("failure messages not distinct: %q, %q, %q", paste, typ, copyFailed)
	}
	if paste == "" || typ == "" || copyFailed == "" {
		t.Fatal("empty failure message")
	}
}
