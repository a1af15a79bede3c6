package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.aimuz.me/vibeflow/internal/types"
)

type fakeCompleter struct {
	reply string
	err   error
	got   []Message
}

func (f *fakeCompleter) Complete(_ context.Context, messages []Message) (string, types.Usage, error) {
	f.got = messages
	return f.reply, types.Usage{TotalTokens: 3}, f.err
}

func TestFormatterFormat(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		err     error
		want    string
		wantErr error
	}{
		{"formatted", "  I need:\n- milk\n- eggs\n", nil, "I need:\n- milk\n- eggs", nil},
		{"empty_reply", "   ", nil, "", ErrImplausible},
		{"too_long", strings.Repeat("x", 100), nil, "", ErrImplausible},
		{"completer_error", "", errors.New("quota"), "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{reply: tt.reply, err: tt.err}
			f := NewFormatter(c, FormatterConfig{})

			got, err := f.Format(context.Background(), "I need milk, eggs.")
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			case tt.err != nil:
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
			default:
				if err != nil {
					t.Fatalf("Format: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestFormatterPrompts(t *testing.T) {
	tests := []struct {
		name string
		cfg  FormatterConfig
		want string
	}{
		{"strict_default", FormatterConfig{}, strictPrompt},
		{"typofix_default", FormatterConfig{Mode: ModeTypoFix}, typoFixPrompt},
		{"strict_custom", FormatterConfig{StrictPrompt: "only newlines"}, "only newlines"},
		{"typofix_custom", FormatterConfig{Mode: ModeTypoFix, TypoFixPrompt: "fix"}, "fix"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeCompleter{reply: "ok"}
			if _, err := NewFormatter(c, tt.cfg).Format(context.Background(), "ok"); err != nil {
				t.Fatal(err)
			}
			if len(c.got) != 2 || c.got[0].Role != "system" || c.got[0].Content != tt.want {
				t.Errorf("messages = %+v", c.got)
			}
		})
	}
}

func TestFormatterBlankInput(t *testing.T) {
	c := &fakeCompleter{reply: "never"}
	got, err := NewFormatter(c, FormatterConfig{}).Format(context.Background(), "  ")
	if err != nil || got != "  " || c.got != nil {
		t.Errorf("got %q, %v, completer called: %v", got, err, c.got != nil)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeStrict, "strict": ModeStrict, "typofix": ModeTypoFix} {
		if got, err := ParseMode(in); err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("rewrite"); err == nil {
		t.Error("ParseMode(rewrite) succeeded")
	}
}
