package hotkey

import (
	"fmt"
	"strings"
)

// Modifiers is a set of held modifier keys.
type Modifiers uint8

const (
	ModCtrl Modifiers = 1 << iota
	ModShift
	ModAlt
	ModCmd
)

func (m Modifiers) String() string {
	var parts []string
	for _, p := range []struct {
		mod  Modifiers
		name string
	}{
		{ModCtrl, "ctrl"},
		{ModShift, "shift"},
		{ModAlt, "alt"},
		{ModCmd, "cmd"},
	} {
		if m&p.mod != 0 {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, "+")
}

// Key identifies a non-modifier key independently of the platform keycode.
type Key uint8

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyTab
	KeyReturn
	KeyBackspace
	KeyDelete
)

var keyNames = map[string]Key{
	"escape":    KeyEscape,
	"esc":       KeyEscape,
	"space":     KeySpace,
	"tab":       KeyTab,
	"return":    KeyReturn,
	"enter":     KeyReturn,
	"backspace": KeyBackspace,
	"delete":    KeyDelete,
}

var modNames = map[string]Modifiers{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"cmd":     ModCmd,
	"command": ModCmd,
	"meta":    ModCmd,
	"super":   ModCmd,
	"win":     ModCmd,
}

var keyStrings = [...]string{
	KeyUnknown:   "unknown",
	KeyEscape:    "escape",
	KeySpace:     "space",
	KeyTab:       "tab",
	KeyReturn:    "return",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
}

func (k Key) String() string {
	if int(k) < len(keyStrings) {
		return keyStrings[k]
	}
	return "unknown"
}

// Chord is the modifier combination that opens a session plus the key that
// cancels it.
type Chord struct {
	Mods   Modifiers
	Cancel Key
}

// DefaultChord is Ctrl+Cmd with Escape to cancel.
var DefaultChord = Chord{Mods: ModCtrl | ModCmd, Cancel: KeyEscape}

func (c Chord) String() string {
	return c.Mods.String() + " (cancel: " + c.Cancel.String() + ")"
}

// ParseChord parses a "+"-separated modifier list such as "ctrl+cmd" and a
// cancel key name such as "escape".
func ParseChord(mods, cancel string) (Chord, error) {
	var c Chord
	for _, part := range strings.Split(mods, "+") {
		name := strings.ToLower(strings.TrimSpace(part))
		m, ok := modNames[name]
		if !ok {
			return Chord{}, fmt.Errorf("unknown modifier %q", part)
		}
		c.Mods |= m
	}
	if c.Mods == 0 {
		return Chord{}, fmt.Errorf("empty chord")
	}

	k, ok := keyNames[strings.ToLower(strings.TrimSpace(cancel))]
	if !ok {
		return Chord{}, fmt.Errorf("unknown cancel key %q", cancel)
	}
	c.Cancel = k
	return c, nil
}
