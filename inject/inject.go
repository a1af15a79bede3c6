// Package inject delivers transcribed text to another application, either by
// pasting through the clipboard or by synthesizing keystrokes.
package inject

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/micmonay/keybd_event"

	"go.aimuz.me/vibeflow/clipboard"
	"go.aimuz.me/vibeflow/focus"
	"go.aimuz.me/vibeflow/internal/types"
)

var (
	// ErrUnsupported is returned for an unknown input mode.
	ErrUnsupported = errors.New("inject: unsupported input mode")
	// ErrClipboard is returned when paste mode cannot put the text on the
	// clipboard.
	ErrClipboard = errors.New("inject: clipboard unavailable")
)

const (
	activateTimeout = 500 * time.Millisecond
	activatePoll    = 20 * time.Millisecond
	// The target reads the clipboard asynchronously after the paste chord.
	clipboardSettle = 80 * time.Millisecond
	restoreDelay    = 120 * time.Millisecond
)

// Clipboard is the clipboard used for paste mode.
type Clipboard interface {
	Save() clipboard.Snapshot
	Write(text string) error
}

type systemClipboard struct{}

func (systemClipboard) Save() clipboard.Snapshot { return clipboard.Save() }
func (systemClipboard) Write(text string) error  { return clipboard.Write(text) }

// Injector implements paste and type injection.
type Injector struct {
	log       *slog.Logger
	clip      Clipboard
	frontmost func() int
	activate  func(pid int) error
	paste     func() error
	typeText  func(text string) error
	sleep     func(time.Duration)
}

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Injector) { i.log = l }
}

// WithClipboard replaces the system clipboard.
func WithClipboard(c Clipboard) Option {
	return func(i *Injector) { i.clip = c }
}

// WithKeyboard replaces the paste chord and the keystroke typer.
func WithKeyboard(paste func() error, typeText func(string) error) Option {
	return func(i *Injector) {
		i.paste = paste
		i.typeText = typeText
	}
}

// WithActivation replaces how a target is brought to the front and how the
// frontmost application is read back.
func WithActivation(activate func(pid int) error, frontmost func() int) Option {
	return func(i *Injector) {
		i.activate = activate
		i.frontmost = frontmost
	}
}

// New returns an Injector driving the real keyboard and clipboard.
func New(opts ...Option) *Injector {
	i := &Injector{
		log:       slog.Default(),
		clip:      systemClipboard{},
		frontmost: focus.Frontmost,
		activate:  activatePID,
		paste:     pressPaste,
		typeText:  typeString,
		sleep:     time.Sleep,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// PasteOrType delivers text to the application with the given pid, or to
// whatever has focus when pid is 0.
func (i *Injector) PasteOrType(text string, pid int, mode types.InputMode) error {
	if mode != types.InputPaste && mode != types.InputType {
		return fmt.Errorf("%w: %q", ErrUnsupported, mode)
	}
	if pid > 0 {
		i.bringToFront(pid)
	}

	switch mode {
	case types.InputType:
		if err := i.typeText(text); err != nil {
			return fmt.Errorf("type text: %w", err)
		}
		return nil
	default:
		return i.pasteText(text)
	}
}

// bringToFront activates pid and waits briefly for it to become frontmost.
// Injection proceeds either way.
func (i *Injector) bringToFront(pid int) {
	if i.frontmost() == pid {
		return
	}
	if err := i.activate(pid); err != nil {
		i.log.Warn("activate target", "pid", pid, "error", err)
		return
	}
	for waited := time.Duration(0); waited < activateTimeout; waited += activatePoll {
		if i.frontmost() == pid {
			return
		}
		i.sleep(activatePoll)
	}
	i.log.Warn("target did not become frontmost", "pid", pid, "timeout", activateTimeout)
}

// pasteText writes text to the clipboard and presses the paste chord. The
// previous clipboard text is restored only after a successful paste, so a
// failed one leaves the transcript on the clipboard.
func (i *Injector) pasteText(text string) error {
	saved := i.clip.Save()
	if err := i.clip.Write(text); err != nil {
		return fmt.Errorf("%w: %w", ErrClipboard, err)
	}
	i.sleep(clipboardSettle)

	if err := i.paste(); err != nil {
		return fmt.Errorf("press paste: %w", err)
	}
	i.sleep(restoreDelay)

	if err := saved.Restore(); err != nil {
		i.log.Warn("restore clipboard", "error", err)
	}
	return nil
}

func activatePID(pid int) error {
	return robotgo.ActivePid(pid)
}

func typeString(text string) error {
	robotgo.TypeStr(text)
	return nil
}

func pressPaste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	kb.SetKeys(keybd_event.VK_V)
	return kb.Launching()
}
