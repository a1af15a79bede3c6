// Package hotkey watches a global modifier chord and reports
// press/release/cancel gestures as signals.
package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Signal is a logical gesture event.
type Signal uint8

const (
	// Activate is sent when the chord becomes fully held.
	Activate Signal = iota
	// Deactivate is sent when the held chord is released.
	Deactivate
	// Cancel is sent when the cancel key is pressed while the chord is held.
	Cancel
)

func (s Signal) String() string {
	switch s {
	case Activate:
		return "activate"
	case Deactivate:
		return "deactivate"
	case Cancel:
		return "cancel"
	default:
		return fmt.Sprintf("signal(%d)", uint8(s))
	}
}

// Emitter receives signals. Emit is called on the tap thread and must not
// block.
type Emitter interface {
	Emit(Signal)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Signal)

func (f EmitterFunc) Emit(s Signal) { f(s) }

var (
	// ErrPermissionDenied is returned when the process is not allowed to
	// observe global input.
	ErrPermissionDenied = errors.New("input monitoring permission denied")
	// ErrRunning is returned by Start on a running monitor.
	ErrRunning = errors.New("monitor already running")
	// ErrStopTimeout is returned when the observation loop does not exit in time.
	ErrStopTimeout = errors.New("timed out stopping input monitor")
)

const (
	defaultStartTimeout = 2 * time.Second
	defaultStopTimeout  = 2 * time.Second
)

// Monitor owns one observation loop at a time.
type Monitor struct {
	chord        Chord
	newTap       func() Tap
	trusted      func(prompt bool) bool
	startTimeout time.Duration
	stopTimeout  time.Duration
	log          *slog.Logger

	mu       sync.Mutex
	tap      Tap
	done     chan struct{}
	stopping *atomic.Bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithTap replaces the platform tap, mainly for tests.
func WithTap(newTap func() Tap) Option {
	return func(m *Monitor) { m.newTap = newTap }
}

// WithPermission replaces the platform permission check.
func WithPermission(trusted func(prompt bool) bool) Option {
	return func(m *Monitor) { m.trusted = trusted }
}

// WithStopTimeout bounds how long Stop waits for the loop.
func WithStopTimeout(d time.Duration) Option {
	return func(m *Monitor) { m.stopTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// NewMonitor creates a monitor for chord.
func NewMonitor(chord Chord, opts ...Option) *Monitor {
	m := &Monitor{
		chord:        chord,
		newTap:       newPlatformTap,
		trusted:      IsAccessibilityEnabled,
		startTimeout: defaultStartTimeout,
		stopTimeout:  defaultStopTimeout,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start checks input permission (prompting the user if needed) and starts
// the observation loop. Signals go to emit.
func (m *Monitor) Start(emit Emitter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.alive() {
		return ErrRunning
	}
	if m.tap != nil {
		// The previous loop exited on its own.
		m.tap.Stop()
		m.tap, m.done, m.stopping = nil, nil, nil
	}
	if !m.trusted(true) {
		return ErrPermissionDenied
	}

	cls := newClassifier(m.chord)
	tap := m.newTap()
	ready := make(chan error, 1)
	done := make(chan struct{})
	stopping := new(atomic.Bool)
	installed := new(atomic.Bool)

	handler := func(ev RawEvent) Verdict {
		out := cls.classify(ev)
		if out.reenable {
			m.log.Warn("event tap disabled by the system, re-enabling")
			tap.Reenable()
		}
		if out.emit {
			emit.Emit(out.signal)
		}
		return out.verdict
	}

	go func() {
		defer close(done)
		tap.Run(handler, func(err error) {
			installed.Store(err == nil)
			ready <- err
		})
		if installed.Load() && !stopping.Load() {
			m.log.Error("input monitor loop exited, restart input monitoring to recover")
		}
	}()

	select {
	case err := <-ready:
		if err != nil {
			<-done
			return fmt.Errorf("install event tap: %w", err)
		}
	case <-time.After(m.startTimeout):
		stopping.Store(true)
		go func() {
			if err := <-ready; err == nil {
				tap.Stop()
			}
		}()
		return errors.New("install event tap: timed out")
	}

	m.tap, m.done, m.stopping = tap, done, stopping
	m.log.Info("input monitor started", "chord", m.chord.String())
	return nil
}

// Stop ends the observation loop. It is safe to call at any time and waits
// at most the stop timeout.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tap == nil {
		return nil
	}
	tap, done := m.tap, m.done
	m.stopping.Store(true)
	m.tap, m.done, m.stopping = nil, nil, nil

	tap.Stop()
	select {
	case <-done:
		m.log.Info("input monitor stopped")
		return nil
	case <-time.After(m.stopTimeout):
		m.log.Warn("input monitor did not stop in time", "timeout", m.stopTimeout)
		return ErrStopTimeout
	}
}

// Running reports whether the observation loop is installed and has not
// exited on its own.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alive()
}

// alive must be called with mu held.
func (m *Monitor) alive() bool {
	if m.tap == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}
