package hotkey

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeTap struct {
	createErr error
	hang      bool

	mu        sync.Mutex
	handler   func(RawEvent) Verdict
	stop      chan struct{}
	stopOnce  sync.Once
	reenabled atomic.Int32
}

func newFakeTap() *fakeTap {
	return &fakeTap{stop: make(chan struct{})}
}

func (f *fakeTap) Run(handler func(RawEvent) Verdict, ready func(error)) {
	if f.createErr != nil {
		ready(f.createErr)
		return
	}
	f.mu.Lock()
	f.handler = handler
	f.mu.Unlock()
	ready(nil)

	<-f.stop
	if f.hang {
		select {}
	}
}

func (f *fakeTap) Reenable() { f.reenabled.Add(1) }

func (f *fakeTap) Stop() { f.stopOnce.Do(func() { close(f.stop) }) }

func (f *fakeTap) send(ev RawEvent) Verdict {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	return h(ev)
}

type recorder struct {
	mu      sync.Mutex
	signals []Signal
}

func (r *recorder) Emit(s Signal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
}

func (r *recorder) got() []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Signal(nil), r.signals...)
}

func trusted(bool) bool   { return true }
func untrusted(bool) bool { return false }

func TestStartPermissionDenied(t *testing.T) {
	tap := newFakeTap()
	m := NewMonitor(DefaultChord, WithPermission(untrusted), WithTap(func() Tap { return tap }))

	if err := m.Start(&recorder{}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if m.Running() {
		t.Error("monitor running after permission failure")
	}
	if err := m.Stop(); err != nil {
		t.Errorf("Stop after failed Start: %v", err)
	}
}

func TestStartTapFailure(t *testing.T) {
	tap := newFakeTap()
	tap.createErr = errors.New("no tap")
	m := NewMonitor(DefaultChord, WithPermission(trusted), WithTap(func() Tap { return tap }))

	if err := m.Start(&recorder{}); err == nil {
		t.Fatal("expected error")
	}
	if m.Running() {
		t.Error("monitor running after tap failure")
	}
}

func TestMonitorSignals(t *testing.T) {
	tap := newFakeTap()
	m := NewMonitor(DefaultChord, WithPermission(trusted), WithTap(func() Tap { return tap }))

	rec := &recorder{}
	if err := m.Start(rec); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	if err := m.Start(rec); !errors.Is(err, ErrRunning) {
		t.Errorf("second Start: expected ErrRunning, got %v", err)
	}

	tap.send(flags(ModCtrl | ModCmd))
	if v := tap.send(key(KeyEscape, ModCtrl|ModCmd)); v != Consume {
		t.Errorf("escape verdict = %v, want Consume", v)
	}
	tap.send(flags(0))
	tap.send(flags(ModCtrl | ModCmd))
	tap.send(RawEvent{Kind: TapDisabled})
	tap.send(flags(0))

	want := []Signal{Activate, Cancel, Activate, Deactivate}
	got := rec.got()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("signal %d = %v, want %v", i, got[i], want[i])
		}
	}
	if n := tap.reenabled.Load(); n != 1 {
		t.Errorf("reenabled %d times, want 1", n)
	}
}

func TestStopIdempotent(t *testing.T) {
	tap := newFakeTap()
	m := NewMonitor(DefaultChord, WithPermission(trusted), WithTap(func() Tap { return tap }))

	if err := m.Start(&recorder{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("double Stop: %v", err)
	}
	if m.Running() {
		t.Error("monitor still running")
	}
}

func TestStopBounded(t *testing.T) {
	tap := newFakeTap()
	tap.hang = true
	m := NewMonitor(DefaultChord,
		WithPermission(trusted),
		WithTap(func() Tap { return tap }),
		WithStopTimeout(50*time.Millisecond),
	)

	if err := m.Start(&recorder{}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	start := time.Now()
	if err := m.Stop(); !errors.Is(err, ErrStopTimeout) {
		t.Fatalf("expected ErrStopTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stop took %v", elapsed)
	}

	// The hung loop is abandoned and later calls are no-ops.
	if err := m.Stop(); err != nil {
		t.Errorf("Stop after timeout: %v", err)
	}
}

func TestLoopExitStopsRunning(t *testing.T) {
	taps := []*fakeTap{newFakeTap(), newFakeTap()}
	var created atomic.Int32
	m := NewMonitor(DefaultChord, WithPermission(trusted), WithTap(func() Tap {
		return taps[created.Add(1)-1]
	}))

	if err := m.Start(&recorder{}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !m.Running() {
		t.Fatal("monitor not running after Start")
	}

	// The platform loop ends without Stop being called.
	taps[0].Stop()
	deadline := time.Now().Add(2 * time.Second)
	for m.Running() {
		if time.Now().After(deadline) {
			t.Fatal("Running still true after the loop exited")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := m.Start(&recorder{}); err != nil {
		t.Fatalf("restart after loop exit: %v", err)
	}
	defer m.Stop()
	if !m.Running() {
		t.Error("monitor not running after restart")
	}
	if n := created.Load(); n != 2 {
		t.Errorf("created %d taps, want 2", n)
	}
}

func TestSignalString(t *testing.T) {
	tests := []struct {
		s    Signal
		want string
	}{
		{Activate, "activate"},
		{Deactivate, "deactivate"},
		{Cancel, "cancel"},
		{Signal(9), "signal(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
}
