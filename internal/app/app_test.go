package app

import (
	"bytes"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.aimuz.me/vibeflow/config"
	"go.aimuz.me/vibeflow/dictation"
	"go.aimuz.me/vibeflow/history"
	"go.aimuz.me/vibeflow/hotkey"
	"go.aimuz.me/vibeflow/internal/types"
	"go.aimuz.me/vibeflow/internal/wavfile"
	"go.aimuz.me/vibeflow/stt"
)

type emitted struct {
	name string
	data any
}

type fakeShell struct {
	events []emitted
	shows  int
	hides  int
	notes  []string
}

func (f *fakeShell) ui() *overlayUI {
	u := newOverlayUI(
		func(name string, data any) { f.events = append(f.events, emitted{name, data}) },
		func() { f.shows++ },
		func() { f.hides++ },
	)
	u.notify = func(_, msg string) error {
		f.notes = append(f.notes, msg)
		return nil
	}
	return u
}

func TestOverlayUI(t *testing.T) {
	f := &fakeShell{}
	u := f.ui()

	u.ShowOverlay(dictation.OverlayRecording)
	u.level(0.5)
	u.ShowOverlay(dictation.OverlayProcessing)
	u.HideOverlayNow()
	u.ShowOverlay(dictation.OverlayHidden)

	if f.shows != 2 || f.hides != 1 {
		t.Errorf("shows=%d hides=%d, want 2 and 1", f.shows, f.hides)
	}

	want := []emitted{
		{EventSessionState, SessionState{State: "recording"}},
		{EventAudioLevel, AudioLevel{Level: 0.5}},
		{EventSessionState, SessionState{State: "processing"}},
		{EventSessionState, SessionState{State: "hidden", Immediate: true}},
		{EventSessionState, SessionState{State: "hidden"}},
	}
	if len(f.events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(f.events), len(want), f.events)
	}
	for i := range want {
		if f.events[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, f.events[i], want[i])
		}
	}
}

func TestOverlayUINotify(t *testing.T) {
	f := &fakeShell{}
	u := f.ui()
	u.notify = func(_, msg string) error {
		f.notes = append(f.notes, msg)
		return errors.New("no notification daemon")
	}

	u.Notify("No microphone found.")
	if len(f.notes) != 1 || f.notes[0] != "No microphone found." {
		t.Errorf("notes = %v", f.notes)
	}
	if len(f.events) != 1 || f.events[0] != (emitted{EventNotice, Notice{Message: "No microphone found."}}) {
		t.Errorf("events = %+v", f.events)
	}
}

type stubCapture struct{ audio []float32 }

func (c *stubCapture) Start() error              { return nil }
func (c *stubCapture) Stop() error               { return nil }
func (c *stubCapture) RecordedAudio() []float32 { return c.audio }

func TestDumpingCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	audio := make([]float32, 1600)
	for i := range audio {
		audio[i] = 0.25
	}

	d := newDumpingCapture(&stubCapture{audio: audio}, dir, slog.Default())
	d.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	d.write = func(f func()) { f() }

	got := d.RecordedAudio()
	if len(got) != len(audio) {
		t.Fatalf("RecordedAudio returned %d samples, want %d", len(got), len(audio))
	}

	clip, err := wavfile.ReadFile(filepath.Join(dir, "session-20260304-050607.000.wav"))
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if clip.SampleRate != 16000 || clip.Channels != 1 || len(clip.Samples) != len(audio) {
		t.Errorf("dump = %d Hz, %d ch, %d samples", clip.SampleRate, clip.Channels, len(clip.Samples))
	}
}

func TestDumpingCaptureSkipsEmpty(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	d := newDumpingCapture(&stubCapture{}, dir, slog.Default())
	called := false
	d.write = func(func()) { called = true }

	if got := d.RecordedAudio(); len(got) != 0 {
		t.Errorf("got %d samples", len(got))
	}
	if called {
		t.Error("empty audio dumped")
	}
}

func TestHistoryRecorder(t *testing.T) {
	store, err := history.OpenInMemory(history.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	r := newHistoryRecorder(store, func() string { return "whisper-local" }, slog.Default())
	r.async = func(f func()) { f() }

	r.Record(dictation.Transcript{SessionID: "abc", Text: "hello world", Duration: 1500 * time.Millisecond})

	last, ok, err := store.Last()
	if err != nil || !ok {
		t.Fatalf("Last = %v, %v", ok, err)
	}
	if last.ID != "abc" || last.Text != "hello world" || last.Provider != "whisper-local" || last.Duration != 1500*time.Millisecond {
		t.Errorf("entry = %+v", last)
	}
}

type failingStore struct{ historyStore }

func (failingStore) Add(types.HistoryEntry) (types.HistoryEntry, error) {
	return types.HistoryEntry{}, errors.New("disk full")
}

func TestHistoryRecorderLogsThroughComponent(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil)).With("component", "history")

	r := newHistoryRecorder(failingStore{}, func() string { return "" }, log)
	r.async = func(f func()) { f() }
	r.Record(dictation.Transcript{SessionID: "abc", Text: "hi"})

	out := buf.String()
	if !strings.Contains(out, "record history") || !strings.Contains(out, "component=history") {
		t.Errorf("log output = %q", out)
	}
}

type idleTap struct {
	stop chan struct{}
	once sync.Once
}

func newIdleTap() *idleTap { return &idleTap{stop: make(chan struct{})} }

func (tp *idleTap) Run(_ func(hotkey.RawEvent) hotkey.Verdict, ready func(error)) {
	ready(nil)
	<-tp.stop
}

func (tp *idleTap) Reenable() {}

func (tp *idleTap) Stop() { tp.once.Do(func() { close(tp.stop) }) }

// within fails the test if f does not return in time.
func within(t *testing.T, name string, f func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("%s did not return", name)
	}
}

func TestRetryInputMonitoringWithTray(t *testing.T) {
	var granted atomic.Bool
	shell := &fakeShell{}

	s := New("", "test", slog.Default())
	s.cfg = config.Default()
	s.mode.Store(types.InputPaste)
	s.ui = shell.ui()
	s.stt = stt.NewService(stt.ServiceConfig{})
	s.monitorOpts = []hotkey.Option{
		hotkey.WithPermission(func(bool) bool { return granted.Load() }),
		hotkey.WithTap(func() hotkey.Tap { return newIdleTap() }),
	}

	var (
		mu    sync.Mutex
		lines []string
	)
	s.tray.Store(&trayMenu{update: func(line string, mode types.InputMode) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
	}})

	within(t, "StartInputMonitoring (denied)", s.StartInputMonitoring)
	if s.monitorRunning() {
		t.Error("monitor running without permission")
	}
	if len(shell.notes) != 1 {
		t.Errorf("notes = %v, want one permission notice", shell.notes)
	}

	granted.Store(true)
	within(t, "StartInputMonitoring (granted)", s.StartInputMonitoring)
	if !s.monitorRunning() {
		t.Error("monitor not running after retry")
	}

	within(t, "refreshTray", s.refreshTray)
	within(t, "Shutdown", s.Shutdown)
	if s.monitorRunning() {
		t.Error("monitor running after Shutdown")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"Hotkey unavailable", "Preparing transcription…", "Preparing transcription…"}
	if len(lines) != len(want) {
		t.Fatalf("tray lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("tray line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
