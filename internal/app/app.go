// Package app provides the core application service for Wails bindings.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/vibeflow/audiocapture"
	"go.aimuz.me/vibeflow/clipboard"
	"go.aimuz.me/vibeflow/config"
	"go.aimuz.me/vibeflow/dictation"
	"go.aimuz.me/vibeflow/focus"
	"go.aimuz.me/vibeflow/history"
	"go.aimuz.me/vibeflow/hotkey"
	"go.aimuz.me/vibeflow/inject"
	"go.aimuz.me/vibeflow/internal/types"
	"go.aimuz.me/vibeflow/llm"
	"go.aimuz.me/vibeflow/stt"
)

// Service provides application functionality bound to Wails.
// It wires the dictation session to its collaborators.
type Service struct {
	cfgPath string
	version string
	log     *slog.Logger

	// UI references - set via Init
	app     *application.App
	overlay application.Window
	tray    atomic.Pointer[trayMenu]

	mu  sync.Mutex
	cfg *config.Config

	mode     atomic.Value // types.InputMode
	ui       *overlayUI
	pa       *audiocapture.PortAudio
	capture  *audiocapture.Capture
	stt      *stt.Service
	registry *stt.Registry
	history  historyStore
	session  *dictation.Session

	monMu       sync.Mutex
	monitor     *hotkey.Monitor
	monitorOpts []hotkey.Option // appended to the defaults, for tests

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown sync.Once
}

// New creates a new Service. Call Init() after the Wails app is created.
func New(cfgPath, version string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{cfgPath: cfgPath, version: version, log: log}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init builds every collaborator and starts dictation. It must be called
// after the Wails application and the overlay window exist.
func (s *Service) Init(app *application.App, overlay application.Window) error {
	s.app = app
	s.overlay = overlay
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cfg, err := config.Load(s.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", s.cfgPath, err)
	}
	s.cfg = cfg
	s.mode.Store(cfg.Injection.Mode)

	s.ui = newOverlayUI(s.emit, s.showOverlay, s.hideOverlay)

	pa, err := audiocapture.NewPortAudio()
	if err != nil {
		return fmt.Errorf("init audio: %w", err)
	}
	s.pa = pa
	s.capture = audiocapture.New(pa,
		audiocapture.WithLogger(s.log.With("component", "capture")),
		audiocapture.WithLevelSink(s.ui.level),
	)

	s.stt, s.registry, err = NewTranscription(cfg, s.log.With("component", "stt"))
	if err != nil {
		return err
	}

	s.setupHistory(cfg.History)

	var capture dictation.Capture = s.capture
	if cfg.Audio.DumpDir != "" {
		capture = newDumpingCapture(s.capture, cfg.Audio.DumpDir, s.log.With("component", "dump"))
		s.log.Info("dumping session audio", "dir", cfg.Audio.DumpDir)
	}

	dcfg := dictation.Config{
		Capture:     capture,
		Transcriber: s.stt,
		Injector:    inject.New(inject.WithLogger(s.log.With("component", "inject"))),
		UI:          s.ui,
		Frontmost:   focus.Frontmost,
		InputMode:   s.InputMode,
		Logger:      s.log.With("component", "dictation"),
	}
	if f := s.newFormatter(cfg.Formatting); f != nil {
		dcfg.Formatter = f
	}
	if s.history != nil {
		dcfg.History = newHistoryRecorder(s.history, s.providerName, s.log.With("component", "history"))
	}
	s.session = dictation.New(dcfg)

	s.goRun(s.session.Run)
	s.goRun(s.setupProvider)
	s.goRun(s.watchConfig)

	s.StartInputMonitoring()
	return nil
}

func (s *Service) goRun(f func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		f(s.ctx)
	}()
}

func (s *Service) setupHistory(cfg config.History) {
	if !cfg.Enabled {
		return
	}
	dir, err := config.Dir()
	if err != nil {
		s.log.Error("history dir", "error", err)
		return
	}
	store, err := history.Open(filepath.Join(dir, "history"), history.Options{
		MaxEntries: cfg.MaxEntries,
		Retention:  cfg.Retention,
		Logger:     s.log.With("component", "history"),
	})
	if err != nil {
		s.log.Error("open history", "error", err)
		return
	}
	s.history = store
}

func (s *Service) newFormatter(cfg config.Formatting) dictation.Formatter {
	if !cfg.Enabled {
		return nil
	}
	mode, err := llm.ParseMode(cfg.Mode)
	if err != nil {
		s.log.Warn("formatting disabled", "error", err)
		return nil
	}
	return llm.NewFormatter(llm.NewCompleter(cfg.Provider), llm.FormatterConfig{
		Mode:          mode,
		StrictPrompt:  cfg.PromptStrict,
		TypoFixPrompt: cfg.PromptTypoFix,
		Logger:        s.log.With("component", "llm"),
	})
}

// Shutdown cleans up resources. Only the first call has an effect.
func (s *Service) Shutdown() {
	s.shutdown.Do(s.close)
}

func (s *Service) close() {
	s.monMu.Lock()
	if s.monitor != nil {
		if err := s.monitor.Stop(); err != nil {
			s.log.Warn("stop input monitor", "error", err)
		}
	}
	s.monMu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	if s.capture != nil {
		_ = s.capture.Stop()
	}
	if s.pa != nil {
		if err := s.pa.Close(); err != nil {
			s.log.Warn("close audio", "error", err)
		}
	}
	if s.registry != nil {
		if err := s.registry.Close(); err != nil {
			s.log.Warn("close transcription providers", "error", err)
		}
	}
	if s.history != nil {
		if err := s.history.Close(); err != nil {
			s.log.Error("close history", "error", err)
		}
	}
}

// StartInputMonitoring (re)starts the global hotkey monitor with the current
// chord. On permission denial dictation stays inert until this is called
// again.
func (s *Service) StartInputMonitoring() {
	running, err := s.restartMonitor()
	switch {
	case errors.Is(err, hotkey.ErrPermissionDenied):
		s.log.Warn("input monitoring permission denied")
		s.ui.Notify("VibeFlow needs Input Monitoring and Accessibility permission. Grant it in System Settings, then choose Retry input monitoring.")
	case err != nil:
		s.log.Error("start input monitor", "error", err)
		s.ui.Notify("Could not start the hotkey listener: " + err.Error())
	}

	state := InputMonitor{Running: running}
	if err != nil {
		state.Error = err.Error()
	}
	s.emit(EventInputMonitor, state)
	s.refreshTray()
}

// restartMonitor replaces the monitor under monMu. Nothing that may take
// monMu again runs while it is held.
func (s *Service) restartMonitor() (bool, error) {
	s.mu.Lock()
	cfg := s.cfg.Hotkey
	s.mu.Unlock()

	chord, err := hotkey.ParseChord(cfg.Chord, cfg.Cancel)
	if err != nil {
		s.log.Error("parse chord, using default", "chord", cfg.Chord, "error", err)
		chord = hotkey.DefaultChord
	}

	s.monMu.Lock()
	defer s.monMu.Unlock()

	if s.monitor != nil {
		if err := s.monitor.Stop(); err != nil {
			s.log.Warn("stop input monitor", "error", err)
		}
	}
	opts := append([]hotkey.Option{hotkey.WithLogger(s.log.With("component", "hotkey"))}, s.monitorOpts...)
	s.monitor = hotkey.NewMonitor(chord, opts...)

	err = s.monitor.Start(s.session)
	return s.monitor.Running(), err
}

func (s *Service) monitorRunning() bool {
	s.monMu.Lock()
	defer s.monMu.Unlock()
	return s.monitor != nil && s.monitor.Running()
}

// InputMode returns the current injection mode.
func (s *Service) InputMode() types.InputMode {
	return s.mode.Load().(types.InputMode)
}

// SetInputMode changes the injection mode and persists it.
func (s *Service) SetInputMode(mode string) error {
	m, err := types.ParseInputMode(mode)
	if err != nil {
		return err
	}
	s.mode.Store(m)

	s.mu.Lock()
	s.cfg.Injection.Mode = m
	cfg := *s.cfg
	s.mu.Unlock()

	s.log.Info("input mode changed", "mode", m)
	return cfg.Save(s.cfgPath)
}

// RecentTranscriptions returns up to n history entries, newest first.
func (s *Service) RecentTranscriptions(n int) ([]types.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(n)
}

// ClearHistory deletes every stored transcription.
func (s *Service) ClearHistory() error {
	if s.history == nil {
		return nil
	}
	return s.history.Clear()
}

// CopyLastTranscription puts the newest transcription on the clipboard.
func (s *Service) CopyLastTranscription() error {
	if s.history == nil {
		return errors.New("history is disabled")
	}
	last, ok, err := s.history.Last()
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if !ok {
		return errors.New("no transcriptions yet")
	}
	return clipboard.Write(last.Text)
}

// SessionState returns the dictation state.
func (s *Service) SessionState() string {
	return s.session.State().String()
}

// HideOverlay is called by the frontend once its fade-out finishes.
func (s *Service) HideOverlay() {
	s.hideOverlay()
}

func (s *Service) providerName() string {
	if p := s.stt.Provider(); p != nil {
		return p.Name()
	}
	return ""
}

func (s *Service) watchConfig(ctx context.Context) {
	err := config.Watch(ctx, s.cfgPath, s.log.With("component", "config"), s.applyConfig)
	if err != nil {
		s.log.Warn("config watch disabled", "error", err)
	}
}

// applyConfig applies the settings that can change without a restart. A new
// chord takes effect on the next monitor restart.
func (s *Service) applyConfig(cfg *config.Config) {
	s.mu.Lock()
	old := s.cfg
	s.cfg = cfg
	s.mu.Unlock()

	s.mode.Store(cfg.Injection.Mode)
	t := cfg.Transcription
	s.stt.SetLanguage(t.Language, t.Languages)
	s.stt.SetVocabulary(t.Vocabulary)

	if old.Hotkey != cfg.Hotkey {
		s.log.Info("hotkey changed, choose Retry input monitoring to apply", "chord", cfg.Hotkey.Chord)
	}
	s.refreshTray()
}

// emit is a safe wrapper around app.Event.Emit
func (s *Service) emit(name string, data any) {
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
}

func (s *Service) showOverlay() {
	if s.overlay != nil {
		s.overlay.Show()
	}
}

func (s *Service) hideOverlay() {
	if s.overlay != nil {
		s.overlay.Hide()
	}
}
