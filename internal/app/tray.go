package app

import (
	_ "embed"

	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/vibeflow/internal/types"
)

//go:embed icons/tray.png
var trayIcon []byte

// trayMenu redraws the status line and mode radio.
type trayMenu struct {
	update func(status string, mode types.InputMode)
}

// SetupTray installs the system tray menu. quit is called from the Quit item.
func (s *Service) SetupTray(quit func()) {
	tray := s.app.SystemTray.New()
	tray.SetTemplateIcon(trayIcon)
	tray.SetTooltip("VibeFlow")

	m := s.app.NewMenu()
	status := m.Add("Starting…").SetEnabled(false)
	m.AddSeparator()

	modes := m.AddSubmenu("Input mode")
	paste := modes.AddRadio("Paste", s.InputMode() == types.InputPaste).OnClick(func(*application.Context) {
		s.selectMode(types.InputPaste)
	})
	typ := modes.AddRadio("Type", s.InputMode() == types.InputType).OnClick(func(*application.Context) {
		s.selectMode(types.InputType)
	})

	m.Add("Copy last transcription").OnClick(func(*application.Context) {
		if err := s.CopyLastTranscription(); err != nil {
			s.ui.Notify(err.Error())
		}
	})
	m.Add("Retry input monitoring").OnClick(func(*application.Context) {
		go s.StartInputMonitoring()
	})

	m.AddSeparator()
	m.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(*application.Context) {
			quit()
		})

	tray.SetMenu(m)
	s.tray.Store(&trayMenu{update: func(line string, mode types.InputMode) {
		status.SetLabel(line)
		paste.SetChecked(mode == types.InputPaste)
		typ.SetChecked(mode == types.InputType)
		m.Update()
	}})
	s.refreshTray()
}

func (s *Service) selectMode(m types.InputMode) {
	if err := s.SetInputMode(string(m)); err != nil {
		s.log.Error("save input mode", "error", err)
	}
}

// refreshTray updates the status line and mode radio.
func (s *Service) refreshTray() {
	t := s.tray.Load()
	if t == nil {
		return
	}
	t.update(s.statusLine(), s.InputMode())
}

func (s *Service) statusLine() string {
	switch {
	case !s.monitorRunning():
		return "Hotkey unavailable"
	case !s.stt.Ready():
		return "Preparing transcription…"
	default:
		s.mu.Lock()
		chord := s.cfg.Hotkey.Chord
		s.mu.Unlock()
		return "Hold " + chord + " to dictate"
	}
}
