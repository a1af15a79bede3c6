package app

import (
	"log/slog"

	"github.com/gen2brain/beeep"

	"go.aimuz.me/vibeflow/dictation"
)

const notifyTitle = "VibeFlow"

// overlayUI is the dictation.UI backed by the overlay window and desktop
// notifications.
type overlayUI struct {
	emit   func(name string, data any)
	show   func()
	hide   func()
	notify func(title, message string) error
}

func newOverlayUI(emit func(string, any), show, hide func()) *overlayUI {
	return &overlayUI{
		emit: emit,
		show: show,
		hide: hide,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

func (u *overlayUI) ShowOverlay(o dictation.Overlay) {
	u.emit(EventSessionState, SessionState{State: o.String()})
	if o == dictation.OverlayHidden {
		// The frontend fades out and the window hides when it is done.
		return
	}
	u.show()
}

func (u *overlayUI) HideOverlayNow() {
	u.hide()
	u.emit(EventSessionState, SessionState{State: dictation.OverlayHidden.String(), Immediate: true})
}

func (u *overlayUI) Notify(message string) {
	u.emit(EventNotice, Notice{Message: message})
	if err := u.notify(notifyTitle, message); err != nil {
		slog.Warn("desktop notification", "error", err)
	}
}

// level forwards capture loudness to the overlay.
func (u *overlayUI) level(v float32) {
	u.emit(EventAudioLevel, AudioLevel{Level: v})
}
