// Package dictation implements the hold-to-dictate session: it reacts to
// hotkey signals, drives audio capture, gates and transcribes the recording
// and schedules injection of the resulting text.
//
// All session state is owned by the goroutine running Session.Run. Hotkey
// signals, transcription results and fired injection timers reach it through
// a single FIFO mailbox and are handled one at a time.
package dictation

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"go.aimuz.me/vibeflow/audiocapture"
	"go.aimuz.me/vibeflow/hotkey"
	"go.aimuz.me/vibeflow/internal/types"
)

// DefaultInjectDelay lets the OS settle focus after the overlay hides.
const DefaultInjectDelay = 50 * time.Millisecond

// User-facing diagnostics.
const (
	msgNoDevice   = "No microphone found. Connect an input device and try again."
	msgNoAudio    = "No microphone data captured. Check Privacy & Security > Microphone for VibeFlow."
	msgNearSilent = "Microphone signal is near-silent. Re-enable microphone permission and use stable app signing."
)

// Capture records one session of audio.
type Capture interface {
	Start() error
	Stop() error
	RecordedAudio() []float32
}

// Transcriber turns canonical audio into text. Failures are reported as
// empty text.
type Transcriber interface {
	Ready() bool
	Transcribe(ctx context.Context, audio []float32, sampleRate int) string
}

// Formatter optionally rewrites transcribed text.
type Formatter interface {
	Format(ctx context.Context, text string) (string, error)
}

// Injector delivers text to the process with the given pid, or to the
// focused application when pid is 0.
type Injector interface {
	PasteOrType(text string, pid int, mode types.InputMode) error
}

// UI receives overlay changes and diagnostics.
type UI interface {
	ShowOverlay(Overlay)
	// HideOverlayNow hides the overlay without animation.
	HideOverlayNow()
	Notify(message string)
}

// Transcript is a finished, non-empty transcription.
type Transcript struct {
	SessionID string
	Text      string
	Duration  time.Duration
}

// Recorder stores finished transcripts.
type Recorder interface {
	Record(Transcript)
}

// Config wires a Session to its collaborators. Formatter, History, Clock
// and Logger are optional.
type Config struct {
	Capture     Capture
	Transcriber Transcriber
	Formatter   Formatter
	Injector    Injector
	UI          UI
	History     Recorder

	// Frontmost returns the pid of the focused application, 0 if unknown.
	Frontmost func() int
	// InputMode returns the injection mode at the time a session finishes.
	InputMode func() types.InputMode
	// SelfPID defaults to os.Getpid().
	SelfPID int

	Clock       Clock
	InjectDelay time.Duration
	Logger      *slog.Logger
}

// messages handled by the loop
type (
	transcribed struct {
		gen  uint64
		text string
	}
	stateQuery chan State
)

// Session is the dictation state machine.
type Session struct {
	cfg  Config
	log  *slog.Logger
	box  *mailbox
	done chan struct{}

	// Owned by the Run goroutine.
	ctx           context.Context
	state         State
	target        int
	id            string
	gen           uint64
	pendingCancel bool
	duration      time.Duration
}

// New creates a Session. Call Run to start processing signals.
func New(cfg Config) *Session {
	if cfg.SelfPID == 0 {
		cfg.SelfPID = os.Getpid()
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if cfg.InjectDelay == 0 {
		cfg.InjectDelay = DefaultInjectDelay
	}
	if cfg.Frontmost == nil {
		cfg.Frontmost = func() int { return 0 }
	}
	if cfg.InputMode == nil {
		cfg.InputMode = func() types.InputMode { return types.InputPaste }
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		cfg:  cfg,
		log:  log,
		box:  newMailbox(),
		done: make(chan struct{}),
	}
}

// Emit queues a hotkey signal. It never blocks and is safe from any goroutine.
func (s *Session) Emit(sig hotkey.Signal) {
	s.box.post(sig)
}

// Run processes messages until ctx is done. Transcriptions in flight use ctx.
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)
	s.ctx = ctx

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.box.notify:
			for _, msg := range s.box.drain() {
				s.handle(msg)
			}
		}
	}
}

// State returns the current state as seen by the loop, after every message
// queued before the call has been handled. It returns Idle once Run exited.
func (s *Session) State() State {
	reply := make(stateQuery, 1)
	s.box.post(reply)
	select {
	case st := <-reply:
		return st
	case <-s.done:
		return Idle
	}
}

func (s *Session) handle(msg any) {
	switch m := msg.(type) {
	case hotkey.Signal:
		switch m {
		case hotkey.Activate:
			s.activate()
		case hotkey.Deactivate:
			s.deactivate()
		case hotkey.Cancel:
			s.cancel()
		}
	case transcribed:
		s.onTranscribed(m)
	case injectTask:
		s.inject(m)
	case stateQuery:
		m <- s.state
	}
}

func (s *Session) setState(st State) {
	s.log.Debug("state change", "session", s.id, "from", s.state, "to", st)
	s.state = st
}

func (s *Session) activate() {
	if !s.cfg.Transcriber.Ready() {
		s.log.Info("activate ignored, transcription backend not ready")
		return
	}
	if s.state != Idle {
		s.log.Debug("activate ignored", "state", s.state)
		return
	}

	s.id = uuid.NewString()
	s.target = s.cfg.Frontmost()
	if s.target == s.cfg.SelfPID {
		s.target = 0
	}
	s.setState(Recording)
	s.log.Info("recording", "session", s.id, "target", s.target)

	if err := s.cfg.Capture.Start(); err != nil {
		s.log.Error("start capture", "session", s.id, "error", err)
		if errors.Is(err, audiocapture.ErrNoDevice) {
			s.cfg.UI.Notify(msgNoDevice)
		}
	}
	s.cfg.UI.ShowOverlay(OverlayRecording)
}

func (s *Session) deactivate() {
	if s.state != Recording {
		return
	}
	if err := s.cfg.Capture.Stop(); err != nil {
		s.log.Warn("stop capture", "session", s.id, "error", err)
	}
	s.setState(Processing)
	s.cfg.UI.ShowOverlay(OverlayProcessing)
	s.dispatch()
}

func (s *Session) cancel() {
	switch s.state {
	case Recording:
		if err := s.cfg.Capture.Stop(); err != nil {
			s.log.Warn("stop capture", "session", s.id, "error", err)
		}
		s.setState(Idle)
		s.target = 0
		s.cfg.UI.ShowOverlay(OverlayHidden)
		s.log.Info("session cancelled", "session", s.id)
	case Processing:
		// The transcription cannot be aborted; its result is dropped.
		if !s.pendingCancel {
			s.pendingCancel = true
			s.cfg.UI.ShowOverlay(OverlayHidden)
			s.log.Info("session cancelled while transcribing", "session", s.id)
		}
	}
}

// dispatch gates the recording and starts the background transcription.
func (s *Session) dispatch() {
	audio := s.cfg.Capture.RecordedAudio()
	st := measure(audio)
	s.duration = time.Duration(len(audio)) * time.Second / audiocapture.TargetRate
	s.log.Info("audio captured",
		"session", s.id,
		"samples", st.samples,
		"seconds", s.duration.Seconds(),
		"peak", st.peak,
		"rms", st.rms,
	)

	switch gate(st) {
	case gateEmpty:
		s.log.Warn("no audio captured, skipping transcription", "session", s.id)
		s.cfg.UI.Notify(msgNoAudio)
		s.finish("")
		return
	case gateNearSilent:
		s.log.Warn("near-silent capture, skipping transcription", "session", s.id)
		s.cfg.UI.Notify(msgNearSilent)
		s.finish("")
		return
	}

	s.gen++
	gen, id, ctx := s.gen, s.id, s.ctx
	go func() {
		text := s.cfg.Transcriber.Transcribe(ctx, audio, audiocapture.TargetRate)
		if text != "" && s.cfg.Formatter != nil {
			formatted, err := s.cfg.Formatter.Format(ctx, text)
			switch {
			case err != nil:
				s.log.Warn("format transcript", "session", id, "error", err)
			case formatted != "":
				text = formatted
			}
		}
		s.box.post(transcribed{gen: gen, text: text})
	}()
}

func (s *Session) onTranscribed(m transcribed) {
	if s.state != Processing || m.gen != s.gen {
		s.log.Debug("stale transcription dropped", "session", s.id)
		return
	}
	if s.pendingCancel {
		s.pendingCancel = false
		s.setState(Idle)
		s.target = 0
		return
	}
	s.finish(m.text)
}

// finish returns to Idle and schedules injection of non-empty text.
func (s *Session) finish(text string) {
	s.cfg.UI.HideOverlayNow()
	s.setState(Idle)

	if text == "" {
		s.log.Info("nothing to inject", "session", s.id)
	} else {
		task := injectTask{
			text:   withTrailingSpace(text),
			target: s.target,
			mode:   s.cfg.InputMode(),
		}
		s.cfg.Clock.AfterFunc(s.cfg.InjectDelay, func() { s.box.post(task) })

		if s.cfg.History != nil {
			s.cfg.History.Record(Transcript{SessionID: s.id, Text: text, Duration: s.duration})
		}
	}
	s.target = 0
}

func (s *Session) inject(task injectTask) {
	s.log.Info("injecting text", "mode", task.mode, "target", task.target, "chars", len(task.text))
	if err := s.cfg.Injector.PasteOrType(task.text, task.target, task.mode); err != nil {
		s.log.Error("inject text", "mode", task.mode, "error", err)
		s.cfg.UI.Notify(injectFailureMessage(task.mode, err))
	}
}
