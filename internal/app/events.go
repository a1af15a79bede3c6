package app

// Event names for frontend communication.
const (
	EventSessionState  = "session-state"
	EventAudioLevel    = "audio-level"
	EventNotice        = "notice"
	EventSetupProgress = "setup-progress"
	EventInputMonitor  = "input-monitor"
)

// SessionState is the overlay state pushed to the frontend.
type SessionState struct {
	State string `json:"state"` // hidden, recording or processing
	// Immediate asks the overlay to skip its fade-out.
	Immediate bool `json:"immediate,omitempty"`
}

// AudioLevel is one loudness sample in [0,1].
type AudioLevel struct {
	Level float32 `json:"level"`
}

// Notice is a user-facing diagnostic.
type Notice struct {
	Message string `json:"message"`
}

// SetupProgress reports a transcription provider's setup.
type SetupProgress struct {
	Provider string `json:"provider"`
	Percent  int    `json:"percent"`
	Ready    bool   `json:"ready"`
	Error    string `json:"error,omitempty"`
}

// InputMonitor reports whether global input observation is running.
type InputMonitor struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}
