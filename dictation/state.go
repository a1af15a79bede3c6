package dictation

import "fmt"

// State is the session state.
type State uint8

const (
	Idle State = iota
	Recording
	Processing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Overlay is the coarse state shown by the UI.
type Overlay uint8

const (
	OverlayHidden Overlay = iota
	OverlayRecording
	OverlayProcessing
)

func (o Overlay) String() string {
	switch o {
	case OverlayHidden:
		return "hidden"
	case OverlayRecording:
		return "recording"
	case OverlayProcessing:
		return "processing"
	default:
		return fmt.Sprintf("overlay(%d)", uint8(o))
	}
}
