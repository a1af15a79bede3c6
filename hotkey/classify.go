package hotkey

// EventKind is the kind of raw event a tap delivers.
type EventKind uint8

const (
	// FlagsChanged reports the full modifier state after a change.
	FlagsChanged EventKind = iota
	// KeyDown reports a non-modifier key press.
	KeyDown
	// TapDisabled reports that the platform switched the tap off.
	TapDisabled
)

// RawEvent is a keyboard event translated out of the platform format.
type RawEvent struct {
	Kind EventKind
	Mods Modifiers
	Key  Key
}

// Verdict tells the tap whether to forward an event to other applications.
type Verdict uint8

const (
	Pass Verdict = iota
	Consume
)

// outcome is what the classifier decided for one raw event.
type outcome struct {
	signal   Signal
	emit     bool
	verdict  Verdict
	reenable bool
}

// classifier turns raw events into signals. It is only used from the tap
// thread.
type classifier struct {
	chord  Chord
	active bool
	// latched is set after a cancel until the chord is fully released, so a
	// still-held chord does not reopen a session on the next flags change.
	latched bool
}

func newClassifier(c Chord) *classifier {
	return &classifier{chord: c}
}

func (c *classifier) classify(ev RawEvent) outcome {
	switch ev.Kind {
	case TapDisabled:
		return outcome{reenable: true}

	case FlagsChanged:
		held := ev.Mods&c.chord.Mods == c.chord.Mods
		switch {
		case !held:
			c.latched = false
			if c.active {
				c.active = false
				return outcome{signal: Deactivate, emit: true}
			}
		case !c.active && !c.latched:
			c.active = true
			return outcome{signal: Activate, emit: true}
		}

	case KeyDown:
		if c.active && ev.Key == c.chord.Cancel {
			c.active = false
			c.latched = true
			return outcome{signal: Cancel, emit: true, verdict: Consume}
		}
	}
	return outcome{}
}
