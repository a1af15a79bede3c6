package hotkey

// Tap is a platform event source. Run owns the observation loop: it calls
// ready once the tap is installed (or failed to install), delivers events to
// handler on its own thread and returns after Stop.
type Tap interface {
	Run(handler func(RawEvent) Verdict, ready func(error))
	// Reenable switches the tap back on after a TapDisabled event. It is
	// called from within handler.
	Reenable()
	// Stop makes Run return. It may be called from any goroutine.
	Stop()
}
