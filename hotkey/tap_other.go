//go:build !darwin

package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// libuiohook virtual keycodes.
const (
	vcEscape    = 0x0001
	vcBackspace = 0x000E
	vcTab       = 0x000F
	vcEnter     = 0x001C
	vcSpace     = 0x0039
	vcDelete    = 0x0E53

	vcControlL = 0x001D
	vcControlR = 0x0E1D
	vcShiftL   = 0x002A
	vcShiftR   = 0x0036
	vcAltL     = 0x0038
	vcAltR     = 0x0E38
	vcMetaL    = 0x0E5B
	vcMetaR    = 0x0E5C
)

var hookModifiers = map[uint16]Modifiers{
	vcControlL: ModCtrl,
	vcControlR: ModCtrl,
	vcShiftL:   ModShift,
	vcShiftR:   ModShift,
	vcAltL:     ModAlt,
	vcAltR:     ModAlt,
	vcMetaL:    ModCmd,
	vcMetaR:    ModCmd,
}

var hookKeys = map[uint16]Key{
	vcEscape:    KeyEscape,
	vcBackspace: KeyBackspace,
	vcTab:       KeyTab,
	vcEnter:     KeyReturn,
	vcSpace:     KeySpace,
	vcDelete:    KeyDelete,
}

// IsAccessibilityEnabled always reports true; libuiohook needs no
// authorization outside macOS.
func IsAccessibilityEnabled(prompt bool) bool {
	return true
}

// hookTap observes input through gohook. libuiohook cannot swallow events,
// so a Consume verdict still lets the key reach other applications.
type hookTap struct {
	stopOnce sync.Once
	stop     chan struct{}
	restart  chan struct{}

	// pressed is only touched on the Run goroutine.
	pressed map[uint16]bool
}

func newPlatformTap() Tap {
	return &hookTap{
		stop:    make(chan struct{}),
		restart: make(chan struct{}, 1),
		pressed: make(map[uint16]bool),
	}
}

func (t *hookTap) Run(handler func(RawEvent) Verdict, ready func(error)) {
	events := hook.Start()
	ready(nil)

	for {
		select {
		case <-t.stop:
			hook.End()
			return
		case <-t.restart:
			hook.End()
			clear(t.pressed)
			events = hook.Start()
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.dispatch(ev, handler)
		}
	}
}

func (t *hookTap) dispatch(ev hook.Event, handler func(RawEvent) Verdict) {
	switch ev.Kind {
	case hook.HookDisabled:
		handler(RawEvent{Kind: TapDisabled})
	case hook.KeyHold:
		if _, ok := hookModifiers[ev.Keycode]; ok {
			if t.pressed[ev.Keycode] {
				return // auto-repeat
			}
			t.pressed[ev.Keycode] = true
			handler(RawEvent{Kind: FlagsChanged, Mods: t.mods()})
			return
		}
		handler(RawEvent{Kind: KeyDown, Mods: t.mods(), Key: hookKeys[ev.Keycode]})
	case hook.KeyUp:
		if _, ok := hookModifiers[ev.Keycode]; ok {
			delete(t.pressed, ev.Keycode)
			handler(RawEvent{Kind: FlagsChanged, Mods: t.mods()})
		}
	}
}

func (t *hookTap) mods() Modifiers {
	var m Modifiers
	for code := range t.pressed {
		m |= hookModifiers[code]
	}
	return m
}

func (t *hookTap) Reenable() {
	select {
	case t.restart <- struct{}{}:
	default:
	}
}

func (t *hookTap) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
