//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework ApplicationServices -framework CoreFoundation

#include <stdbool.h>
#include <stdint.h>

typedef struct vfTap vfTap;

extern vfTap *vfTapCreate(uintptr_t handle);
extern void vfTapRun(vfTap *t);
extern void vfTapStop(vfTap *t);
extern void vfTapEnable(vfTap *t);
extern void vfTapRelease(vfTap *t);
extern bool vfAccessibilityTrusted(bool prompt);
*/
import "C"

import (
	"errors"
	"runtime"
	"runtime/cgo"
	"sync"
)

// CGEventFlags masks.
const (
	flagShift   = 1 << 17
	flagControl = 1 << 18
	flagAlt     = 1 << 19
	flagCommand = 1 << 20
)

// Virtual keycodes from HIToolbox Events.h.
var macKeys = map[int64]Key{
	53:  KeyEscape,
	49:  KeySpace,
	48:  KeyTab,
	36:  KeyReturn,
	51:  KeyBackspace,
	117: KeyDelete,
}

// Event kinds passed from eventtap_darwin.c.
const (
	cKindFlags    = 0
	cKindKeyDown  = 1
	cKindDisabled = 2
)

// IsAccessibilityEnabled reports whether the process is trusted for
// Accessibility, optionally showing the system prompt.
func IsAccessibilityEnabled(prompt bool) bool {
	return bool(C.vfAccessibilityTrusted(C.bool(prompt)))
}

//export goTapEvent
func goTapEvent(handle C.uintptr_t, kind C.int, flags C.uint64_t, keycode C.int64_t) C.int {
	handler := cgo.Handle(handle).Value().(func(RawEvent) Verdict)

	var ev RawEvent
	switch kind {
	case cKindDisabled:
		ev.Kind = TapDisabled
	case cKindFlags:
		ev.Kind = FlagsChanged
	case cKindKeyDown:
		ev.Kind = KeyDown
		ev.Key = macKeys[int64(keycode)]
	default:
		return 0
	}
	ev.Mods = macModifiers(uint64(flags))

	if handler(ev) == Consume {
		return 1
	}
	return 0
}

func macModifiers(flags uint64) Modifiers {
	var m Modifiers
	if flags&flagControl != 0 {
		m |= ModCtrl
	}
	if flags&flagShift != 0 {
		m |= ModShift
	}
	if flags&flagAlt != 0 {
		m |= ModAlt
	}
	if flags&flagCommand != 0 {
		m |= ModCmd
	}
	return m
}

// eventTap is a CGEventTap on a dedicated, locked OS thread with its own
// run loop.
type eventTap struct {
	mu  sync.Mutex
	ref *C.vfTap
}

func newPlatformTap() Tap {
	return &eventTap{}
}

func (t *eventTap) Run(handler func(RawEvent) Verdict, ready func(error)) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h := cgo.NewHandle(handler)
	defer h.Delete()

	ref := C.vfTapCreate(C.uintptr_t(h))
	if ref == nil {
		ready(errors.New("CGEventTapCreate failed"))
		return
	}

	t.mu.Lock()
	t.ref = ref
	t.mu.Unlock()
	ready(nil)

	C.vfTapRun(ref)

	t.mu.Lock()
	t.ref = nil
	t.mu.Unlock()
	C.vfTapRelease(ref)
}

func (t *eventTap) Reenable() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ref != nil {
		C.vfTapEnable(t.ref)
	}
}

func (t *eventTap) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ref != nil {
		C.vfTapStop(t.ref)
	}
}
