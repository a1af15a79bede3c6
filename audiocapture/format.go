package audiocapture

import (
	"errors"
	"fmt"
)

// TargetRate is the sample rate of canonical audio.
const TargetRate = 16000

// ErrNoDevice is returned when no default input device exists.
var ErrNoDevice = errors.New("no audio input device")

// Encoding is the sample encoding a device delivers.
type Encoding int

const (
	Int16 Encoding = iota
	Int32
	Float32
)

func (e Encoding) String() string {
	switch e {
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("encoding(%d)", int(e))
	}
}

// BytesPerSample returns the width of one sample.
func (e Encoding) BytesPerSample() int {
	if e == Int16 {
		return 2
	}
	return 4
}

// Format describes the live device format of a session.
type Format struct {
	SampleRate int
	Channels   int
	Encoding   Encoding
}

// Canonical is the format tried first: 16 kHz mono int16.
var Canonical = Format{SampleRate: TargetRate, Channels: 1, Encoding: Int16}

// BytesPerFrame returns the width of one interleaved frame.
func (f Format) BytesPerFrame() int {
	return f.Channels * f.Encoding.BytesPerSample()
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %s", f.SampleRate, f.Channels, f.Encoding)
}

// Driver gives access to the platform's default input device.
type Driver interface {
	// DefaultInput returns the default input device or ErrNoDevice.
	DefaultInput() (Device, error)
}

// Device is an input device capable of push-mode capture.
type Device interface {
	Name() string
	// Supports reports whether the device can capture in f.
	Supports(f Format) bool
	// Preferred returns the device's native format.
	Preferred() Format
	// Open prepares a stream that delivers interleaved little-endian
	// chunks in f to onChunk on the driver's audio thread.
	Open(f Format, onChunk func(chunk []byte)) (Stream, error)
}

// Stream is an open capture stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Negotiate picks the capture format for dev.
//
// The canonical format wins when supported. Otherwise the preferred format is
// used, except that an int16 variant at the preferred rate and channel count
// is taken first if the preferred encoding is not already int16.
func Negotiate(dev Device) Format {
	if dev.Supports(Canonical) {
		return Canonical
	}
	pref := dev.Preferred()
	if pref.Encoding != Int16 {
		alt := Format{SampleRate: pref.SampleRate, Channels: pref.Channels, Encoding: Int16}
		if dev.Supports(alt) {
			return alt
		}
	}
	return pref
}
