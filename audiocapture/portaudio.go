package audiocapture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gordonklaus/portaudio"
)

// PortAudio is a Driver backed by the PortAudio library.
type PortAudio struct{}

// NewPortAudio initializes PortAudio. Close must be called to release it.
func NewPortAudio() (*PortAudio, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	return &PortAudio{}, nil
}

// Close terminates PortAudio.
func (p *PortAudio) Close() error {
	return portaudio.Terminate()
}

// DefaultInput returns the system default input device.
func (p *PortAudio) DefaultInput() (Device, error) {
	info, err := portaudio.DefaultInputDevice()
	if err != nil || info == nil || info.MaxInputChannels < 1 {
		return nil, ErrNoDevice
	}
	return &paDevice{info: info}, nil
}

// InputDevices lists devices that can record.
func (p *PortAudio) InputDevices() ([]DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var out []DeviceInfo
	for _, d := range devices {
		if d.MaxInputChannels < 1 {
			continue
		}
		out = append(out, DeviceInfo{
			Name:       d.Name,
			SampleRate: int(d.DefaultSampleRate),
			Channels:   d.MaxInputChannels,
			Default:    def != nil && d.Index == def.Index,
		})
	}
	return out, nil
}

// DeviceInfo describes an input device for listings.
type DeviceInfo struct {
	Name       string
	SampleRate int
	Channels   int
	Default    bool
}

type paDevice struct {
	info *portaudio.DeviceInfo
}

func (d *paDevice) Name() string { return d.info.Name }

func (d *paDevice) params(f Format) portaudio.StreamParameters {
	return portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   d.info,
			Channels: f.Channels,
			Latency:  d.info.DefaultLowInputLatency,
		},
		SampleRate:      float64(f.SampleRate),
		FramesPerBuffer: portaudio.FramesPerBufferUnspecified,
	}
}

func (d *paDevice) Supports(f Format) bool {
	if f.Channels > d.info.MaxInputChannels {
		return false
	}
	var buf any
	switch f.Encoding {
	case Int16:
		buf = make([]int16, f.Channels)
	case Int32:
		buf = make([]int32, f.Channels)
	default:
		buf = make([]float32, f.Channels)
	}
	return portaudio.IsFormatSupported(d.params(f), buf) == nil
}

// Preferred is the device default rate in float32. PortAudio has no notion
// of a preferred channel count, so at most two channels are used.
func (d *paDevice) Preferred() Format {
	return Format{
		SampleRate: int(d.info.DefaultSampleRate),
		Channels:   min(d.info.MaxInputChannels, 2),
		Encoding:   Float32,
	}
}

func (d *paDevice) Open(f Format, onChunk func([]byte)) (Stream, error) {
	var scratch []byte
	grow := func(n int) []byte {
		if cap(scratch) < n {
			scratch = make([]byte, n)
		}
		return scratch[:n]
	}

	var callback any
	switch f.Encoding {
	case Int16:
		callback = func(in []int16) {
			b := grow(len(in) * 2)
			for i, s := range in {
				binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
			}
			onChunk(b)
		}
	case Int32:
		callback = func(in []int32) {
			b := grow(len(in) * 4)
			for i, s := range in {
				binary.LittleEndian.PutUint32(b[i*4:], uint32(s))
			}
			onChunk(b)
		}
	case Float32:
		callback = func(in []float32) {
			b := grow(len(in) * 4)
			for i, s := range in {
				binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(s))
			}
			onChunk(b)
		}
	default:
		return nil, errors.New("unsupported encoding " + f.Encoding.String())
	}

	s, err := portaudio.OpenStream(d.params(f), callback)
	if err != nil {
		return nil, err
	}
	return s, nil
}
