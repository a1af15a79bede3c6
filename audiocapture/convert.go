package audiocapture

import (
	"encoding/binary"
	"math"
)

// Decode converts interleaved raw bytes to float samples in [-1, 1].
// A trailing partial sample is ignored.
func Decode(raw []byte, enc Encoding) []float32 {
	width := enc.BytesPerSample()
	n := len(raw) / width
	out := make([]float32, n)
	for i := range n {
		b := raw[i*width:]
		switch enc {
		case Int16:
			out[i] = float32(int16(binary.LittleEndian.Uint16(b))) / 32768
		case Int32:
			out[i] = float32(float64(int32(binary.LittleEndian.Uint32(b))) / (1 << 31))
		case Float32:
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b))
		}
	}
	return out
}

// Downmix averages interleaved channels into mono. Incomplete trailing
// frames are dropped.
func Downmix(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := range channels {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// Resample converts mono samples at rate to TargetRate by linear
// interpolation. Output index i reads source position i*rate/TargetRate,
// interpolating between the floor and ceiling frames with the ceiling clamped
// to the last frame.
func Resample(samples []float32, rate int) []float32 {
	if rate == TargetRate || rate <= 0 || len(samples) == 0 {
		return samples
	}
	ratio := float64(rate) / TargetRate
	n := int(int64(len(samples)) * TargetRate / int64(rate))
	last := len(samples) - 1
	out := make([]float32, n)
	for i := range n {
		pos := float64(i) * ratio
		lo := int(pos)
		if lo > last {
			lo = last
		}
		hi := min(lo+1, last)
		frac := float32(pos - float64(lo))
		out[i] = samples[lo] + (samples[hi]-samples[lo])*frac
	}
	return out
}

// Convert turns a raw capture in f into canonical audio.
func Convert(raw []byte, f Format) []float32 {
	if len(raw) == 0 {
		return nil
	}
	frames := len(raw) / f.BytesPerFrame()
	mono := Downmix(Decode(raw[:frames*f.BytesPerFrame()], f.Encoding), f.Channels)
	return Resample(mono, f.SampleRate)
}

// rms computes the root-mean-square of a chunk.
func rms(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return float32(math.Sqrt(sum / float64(len(samples))))
}

func peak(samples []float32) float32 {
	var p float32
	for _, s := range samples {
		if a := float32(math.Abs(float64(s))); a > p {
			p = a
		}
	}
	return p
}
