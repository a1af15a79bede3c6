package dictation

import "math"

// Near-silence thresholds. A buffer this quiet usually means the capture
// path is broken (missing microphone permission) rather than the user being
// silent.
const (
	minGateSamples = 8000 // 0.5 s at 16 kHz
	silentPeak     = 0.003
	silentRMS      = 0.0008
)

type verdict uint8

const (
	gatePass verdict = iota
	gateEmpty
	gateNearSilent
)

type audioStats struct {
	samples int
	peak    float64
	rms     float64
}

func measure(audio []float32) audioStats {
	st := audioStats{samples: len(audio)}
	if len(audio) == 0 {
		return st
	}
	var sum float64
	for _, s := range audio {
		v := float64(s)
		st.peak = max(st.peak, math.Abs(v))
		sum += v * v
	}
	st.rms = math.Sqrt(sum / float64(len(audio)))
	return st
}

// gate decides whether audio is worth transcribing.
func gate(st audioStats) verdict {
	switch {
	case st.samples == 0:
		return gateEmpty
	case st.samples >= minGateSamples && st.peak < silentPeak && st.rms < silentRMS:
		return gateNearSilent
	default:
		return gatePass
	}
}
