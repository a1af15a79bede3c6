package dictation

import (
	"math"
	"testing"
)

func TestMeasure(t *testing.T) {
	st := measure([]float32{0.5, -0.5, 0.5, -0.5})
	if st.samples != 4 || st.peak != 0.5 || math.Abs(st.rms-0.5) > 1e-9 {
		t.Errorf("measure = %+v", st)
	}
	if st := measure(nil); st != (audioStats{}) {
		t.Errorf("measure(nil) = %+v, want zero", st)
	}
}

func TestGate(t *testing.T) {
	tests := []struct {
		name string
		st   audioStats
		want verdict
	}{
		{"empty", audioStats{}, gateEmpty},
		{"short_silence", audioStats{samples: 7999}, gatePass},
		{"silence", audioStats{samples: 8000}, gateNearSilent},
		{"peak_above", audioStats{samples: 8000, peak: 0.003, rms: 0.0001}, gatePass},
		{"rms_above", audioStats{samples: 8000, peak: 0.001, rms: 0.0008}, gatePass},
		{"speech", audioStats{samples: 32000, peak: 0.4, rms: 0.05}, gatePass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate(tt.st); got != tt.want {
				t.Errorf("gate(%+v) = %d, want %d", tt.st, got, tt.want)
			}
		})
	}
}
