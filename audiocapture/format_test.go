package audiocapture

import "testing"

func TestNegotiate(t *testing.T) {
	native := Format{SampleRate: 48000, Channels: 2, Encoding: Float32}
	nativeInt16 := Format{SampleRate: 48000, Channels: 2, Encoding: Int16}

	tests := []struct {
		name      string
		supported []Format
		preferred Format
		want      Format
	}{
		{"canonical", []Format{Canonical, native}, native, Canonical},
		{"native_int16", []Format{nativeInt16, native}, native, nativeInt16},
		{"preferred_as_is", []Format{native}, native, native},
		{
			"preferred_int16_not_retried",
			nil,
			Format{SampleRate: 44100, Channels: 1, Encoding: Int16},
			Format{SampleRate: 44100, Channels: 1, Encoding: Int16},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeDevice{supported: tt.supported, preferred: tt.preferred}
			if got := Negotiate(dev); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatBytesPerFrame(t *testing.T) {
	tests := []struct {
		f    Format
		want int
	}{
		{Canonical, 2},
		{Format{SampleRate: 48000, Channels: 2, Encoding: Float32}, 8},
		{Format{SampleRate: 44100, Channels: 2, Encoding: Int32}, 8},
	}
	for _, tt := range tests {
		if got := tt.f.BytesPerFrame(); got != tt.want {
			t.Errorf("%v: got %d, want %d", tt.f, got, tt.want)
		}
	}
}
