package audiocapture

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeDriver struct {
	dev *fakeDevice
}

func (d *fakeDriver) DefaultInput() (Device, error) {
	if d.dev == nil {
		return nil, ErrNoDevice
	}
	return d.dev, nil
}

type fakeDevice struct {
	supported []Format
	preferred Format

	mu      sync.Mutex
	opened  Format
	onChunk func([]byte)
	stream  *fakeStream
}

func (d *fakeDevice) Name() string { return "fake" }

func (d *fakeDevice) Supports(f Format) bool {
	for _, s := range d.supported {
		if s == f {
			return true
		}
	}
	return false
}

func (d *fakeDevice) Preferred() Format { return d.preferred }

func (d *fakeDevice) Open(f Format, onChunk func([]byte)) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = f
	d.onChunk = onChunk
	d.stream = &fakeStream{}
	return d.stream, nil
}

func (d *fakeDevice) push(chunk []byte) {
	d.mu.Lock()
	fn := d.onChunk
	d.mu.Unlock()
	fn(chunk)
}

type fakeStream struct {
	starts, stops, closes int
}

func (s *fakeStream) Start() error { s.starts++; return nil }
func (s *fakeStream) Stop() error  { s.stops++; return nil }
func (s *fakeStream) Close() error { s.closes++; return nil }

func TestStartNoDevice(t *testing.T) {
	c := New(&fakeDriver{})

	if err := c.Start(); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("expected ErrNoDevice, got %v", err)
	}
	if got := c.RecordedAudio(); len(got) != 0 {
		t.Errorf("got %d samples, want 0", len(got))
	}
	if err := c.Stop(); err != nil {
		t.Errorf("Stop after failed Start: %v", err)
	}
}

func TestDoubleStart(t *testing.T) {
	dev := &fakeDevice{supported: []Format{Canonical}, preferred: Canonical}
	c := New(&fakeDriver{dev: dev})
	defer c.Stop()

	if err := c.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := c.Start(); !errors.Is(err, ErrAlreadyCapturing) {
		t.Fatalf("expected ErrAlreadyCapturing, got %v", err)
	}
}

func TestStopIdempotent(t *testing.T) {
	dev := &fakeDevice{supported: []Format{Canonical}, preferred: Canonical}
	c := New(&fakeDriver{dev: dev})

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop without Start: %v", err)
	}
	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	dev.push(int16Bytes(100, 200))

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	first := c.RecordedAudio()

	if err := c.Stop(); err != nil {
		t.Fatalf("double Stop: %v", err)
	}
	if dev.stream.stops != 1 || dev.stream.closes != 1 {
		t.Errorf("stops=%d closes=%d, want 1 and 1", dev.stream.stops, dev.stream.closes)
	}
	if got := c.RecordedAudio(); len(got) != len(first) {
		t.Errorf("recording changed after second Stop: %d vs %d samples", len(got), len(first))
	}
}

func TestRecordingResetsPerSession(t *testing.T) {
	dev := &fakeDevice{
		supported: nil,
		preferred: Format{SampleRate: 32000, Channels: 2, Encoding: Float32},
	}
	c := New(&fakeDriver{dev: dev})

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if dev.opened != dev.preferred {
		t.Fatalf("opened %v, want %v", dev.opened, dev.preferred)
	}
	// Four stereo frames at 32 kHz become two mono frames.
	dev.push(float32Bytes(0.2, 0.4, 0.2, 0.4, 0.6, 0.8, 0.6, 0.8))
	c.Stop()

	got := c.RecordedAudio()
	want := []float32{0.3, 0.7}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if d := got[i] - want[i]; d > 1e-6 || d < -1e-6 {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}

	if err := c.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	c.Stop()
	if got := c.RecordedAudio(); len(got) != 0 {
		t.Errorf("second session kept %d samples, want 0", len(got))
	}
}

func TestLevelMeter(t *testing.T) {
	dev := &fakeDevice{supported: []Format{Canonical}, preferred: Canonical}

	levels := make(chan float32, 64)
	c := New(&fakeDriver{dev: dev}, WithLevelSink(func(v float32) {
		select {
		case levels <- v:
		default:
		}
	}))

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	dev.push(int16Bytes(16384, -16384, 16384, -16384))
	if got := c.Level(); got <= 0 || got > 0.5 {
		t.Errorf("Level = %v, want in (0, 0.5]", got)
	}

	deadline := time.After(time.Second)
	for seen := false; !seen; {
		select {
		case v := <-levels:
			if v > 0.5 {
				t.Fatalf("emitted level %v, want <= 0.5", v)
			}
			seen = v > 0
		case <-deadline:
			t.Fatal("no level emitted")
		}
	}

	c.Stop()
	if got := c.Level(); got != 0 {
		t.Errorf("Level after Stop = %v, want 0", got)
	}
}

func TestMeterDecay(t *testing.T) {
	var m meter
	m.set(1)
	if got := m.decay(levelDecay); got != 1 {
		t.Errorf("first decay returned %v, want 1", got)
	}
	if got := m.load(); got != 0.8 {
		t.Errorf("after decay = %v, want 0.8", got)
	}
}
