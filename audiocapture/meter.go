package audiocapture

import (
	"math"
	"sync/atomic"
	"time"
)

// LevelInterval is the loudness emission period (about 30 Hz).
const LevelInterval = 33 * time.Millisecond

// levelDecay is applied to the loudness value after every emission.
const levelDecay = 0.8

// meter holds the latest chunk loudness as float32 bits. The device callback
// stores into it and the emission ticker decays it.
type meter struct {
	bits atomic.Uint32
}

func (m *meter) set(v float32) {
	m.bits.Store(math.Float32bits(v))
}

func (m *meter) load() float32 {
	return math.Float32frombits(m.bits.Load())
}

// decay returns the current value and multiplies the stored one by factor.
// A value stored by the callback in between wins over the decayed one.
func (m *meter) decay(factor float32) float32 {
	old := m.bits.Load()
	v := math.Float32frombits(old)
	m.bits.CompareAndSwap(old, math.Float32bits(v*factor))
	return v
}

// run emits the level to sink every interval until stop is closed.
func (m *meter) run(sink func(float32), interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			v := m.decay(levelDecay)
			if sink != nil {
				sink(v)
			}
		}
	}
}
