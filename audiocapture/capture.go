// Package audiocapture records microphone audio and converts it to canonical
// 16 kHz mono float samples.
package audiocapture

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrAlreadyCapturing is returned when trying to start capture while already capturing.
var ErrAlreadyCapturing = errors.New("already capturing audio")

// Capture records one session at a time from the default input device.
type Capture struct {
	driver  Driver
	log     *slog.Logger
	onLevel func(float32)

	// ctl serializes Start and Stop.
	ctl       sync.Mutex
	stream    Stream
	stopMeter chan struct{}
	meterDone chan struct{}

	// mu guards the raw buffer, the format and the observer, which the device
	// callback writes.
	mu     sync.Mutex
	raw    bytes.Buffer
	format Format
	obs    *chunkObserver

	level meter
}

// Option configures a Capture.
type Option func(*Capture)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Capture) { c.log = l }
}

// WithLevelSink sets the receiver of loudness values, called about 30 times a
// second while capturing.
func WithLevelSink(fn func(float32)) Option {
	return func(c *Capture) { c.onLevel = fn }
}

// New creates a capture pipeline on top of driver.
func New(driver Driver, opts ...Option) *Capture {
	c := &Capture{
		driver: driver,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.obs = newChunkObserver(c.log)
	return c
}

// Start clears the previous recording and begins capturing from the default
// input device. It returns an error wrapping ErrNoDevice when there is none.
func (c *Capture) Start() error {
	c.ctl.Lock()
	defer c.ctl.Unlock()

	if c.stream != nil {
		return ErrAlreadyCapturing
	}

	c.mu.Lock()
	c.raw.Reset()
	c.format = Format{}
	c.obs.begin()
	c.mu.Unlock()
	c.level.set(0)

	dev, err := c.driver.DefaultInput()
	if err != nil {
		return fmt.Errorf("default input: %w", err)
	}

	f := Negotiate(dev)
	c.mu.Lock()
	c.format = f
	c.mu.Unlock()

	stream, err := dev.Open(f, c.handleChunk)
	if err != nil {
		return fmt.Errorf("open %s (%s): %w", dev.Name(), f, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start stream: %w", err)
	}

	c.stream = stream
	c.stopMeter = make(chan struct{})
	c.meterDone = make(chan struct{})
	go c.level.run(c.onLevel, LevelInterval, c.stopMeter, c.meterDone)

	c.log.Info("capture started", "device", dev.Name(), "format", f.String())
	return nil
}

// Stop halts the device and keeps the recording for RecordedAudio. Calling
// Stop when not capturing does nothing.
func (c *Capture) Stop() error {
	c.ctl.Lock()
	defer c.ctl.Unlock()

	if c.stream == nil {
		return nil
	}

	err := errors.Join(c.stream.Stop(), c.stream.Close())
	c.stream = nil

	close(c.stopMeter)
	<-c.meterDone
	c.level.set(0)
	if c.onLevel != nil {
		c.onLevel(0)
	}

	c.mu.Lock()
	c.obs.end(c.format)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("stop stream: %w", err)
	}
	return nil
}

// RecordedAudio converts the last recording to canonical audio. The result
// is a fresh slice; it is empty when nothing was captured.
func (c *Capture) RecordedAudio() []float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Convert(c.raw.Bytes(), c.format)
}

// Level returns the current loudness in [0, 1].
func (c *Capture) Level() float32 {
	return c.level.load()
}

// Format returns the format negotiated for the current or last session.
func (c *Capture) Format() Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// handleChunk runs on the driver's audio thread.
func (c *Capture) handleChunk(chunk []byte) {
	c.mu.Lock()
	f := c.format
	c.raw.Write(chunk)
	samples := Decode(chunk, f.Encoding)
	c.obs.observe(chunk, samples, f)
	c.mu.Unlock()

	c.level.set(rms(samples))
}
