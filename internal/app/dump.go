package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.aimuz.me/vibeflow/audiocapture"
	"go.aimuz.me/vibeflow/dictation"
	"go.aimuz.me/vibeflow/internal/wavfile"
)

// dumpingCapture writes every session's canonical audio to dir as a WAV file.
type dumpingCapture struct {
	dictation.Capture
	dir string
	log *slog.Logger
	now func() time.Time
	// write runs the dump; tests replace it to run synchronously.
	write func(func())
}

func newDumpingCapture(c dictation.Capture, dir string, log *slog.Logger) *dumpingCapture {
	return &dumpingCapture{
		Capture: c,
		dir:     dir,
		log:     log,
		now:     time.Now,
		write:   func(f func()) { go f() },
	}
}

func (d *dumpingCapture) RecordedAudio() []float32 {
	audio := d.Capture.RecordedAudio()
	if len(audio) == 0 {
		return audio
	}
	name := filepath.Join(d.dir, fmt.Sprintf("session-%s.wav", d.now().Format("20060102-150405.000")))
	d.write(func() {
		if err := os.MkdirAll(d.dir, 0o755); err != nil {
			d.log.Warn("create dump dir", "dir", d.dir, "error", err)
			return
		}
		if err := wavfile.WriteFile(name, audio, audiocapture.TargetRate); err != nil {
			d.log.Warn("dump session audio", "path", name, "error", err)
			return
		}
		d.log.Debug("session audio dumped", "path", name, "samples", len(audio))
	})
	return audio
}
