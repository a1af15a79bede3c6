package audiocapture

import "log/slog"

// chunkObserver records capture diagnostics. The first chunk is dumped once
// per pipeline; a summary is logged for every session.
type chunkObserver struct {
	log    *slog.Logger
	dumped bool

	chunks int
	bytes  int
	peak   float32
}

func newChunkObserver(log *slog.Logger) *chunkObserver {
	return &chunkObserver{log: log}
}

func (o *chunkObserver) begin() {
	o.chunks, o.bytes, o.peak = 0, 0, 0
}

func (o *chunkObserver) observe(chunk []byte, samples []float32, f Format) {
	o.chunks++
	o.bytes += len(chunk)
	p := peak(samples)
	o.peak = max(o.peak, p)

	if o.dumped {
		return
	}
	o.dumped = true
	o.log.Info("first audio chunk",
		"format", f.String(),
		"bytes", len(chunk),
		"samples", len(samples),
		"peak", p,
	)
}

func (o *chunkObserver) end(f Format) {
	o.log.Debug("capture summary",
		"format", f.String(),
		"chunks", o.chunks,
		"bytes", o.bytes,
		"peak", o.peak,
	)
}
