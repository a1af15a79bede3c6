package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"go.aimuz.me/vibeflow/internal/netutil"
	"go.aimuz.me/vibeflow/internal/wavfile"
)

// WhisperAPI implements the Provider interface using OpenAI's transcription
// endpoint or a compatible server.
type WhisperAPI struct {
	client openai.Client
	model  string
	ready  bool
}

// WhisperAPIConfig holds configuration for WhisperAPI.
type WhisperAPIConfig struct {
	APIKey  string
	BaseURL string // Optional, defaults to OpenAI's API
	Model   string // Optional, defaults to "whisper-1"
	Timeout time.Duration
}

// NewWhisperAPI creates a new WhisperAPI provider.
func NewWhisperAPI(cfg WhisperAPIConfig) *WhisperAPI {
	model := cfg.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(netutil.NewHTTPClient(timeout)),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &WhisperAPI{
		client: openai.NewClient(opts...),
		model:  model,
		ready:  cfg.APIKey != "",
	}
}

func (w *WhisperAPI) Name() string        { return "whisper-api" }
func (w *WhisperAPI) DisplayName() string { return "OpenAI Whisper API (" + w.model + ")" }
func (w *WhisperAPI) IsLocal() bool       { return false }
func (w *WhisperAPI) RequiresSetup() bool { return false }
func (w *WhisperAPI) IsReady() bool       { return w.ready }

func (w *WhisperAPI) SetupProgress() int {
	if w.ready {
		return 100
	}
	return -1
}

func (w *WhisperAPI) Setup(context.Context, func(percent int)) error {
	if !w.ready {
		return errors.New("API key is required")
	}
	return nil
}

// Transcribe uploads audio as a 16-bit WAV.
func (w *WhisperAPI) Transcribe(ctx context.Context, audio []float32, opts Options) (*Result, error) {
	if !w.ready {
		return nil, ErrNotReady
	}

	var buf writeSeekBuffer
	if err := wavfile.Write(&buf, audio, SampleRate); err != nil {
		return nil, err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(buf.Bytes()), "audio.wav", "audio/wav"),
		Model: openai.AudioModel(w.model),
	}
	if opts.Language != "" && opts.Language != "auto" {
		params.Language = openai.String(opts.Language)
	}
	if opts.Prompt != "" {
		params.Prompt = openai.String(opts.Prompt)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create transcription: %w", err)
	}
	return &Result{Text: resp.Text, Language: opts.Language}, nil
}

func (w *WhisperAPI) Close() error {
	return nil
}

// writeSeekBuffer is an in-memory io.WriteSeeker for the WAV encoder, which
// seeks back to patch the header sizes.
type writeSeekBuffer struct {
	buf []byte
	pos int
}

func (b *writeSeekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	n := copy(b.buf[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("negative position")
	}
	b.pos = int(pos)
	return pos, nil
}

func (b *writeSeekBuffer) Bytes() []byte { return b.buf }
