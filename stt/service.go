package stt

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.aimuz.me/vibeflow/audiocapture"
)

// DefaultMinDuration is the length short recordings are padded to.
const DefaultMinDuration = time.Second

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Provider Provider
	// Language is the hint passed to the provider; "auto" lets it decide.
	Language string
	// Languages, when set, restricts acceptable transcript languages; an
	// auto-detected transcript in any other language is redone with the first.
	Languages []string
	// Vocabulary words are joined into the decoder prompt.
	Vocabulary  []string
	MinDuration time.Duration
	Logger      *slog.Logger
}

// Service is the transcription service used by dictation sessions. It never
// returns errors: every failure is logged and yields empty text.
type Service struct {
	log         *slog.Logger
	minDuration time.Duration

	mu       sync.RWMutex
	provider Provider
	language string
	prompt   string
	guard    *languageGuard
}

// NewService creates a Service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		log:         cfg.Logger,
		minDuration: cfg.MinDuration,
		provider:    cfg.Provider,
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.minDuration <= 0 {
		s.minDuration = DefaultMinDuration
	}
	s.SetLanguage(cfg.Language, cfg.Languages)
	s.SetVocabulary(cfg.Vocabulary)
	return s
}

// SetProvider swaps the active provider.
func (s *Service) SetProvider(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

// Provider returns the active provider.
func (s *Service) Provider() Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// SetLanguage updates the language hint and the allowed language set.
func (s *Service) SetLanguage(hint string, allowed []string) {
	code, err := NormalizeLanguage(hint)
	if err != nil {
		s.log.Warn("invalid language hint, using auto", "language", hint, "error", err)
		code = "auto"
	}
	guard := newLanguageGuard(allowed)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = code
	s.guard = guard
}

// SetVocabulary sets words that bias recognition.
func (s *Service) SetVocabulary(words []string) {
	var kept []string
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			kept = append(kept, w)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompt = strings.Join(kept, ", ")
}

// Ready reports whether the active provider can transcribe.
func (s *Service) Ready() bool {
	p := s.Provider()
	return p != nil && p.IsReady()
}

// Transcribe converts audio at sampleRate to trimmed text.
func (s *Service) Transcribe(ctx context.Context, audio []float32, sampleRate int) string {
	s.mu.RLock()
	p, hint, prompt, guard := s.provider, s.language, s.prompt, s.guard
	s.mu.RUnlock()

	if p == nil || !p.IsReady() {
		s.log.Warn("transcribe: provider not ready")
		return ""
	}
	if len(audio) == 0 {
		return ""
	}
	if sampleRate != SampleRate {
		audio = audiocapture.Resample(audio, sampleRate)
	}
	audio = pad(audio, int(s.minDuration.Seconds()*SampleRate))

	start := time.Now()
	text, err := s.run(ctx, p, audio, Options{Language: hint, Prompt: prompt})
	if err != nil {
		s.log.Error("transcribe", "provider", p.Name(), "error", err)
		return ""
	}

	if text != "" && guard != nil && hint == "auto" {
		if detected, ok := guard.outside(text); ok {
			retry := guard.primary()
			s.log.Info("transcript language outside allowed set, retrying",
				"detected", detected, "language", retry)
			again, err := s.run(ctx, p, audio, Options{Language: retry, Prompt: prompt})
			switch {
			case err != nil:
				s.log.Warn("transcribe retry", "language", retry, "error", err)
			case again != "":
				text = again
			}
		}
	}

	s.log.Info("transcribed",
		"provider", p.Name(),
		"seconds", float64(len(audio))/SampleRate,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"chars", len(text),
	)
	return text
}

func (s *Service) run(ctx context.Context, p Provider, audio []float32, opts Options) (string, error) {
	res, err := p.Transcribe(ctx, audio, opts)
	if err != nil {
		return "", err
	}
	return cleanText(res.Text), nil
}

// pad appends silence so audio holds at least n samples.
func pad(audio []float32, n int) []float32 {
	if len(audio) >= n {
		return audio
	}
	out := make([]float32, n)
	copy(out, audio)
	return out
}
