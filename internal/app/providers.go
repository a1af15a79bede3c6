package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"go.aimuz.me/vibeflow/config"
	"go.aimuz.me/vibeflow/internal/types"
	"go.aimuz.me/vibeflow/stt"
)

// NewTranscription registers the transcription providers and returns a
// service using the configured one. The provider may still need Setup.
func NewTranscription(cfg *config.Config, log *slog.Logger) (*stt.Service, *stt.Registry, error) {
	t := cfg.Transcription
	reg := stt.NewRegistry()

	modelDir, err := config.Dir()
	if err != nil {
		return nil, nil, err
	}
	local, err := stt.NewWhisperLocal(stt.WhisperLocalConfig{
		Model:     t.Model,
		ModelPath: t.ModelPath,
		ModelDir:  filepath.Join(modelDir, "models"),
		BinPath:   t.Binary,
		Threads:   t.Threads,
	})
	if err != nil {
		log.Warn("whisper local unavailable", "error", err)
	} else {
		reg.Register(local)
		if !local.HasBinary() {
			log.Warn("whisper.cpp binary not found, install whisper-cli or set transcription.binary")
		}
	}

	if t.APIKey != "" || t.Provider == config.ProviderWhisperAPI {
		reg.Register(stt.NewWhisperAPI(stt.WhisperAPIConfig{
			APIKey:  t.APIKey,
			BaseURL: t.BaseURL,
			Model:   t.APIModel,
		}))
	}

	p, err := reg.Get(t.Provider)
	if err != nil {
		reg.Close()
		return nil, nil, fmt.Errorf("transcription provider: %w", err)
	}

	svc := stt.NewService(stt.ServiceConfig{
		Provider:   p,
		Language:   t.Language,
		Languages:  t.Languages,
		Vocabulary: t.Vocabulary,
		Logger:     log,
	})
	return svc, reg, nil
}

// setupProvider runs the active provider's setup, reporting progress to the
// frontend. Dictation stays inert until the provider is ready.
func (s *Service) setupProvider(ctx context.Context) {
	p := s.stt.Provider()
	if p == nil || p.IsReady() {
		return
	}

	s.log.Info("setting up transcription provider", "provider", p.Name())
	last := -1
	err := p.Setup(ctx, func(pct int) {
		if pct == last {
			return
		}
		last = pct
		s.emit(EventSetupProgress, SetupProgress{Provider: p.Name(), Percent: pct})
	})
	if err != nil {
		s.log.Error("setup transcription provider", "provider", p.Name(), "error", err)
		s.emit(EventSetupProgress, SetupProgress{Provider: p.Name(), Percent: -1, Error: err.Error()})
		s.ui.Notify("Transcription is unavailable: " + err.Error())
		return
	}
	s.log.Info("transcription provider ready", "provider", p.Name())
	s.emit(EventSetupProgress, SetupProgress{Provider: p.Name(), Percent: 100, Ready: true})
	s.refreshTray()
}

// Providers describes the registered transcription providers.
func (s *Service) Providers() []types.STTProviderInfo {
	active := s.stt.Provider()
	var out []types.STTProviderInfo
	for _, p := range s.registry.List() {
		out = append(out, types.STTProviderInfo{
			Name:          p.Name(),
			DisplayName:   p.DisplayName(),
			IsLocal:       p.IsLocal(),
			RequiresSetup: p.RequiresSetup(),
			SetupProgress: p.SetupProgress(),
			IsReady:       p.IsReady(),
			Active:        active != nil && active.Name() == p.Name(),
		})
	}
	return out
}
