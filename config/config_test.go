package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.aimuz.me/vibeflow/internal/types"
)

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Hotkey != want.Hotkey || cfg.Injection != want.Injection || cfg.History != want.History {
		t.Errorf("got %+v, want defaults %+v", cfg, want)
	}
	if cfg.Transcription.Provider != ProviderWhisperLocal || cfg.Transcription.Language != "auto" {
		t.Errorf("transcription = %+v", cfg.Transcription)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
hotkey:
  chord: ctrl+alt
injection:
  mode: type
transcription:
  language: de
  vocabulary: [Kubernetes, gRPC]
history:
  retention: 72h
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Hotkey.Chord != "ctrl+alt" || cfg.Hotkey.Cancel != "escape" {
		t.Errorf("hotkey = %+v", cfg.Hotkey)
	}
	if cfg.Injection.Mode != types.InputType {
		t.Errorf("mode = %q, want type", cfg.Injection.Mode)
	}
	if got := strings.Join(cfg.Transcription.Vocabulary, "|"); got != "Kubernetes|gRPC" {
		t.Errorf("vocabulary = %q", got)
	}
	if cfg.History.Retention != 72*time.Hour || cfg.History.MaxEntries != 500 {
		t.Errorf("history = %+v", cfg.History)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VIBEFLOW_INJECTION_MODE", "type")
	t.Setenv("VIBEFLOW_TRANSCRIPTION_LANGUAGES", "en, de")
	t.Setenv("VIBEFLOW_HISTORY_MAX_ENTRIES", "20")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Injection.Mode != types.InputType {
		t.Errorf("mode = %q, want type", cfg.Injection.Mode)
	}
	if got := strings.Join(cfg.Transcription.Languages, "|"); got != "en|de" {
		t.Errorf("languages = %q", got)
	}
	if cfg.History.MaxEntries != 20 {
		t.Errorf("max entries = %d", cfg.History.MaxEntries)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad_mode", func(c *Config) { c.Injection.Mode = "shout" }, "injection.mode"},
		{"bad_chord", func(c *Config) { c.Hotkey.Chord = "ctrl+banana" }, "hotkey"},
		{"bad_cancel", func(c *Config) { c.Hotkey.Cancel = "f13" }, "hotkey"},
		{"bad_language", func(c *Config) { c.Transcription.Language = "not a tag" }, "transcription.language"},
		{"bad_languages", func(c *Config) { c.Transcription.Languages = []string{"en", "!!"} }, "transcription.languages"},
		{"unknown_provider", func(c *Config) { c.Transcription.Provider = "vosk" }, "transcription.provider"},
		{"api_without_key", func(c *Config) { c.Transcription.Provider = ProviderWhisperAPI }, "api_key"},
		{"formatting_without_model", func(c *Config) { c.Formatting.Enabled = true }, "formatting.provider.model"},
		{"bad_log_level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Injection.Mode = types.InputType
	cfg.History.Retention = 24 * time.Hour
	cfg.Transcription.Vocabulary = []string{"VibeFlow"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Injection.Mode != types.InputType {
		t.Errorf("mode = %q, want type", got.Injection.Mode)
	}
	if got.History.Retention != 24*time.Hour {
		t.Errorf("retention = %v", got.History.Retention)
	}
	if len(got.Transcription.Vocabulary) != 1 || got.Transcription.Vocabulary[0] != "VibeFlow" {
		t.Errorf("vocabulary = %v", got.Transcription.Vocabulary)
	}
}

func TestWatchReloads(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the filesystem watcher")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := Default().Save(path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, nil, func(c *Config) { got <- c }) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	cfg := Default()
	cfg.Injection.Mode = types.InputType
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.Injection.Mode != types.InputType {
			t.Errorf("reloaded mode = %q, want type", c.Injection.Mode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
}

func TestWatchCreatesMissingDir(t *testing.T) {
	if testing.Short() {
		t.Skip("uses the filesystem watcher")
	}
	path := filepath.Join(t.TempDir(), "first-run", "config.yaml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, path, nil, func(c *Config) { got <- c }) }()

	time.Sleep(100 * time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("Watch returned early: %v", err)
	default:
	}

	cfg := Default()
	cfg.Injection.Mode = types.InputType
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.Injection.Mode != types.InputType {
			t.Errorf("reloaded mode = %q, want type", c.Injection.Mode)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch: %v", err)
	}
}
