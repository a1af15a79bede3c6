// Package config handles application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"go.aimuz.me/vibeflow/hotkey"
	"go.aimuz.me/vibeflow/internal/types"
	"go.aimuz.me/vibeflow/llm"
)

const (
	appName        = "vibeflow"
	configFileName = "config.yaml"
	envPrefix      = "VIBEFLOW"
)

// Transcription provider names.
const (
	ProviderWhisperLocal = "whisper-local"
	ProviderWhisperAPI   = "whisper-api"
)

// Config represents the application configuration.
type Config struct {
	Hotkey        Hotkey        `mapstructure:"hotkey" yaml:"hotkey"`
	Audio         Audio         `mapstructure:"audio" yaml:"audio"`
	Transcription Transcription `mapstructure:"transcription" yaml:"transcription"`
	Injection     Injection     `mapstructure:"injection" yaml:"injection"`
	Formatting    Formatting    `mapstructure:"formatting" yaml:"formatting"`
	History       History       `mapstructure:"history" yaml:"history"`
	Log           Log           `mapstructure:"log" yaml:"log"`
}

// Hotkey holds the dictation chord, e.g. "ctrl+cmd", and the cancel key.
type Hotkey struct {
	Chord  string `mapstructure:"chord" yaml:"chord"`
	Cancel string `mapstructure:"cancel" yaml:"cancel"`
}

type Audio struct {
	// DumpDir, when set, receives a WAV of every session's audio.
	DumpDir string `mapstructure:"dump_dir" yaml:"dump_dir,omitempty"`
}

type Transcription struct {
	Provider   string   `mapstructure:"provider" yaml:"provider"`
	Model      string   `mapstructure:"model" yaml:"model"`
	ModelPath  string   `mapstructure:"model_path" yaml:"model_path,omitempty"`
	Binary     string   `mapstructure:"binary" yaml:"binary,omitempty"`
	Language   string   `mapstructure:"language" yaml:"language"`
	Languages  []string `mapstructure:"languages" yaml:"languages,omitempty"`
	Vocabulary []string `mapstructure:"vocabulary" yaml:"vocabulary,omitempty"`
	Threads    int      `mapstructure:"threads" yaml:"threads,omitempty"`
	APIKey     string   `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL    string   `mapstructure:"base_url" yaml:"base_url,omitempty"`
	// APIModel is the whisper-api model; empty means whisper-1.
	APIModel string `mapstructure:"api_model" yaml:"api_model,omitempty"`
}

type Injection struct {
	Mode types.InputMode `mapstructure:"mode" yaml:"mode"`
}

type Formatting struct {
	Enabled       bool           `mapstructure:"enabled" yaml:"enabled"`
	Mode          string         `mapstructure:"mode" yaml:"mode"`
	Provider      types.Provider `mapstructure:"provider" yaml:"provider"`
	PromptStrict  string         `mapstructure:"prompt_strict" yaml:"prompt_strict,omitempty"`
	PromptTypoFix string         `mapstructure:"prompt_typofix" yaml:"prompt_typofix,omitempty"`
}

type History struct {
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
	MaxEntries int           `mapstructure:"max_entries" yaml:"max_entries"`
	Retention  time.Duration `mapstructure:"retention" yaml:"retention,omitempty"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Hotkey: Hotkey{Chord: "ctrl+cmd", Cancel: "escape"},
		Transcription: Transcription{
			Provider: ProviderWhisperLocal,
			Model:    "base",
			Language: "auto",
		},
		Injection:  Injection{Mode: types.InputPaste},
		Formatting: Formatting{Mode: string(llm.ModeStrict), Provider: types.Provider{Type: "openai"}},
		History:    History{Enabled: true, MaxEntries: 500},
		Log:        Log{Level: "info", Format: "text"},
	}
}

// Path returns the default configuration file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// Dir returns the directory holding the default configuration file, used for
// models and history as well.
func Dir() (string, error) {
	p, err := Path()
	if err != nil {
		return "", err
	}
	return filepath.Dir(p), nil
}

// Load reads the file at path on top of the defaults and applies VIBEFLOW_*
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Transcription.Languages = splitList(cfg.Transcription.Languages)
	cfg.Transcription.Vocabulary = splitList(cfg.Transcription.Vocabulary)
	return &cfg, nil
}

// setDefaults registers every key with viper, which is also what makes
// AutomaticEnv consider it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("hotkey.chord", d.Hotkey.Chord)
	v.SetDefault("hotkey.cancel", d.Hotkey.Cancel)
	v.SetDefault("audio.dump_dir", d.Audio.DumpDir)

	t := d.Transcription
	v.SetDefault("transcription.provider", t.Provider)
	v.SetDefault("transcription.model", t.Model)
	v.SetDefault("transcription.model_path", t.ModelPath)
	v.SetDefault("transcription.binary", t.Binary)
	v.SetDefault("transcription.language", t.Language)
	v.SetDefault("transcription.languages", nonNil(t.Languages))
	v.SetDefault("transcription.vocabulary", nonNil(t.Vocabulary))
	v.SetDefault("transcription.threads", t.Threads)
	v.SetDefault("transcription.api_key", t.APIKey)
	v.SetDefault("transcription.base_url", t.BaseURL)
	v.SetDefault("transcription.api_model", t.APIModel)

	v.SetDefault("injection.mode", string(d.Injection.Mode))

	f := d.Formatting
	v.SetDefault("formatting.enabled", f.Enabled)
	v.SetDefault("formatting.mode", f.Mode)
	v.SetDefault("formatting.provider.type", f.Provider.Type)
	v.SetDefault("formatting.provider.base_url", f.Provider.BaseURL)
	v.SetDefault("formatting.provider.api_key", f.Provider.APIKey)
	v.SetDefault("formatting.provider.model", f.Provider.Model)
	v.SetDefault("formatting.provider.max_tokens", f.Provider.MaxTokens)
	v.SetDefault("formatting.provider.temperature", f.Provider.Temperature)
	v.SetDefault("formatting.provider.disable_thinking", f.Provider.DisableThinking)
	v.SetDefault("formatting.prompt_strict", f.PromptStrict)
	v.SetDefault("formatting.prompt_typofix", f.PromptTypoFix)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.max_entries", d.History.MaxEntries)
	v.SetDefault("history.retention", d.History.Retention)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// splitList accepts both YAML lists and comma-separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if _, err := hotkey.ParseChord(c.Hotkey.Chord, c.Hotkey.Cancel); err != nil {
		errs = append(errs, fmt.Errorf("hotkey: %w", err))
	}
	if _, err := types.ParseInputMode(string(c.Injection.Mode)); err != nil {
		errs = append(errs, fmt.Errorf("injection.mode: %w", err))
	}

	t := c.Transcription
	switch t.Provider {
	case ProviderWhisperLocal:
	case ProviderWhisperAPI:
		if t.APIKey == "" {
			errs = append(errs, errors.New("transcription.api_key: required for whisper-api"))
		}
	default:
		errs = append(errs, fmt.Errorf("transcription.provider: unknown provider %q", t.Provider))
	}
	if t.Language != "" && t.Language != "auto" {
		if _, err := language.Parse(t.Language); err != nil {
			errs = append(errs, fmt.Errorf("transcription.language: %w", err))
		}
	}
	for _, l := range t.Languages {
		if _, err := language.Parse(l); err != nil {
			errs = append(errs, fmt.Errorf("transcription.languages: %w", err))
		}
	}
	if t.Threads < 0 {
		errs = append(errs, errors.New("transcription.threads: must not be negative"))
	}

	if c.Formatting.Enabled {
		if _, err := llm.ParseMode(c.Formatting.Mode); err != nil {
			errs = append(errs, fmt.Errorf("formatting.mode: %w", err))
		}
		if c.Formatting.Provider.Model == "" {
			errs = append(errs, errors.New("formatting.provider.model: required when formatting is enabled"))
		}
	}

	if c.History.MaxEntries < 0 {
		errs = append(errs, errors.New("history.max_entries: must not be negative"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
