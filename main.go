package main

import (
	"embed"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/vibeflow/config"
	"go.aimuz.me/vibeflow/internal/app"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	defaultPath, err := config.Path()
	if err != nil {
		defaultPath = "config.yaml"
	}

	root := &cobra.Command{
		Use:           "vibeflow",
		Short:         "Hold a key chord, speak, release, and the text lands where you were typing",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultPath, "config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Start the dictation app (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runApp(opts)
			},
		},
		newDevicesCmd(opts),
		newTranscribeCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// loadConfig reads and validates the config file and installs the default
// logger from its log section.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", o.configPath, err)
	}
	slog.SetDefault(newLogger(cfg.Log))
	return cfg, nil
}

func newLogger(c config.Log) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

func runApp(opts *rootOptions) error {
	if _, err := opts.loadConfig(); err != nil {
		slog.Error("start app", "error", err)
		return err
	}
	slog.Info("starting app", "version", version, "commit", commit, "date", date)

	svc := app.New(opts.configPath, version, slog.Default())

	wapp := application.New(application.Options{
		Name:        "VibeFlow",
		Description: "Hold-to-dictate voice input",
		Services: []application.Service{
			application.NewService(svc),
		},
		Assets: application.AssetOptions{
			Handler: application.BundledAssetFileServer(assets),
		},
		Mac: application.MacOptions{
			// Tray-only app, the overlay is the only window.
			ActivationPolicy: application.ActivationPolicyAccessory,

			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
		OnShutdown: svc.Shutdown,
	})

	overlay := wapp.Window.NewWithOptions(application.WebviewWindowOptions{
		Name:           "overlay",
		Title:          "VibeFlow",
		Width:          240,
		Height:         72,
		URL:            "/",
		Frameless:      true,
		AlwaysOnTop:    true,
		Hidden:         true,
		DisableResize:  true,
		BackgroundType: application.BackgroundTypeTransparent,
		Mac: application.MacWindow{
			Backdrop: application.MacBackdropTransparent,
		},
	})

	if err := svc.Init(wapp, overlay); err != nil {
		slog.Error("init app", "error", err)
		svc.Shutdown()
		return err
	}
	svc.SetupTray(wapp.Quit)

	if err := wapp.Run(); err != nil {
		slog.Error("run app", "error", err)
		return err
	}
	return nil
}
