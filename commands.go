package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"go.aimuz.me/vibeflow/audiocapture"
	"go.aimuz.me/vibeflow/config"
	"go.aimuz.me/vibeflow/history"
	"go.aimuz.me/vibeflow/internal/app"
	"go.aimuz.me/vibeflow/internal/wavfile"
)

func newDevicesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.loadConfig(); err != nil {
				return err
			}
			pa, err := audiocapture.NewPortAudio()
			if err != nil {
				return err
			}
			defer pa.Close()

			devices, err := pa.InputDevices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				return audiocapture.ErrNoDevice
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DEFAULT\tNAME\tRATE\tCHANNELS")
			for _, d := range devices {
				mark := ""
				if d.Default {
					mark = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", mark, d.Name, d.SampleRate, d.Channels)
			}
			return w.Flush()
		},
	}
}

func newTranscribeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a WAV file with the configured provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			clip, err := wavfile.ReadFile(args[0])
			if err != nil {
				return err
			}
			audio := audiocapture.Resample(audiocapture.Downmix(clip.Samples, clip.Channels), clip.SampleRate)
			if len(audio) == 0 {
				return errors.New("no audio in file")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			log := slog.Default().With("component", "stt")
			svc, reg, err := app.NewTranscription(cfg, log)
			if err != nil {
				return err
			}
			defer reg.Close()

			if p := svc.Provider(); !p.IsReady() {
				fmt.Fprintf(cmd.ErrOrStderr(), "setting up %s\n", p.DisplayName())
				last := -1
				err := p.Setup(ctx, func(pct int) {
					if pct/10 != last {
						last = pct / 10
						fmt.Fprintf(cmd.ErrOrStderr(), "\r%3d%%", pct)
					}
				})
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("setup %s: %w", p.Name(), err)
				}
			}

			start := time.Now()
			text := svc.Transcribe(ctx, audio, audiocapture.TargetRate)
			log.Debug("transcribed file", "file", args[0], "elapsed", time.Since(start))
			if text == "" {
				return errors.New("no speech recognized")
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var (
		n    int
		wipe bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent transcriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			store, err := openHistory(cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			if wipe {
				return store.Clear()
			}

			entries, err := store.Recent(n)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%.1fs\t%s\n",
					e.CreatedAt.Local().Format(time.DateTime), e.Provider, e.Duration.Seconds(), e.Text)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&n, "number", "n", 10, "number of entries to print")
	cmd.Flags().BoolVar(&wipe, "clear", false, "delete all stored transcriptions")
	return cmd
}

func openHistory(cfg config.History) (*history.Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	store, err := history.Open(filepath.Join(dir, "history"), history.Options{
		MaxEntries: cfg.MaxEntries,
		Retention:  cfg.Retention,
		Logger:     slog.Default().With("component", "history"),
	})
	if err != nil {
		// badger holds a directory lock while the app runs.
		return nil, fmt.Errorf("%w (is VibeFlow running?)", err)
	}
	return store, nil
}
