package stt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.aimuz.me/vibeflow/internal/netutil"
	"go.aimuz.me/vibeflow/internal/wavfile"
)

const modelBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"

// Approximate model sizes, used for progress when the server sends no length.
var modelSizes = map[string]int64{
	"tiny":           75 << 20,
	"tiny.en":        75 << 20,
	"base":           142 << 20,
	"base.en":        142 << 20,
	"small":          466 << 20,
	"small.en":       466 << 20,
	"medium":         1500 << 20,
	"medium.en":      1500 << 20,
	"large-v3":       3000 << 20,
	"large-v3-turbo": 1600 << 20,
}

// WhisperLocal implements the Provider interface using local whisper.cpp.
// It uses the whisper.cpp CLI for transcription.
type WhisperLocal struct {
	model     string
	modelPath string
	binPath   string
	threads   int
	http      *http.Client

	// run executes the CLI and returns its stdout.
	run func(ctx context.Context, bin string, args []string) ([]byte, error)

	mu            sync.RWMutex
	ready         bool
	setupProgress int
}

// WhisperLocalConfig holds configuration for WhisperLocal.
type WhisperLocalConfig struct {
	Model     string // ggml model name, e.g. "base.en" or "large-v3"
	ModelPath string // explicit model file, overrides ModelDir
	ModelDir  string // directory for downloaded models
	BinPath   string // whisper.cpp CLI, searched on PATH when empty
	Threads   int
}

// NewWhisperLocal creates a new WhisperLocal provider.
func NewWhisperLocal(cfg WhisperLocalConfig) (*WhisperLocal, error) {
	if cfg.Model == "" {
		cfg.Model = "base"
	}
	if _, ok := modelSizes[cfg.Model]; !ok && cfg.ModelPath == "" {
		return nil, fmt.Errorf("unknown model %q", cfg.Model)
	}
	if cfg.ModelPath == "" {
		if cfg.ModelDir == "" {
			dir, err := DefaultModelDir()
			if err != nil {
				return nil, err
			}
			cfg.ModelDir = dir
		}
		cfg.ModelPath = filepath.Join(cfg.ModelDir, "ggml-"+cfg.Model+".bin")
	}
	if cfg.Threads <= 0 {
		cfg.Threads = min(runtime.NumCPU(), 8)
	}

	w := &WhisperLocal{
		model:         cfg.Model,
		modelPath:     cfg.ModelPath,
		binPath:       cfg.BinPath,
		threads:       cfg.Threads,
		http:          netutil.NewHTTPClient(0),
		run:           runCommand,
		setupProgress: -1,
	}
	if w.binPath == "" {
		w.binPath = findWhisperBinary()
	}
	if _, err := os.Stat(w.modelPath); err == nil && w.binPath != "" {
		w.ready = true
		w.setupProgress = 100
	}
	return w, nil
}

// DefaultModelDir is where downloaded models live.
func DefaultModelDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "vibeflow", "models"), nil
}

func (w *WhisperLocal) Name() string { return "whisper-local" }
func (w *WhisperLocal) DisplayName() string {
	if w.binPath == "" {
		return fmt.Sprintf("Whisper Local (%s) [whisper.cpp not installed]", w.model)
	}
	return fmt.Sprintf("Whisper Local (%s)", w.model)
}
func (w *WhisperLocal) IsLocal() bool       { return true }
func (w *WhisperLocal) RequiresSetup() bool { return !w.IsReady() }

// HasBinary returns true if the whisper.cpp CLI was found.
func (w *WhisperLocal) HasBinary() bool { return w.binPath != "" }

func (w *WhisperLocal) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ready
}

func (w *WhisperLocal) SetupProgress() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.setupProgress
}

// Setup downloads the model if it is missing.
func (w *WhisperLocal) Setup(ctx context.Context, progress func(percent int)) error {
	if w.IsReady() {
		return nil
	}
	if w.binPath == "" {
		return fmt.Errorf("whisper.cpp binary not found, install whisper-cli")
	}

	if _, err := os.Stat(w.modelPath); err != nil {
		w.setProgress(0, progress)
		if err := os.MkdirAll(filepath.Dir(w.modelPath), 0o755); err != nil {
			return fmt.Errorf("create model dir: %w", err)
		}
		if err := w.downloadModel(ctx, progress); err != nil {
			w.setProgress(-1, nil)
			return fmt.Errorf("download model: %w", err)
		}
	}

	w.mu.Lock()
	w.ready = true
	w.mu.Unlock()
	w.setProgress(100, progress)
	return nil
}

func (w *WhisperLocal) setProgress(pct int, progress func(int)) {
	w.mu.Lock()
	w.setupProgress = pct
	w.mu.Unlock()
	if progress != nil && pct >= 0 {
		progress(pct)
	}
}

func (w *WhisperLocal) downloadModel(ctx context.Context, progress func(percent int)) error {
	url := modelBaseURL + "ggml-" + w.model + ".bin"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status: %d", resp.StatusCode)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = modelSizes[w.model]
	}

	tmpPath := w.modelPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // no-op after a successful rename
	}()

	pw := &progressWriter{total: total, report: func(pct int) { w.setProgress(pct, progress) }}
	if _, err := io.Copy(f, io.TeeReader(resp.Body, pw)); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpPath, w.modelPath); err != nil {
		return fmt.Errorf("rename file: %w", err)
	}
	return nil
}

// progressWriter reports whole-percent download progress, capped at 99 until
// the file is in place.
type progressWriter struct {
	total   int64
	written int64
	last    int
	report  func(int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total > 0 {
		pct := min(int(p.written*100/p.total), 99)
		if pct > p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return len(b), nil
}

// Transcribe writes audio to a temporary WAV and runs the CLI on it.
func (w *WhisperLocal) Transcribe(ctx context.Context, audio []float32, opts Options) (*Result, error) {
	if !w.IsReady() {
		return nil, ErrNotReady
	}

	f, err := os.CreateTemp("", "vibeflow-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp wav: %w", err)
	}
	defer os.Remove(f.Name())
	if err := wavfile.Write(f, audio, SampleRate); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp wav: %w", err)
	}

	out, err := w.run(ctx, w.binPath, w.args(f.Name(), opts))
	if err != nil {
		return nil, err
	}
	return &Result{Text: parseCLIOutput(out), Language: opts.Language}, nil
}

func (w *WhisperLocal) args(wavPath string, opts Options) []string {
	lang := opts.Language
	if lang == "" {
		lang = "auto"
	}
	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-l", lang,
		"-t", strconv.Itoa(w.threads),
		"-nt",
		"-np",
	}
	if opts.Prompt != "" {
		args = append(args, "--prompt", opts.Prompt)
	}
	return args
}

// parseCLIOutput joins the non-empty lines whisper.cpp prints to stdout.
func parseCLIOutput(out []byte) string {
	var parts []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

func runCommand(ctx context.Context, bin string, args []string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func findWhisperBinary() string {
	// whisper-cli is the Homebrew name
	names := []string{"whisper-cli", "whisper-cpp", "whisper"}

	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	homeDir, _ := os.UserHomeDir()
	locations := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		filepath.Join(homeDir, ".local", "bin"),
		filepath.Join(homeDir, "whisper.cpp", "build", "bin"),
	}
	for _, loc := range locations {
		for _, name := range names {
			path := filepath.Join(loc, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	if runtime.GOOS == "darwin" {
		execPath, _ := os.Executable()
		bundlePath := filepath.Join(filepath.Dir(execPath), "..", "Resources", "whisper-cli")
		if _, err := os.Stat(bundlePath); err == nil {
			return bundlePath
		}
	}
	return ""
}

func (w *WhisperLocal) Close() error {
	return nil
}
