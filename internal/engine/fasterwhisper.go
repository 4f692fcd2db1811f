package engine

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yegors/batchscribe/internal/config"
	"github.com/yegors/batchscribe/pkg/logger"
)

//go:embed assets/faster_whisper.py
var fasterWhisperAssets embed.FS

// fasterWhisperEngine runs a local faster-whisper model through an embedded
// Python helper that speaks JSON over stdout. Constructing the engine probes
// the model load so an unavailable model fails before the batch starts.
type fasterWhisperEngine struct {
	cfg        config.EngineConfig
	model      string
	scriptPath string
	logger     *logger.Logger
}

func newFasterWhisper(cfg config.EngineConfig, model string, log *logger.Logger) (*fasterWhisperEngine, error) {
	script, err := fasterWhisperAssets.ReadFile("assets/faster_whisper.py")
	if err != nil {
		return nil, fmt.Errorf("read embedded helper: %w", err)
	}

	scriptPath := filepath.Join(os.TempDir(), "batchscribe_faster_whisper.py")
	if err := os.WriteFile(scriptPath, script, 0o755); err != nil {
		return nil, fmt.Errorf("write helper script: %w", err)
	}

	e := &fasterWhisperEngine{
		cfg:        cfg,
		model:      model,
		scriptPath: scriptPath,
		logger:     log.Named("fasterwhisper"),
	}

	if err := e.probe(); err != nil {
		os.Remove(scriptPath)
		return nil, fmt.Errorf("load model %s: %w", model, err)
	}

	e.logger.Info("Model loaded",
		logger.String("model", model),
		logger.String("device", cfg.Device),
		logger.String("compute_type", cfg.ComputeType))
	return e, nil
}

// probe loads the model in the helper and exits, verifying the model name,
// device, and precision are usable before any file is transcribed.
func (e *fasterWhisperEngine) probe() error {
	cmd := exec.Command(e.python(), e.scriptPath,
		"--probe",
		"--model", e.model,
		"--device", e.cfg.Device,
		"--compute-type", e.cfg.ComputeType,
	)
	cmd.Env = os.Environ()
	out, err := cmd.Output()
	if err != nil {
		return helperError(err)
	}
	var status struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(out, &status); err != nil || !status.OK {
		return fmt.Errorf("unexpected probe output: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

func (e *fasterWhisperEngine) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	args := []string{
		e.scriptPath,
		"--audio", audioPath,
		"--model", e.model,
		"--device", e.cfg.Device,
		"--compute-type", e.cfg.ComputeType,
		"--language", e.cfg.Language,
		"--beam-size", strconv.Itoa(e.cfg.BeamSize),
		"--vad-min-silence-ms", strconv.Itoa(e.cfg.VADMinSilenceMs),
		"--temperature", strconv.FormatFloat(e.cfg.Temperature, 'f', -1, 64),
		"--no-speech-threshold", strconv.FormatFloat(e.cfg.NoSpeechThreshold, 'f', -1, 64),
		"--compression-ratio-threshold", strconv.FormatFloat(e.cfg.CompressionRatioThreshold, 'f', -1, 64),
	}
	if e.cfg.VADFilter {
		args = append(args, "--vad-filter")
	}
	if e.cfg.ConditionOnPreviousText {
		args = append(args, "--condition-on-previous-text")
	}

	cmd := exec.CommandContext(ctx, e.python(), args...)
	cmd.Env = os.Environ()
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, helperError(err)
	}

	var result Result
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, fmt.Errorf("parse helper output: %w", err)
	}
	return &result, nil
}

func (e *fasterWhisperEngine) Model() string { return e.model }

// Close removes the helper script. The helper process holds the model and
// device memory, so per-call cleanup already happened at process exit.
func (e *fasterWhisperEngine) Close() error {
	return os.Remove(e.scriptPath)
}

func (e *fasterWhisperEngine) python() string {
	if e.cfg.PythonPath != "" {
		return e.cfg.PythonPath
	}
	return "python3"
}

// helperError surfaces the helper's stderr, which carries the Python
// exception text, instead of the bare exit status.
func helperError(err error) error {
	if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
		return fmt.Errorf("helper failed: %s", strings.TrimSpace(string(ee.Stderr)))
	}
	return fmt.Errorf("run helper: %w", err)
}
