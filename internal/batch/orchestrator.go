// Package batch drives the transcription pipeline over a directory of audio
// files: discovery in natural order, one synchronous engine call per file,
// filter -> normalize -> write, per-file fault isolation, and a final
// report.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yegors/batchscribe/internal/config"
	"github.com/yegors/batchscribe/internal/engine"
	"github.com/yegors/batchscribe/internal/output"
	"github.com/yegors/batchscribe/internal/scanner"
	"github.com/yegors/batchscribe/internal/storage/sqlite"
	"github.com/yegors/batchscribe/internal/transcription"
	"github.com/yegors/batchscribe/pkg/logger"
)

// Orchestrator runs one batch. Files are handled strictly sequentially, in
// discovery order; artifacts for file i are fully written (or its failure
// recorded) before file i+1 begins.
type Orchestrator struct {
	engine     engine.Engine
	filter     *transcription.Filter
	normalizer *transcription.Normalizer
	cfg        *config.Config
	store      *sqlite.RunStorage // nil when run history is disabled
	logger     *logger.Logger
}

// NewOrchestrator creates a batch orchestrator. store may be nil.
func NewOrchestrator(eng engine.Engine, cfg *config.Config, store *sqlite.RunStorage, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		engine:     eng,
		filter:     transcription.NewFilter(cfg.Filter.MinAvgLogProb),
		normalizer: transcription.NewNormalizer(cfg.Normalizer.MaxLineRuns),
		cfg:        cfg,
		store:      store,
		logger:     log.Named("batch"),
	}
}

// fileOutcome is the explicit per-file result: either success with both
// artifacts written, or failure with a reason. Duration is whatever the
// engine reported before any failure (0 if the invocation itself failed).
type fileOutcome struct {
	duration float64
	segments int
	err      error
}

// Run executes one batch and returns the report. The output directory is
// destructively reset first; every run is a clean rebuild. Only discovery
// and output-directory setup can fail the whole run.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	startedAt := time.Now().UTC()

	inputs, err := scanner.Scan(o.cfg.Input.Dir)
	if err != nil {
		return nil, err
	}

	if err := resetDir(o.cfg.Output.Dir); err != nil {
		return nil, fmt.Errorf("reset output dir: %w", err)
	}

	report := &Report{}
	if len(inputs) == 0 {
		o.logger.Info("No audio files found", logger.String("dir", o.cfg.Input.Dir))
		o.storeRun(startedAt, report, nil, nil)
		return report, nil
	}

	o.logger.Info("Discovered audio files",
		logger.Int("count", len(inputs)),
		logger.String("dir", o.cfg.Input.Dir))
	for _, in := range inputs {
		o.logger.Debug("Queued file", logger.Int("index", in.Index), logger.String("file", in.Name))
	}

	outcomes := make([]fileOutcome, 0, len(inputs))
	for _, in := range inputs {
		o.logger.Info("Transcribing file",
			logger.Int("index", in.Index),
			logger.Int("total", len(inputs)),
			logger.String("file", in.Name))

		outcome := o.processFile(ctx, in)
		outcomes = append(outcomes, outcome)

		report.TotalDuration += outcome.duration
		if outcome.err != nil {
			o.logger.Error("File failed",
				logger.String("file", in.Name),
				logger.Error(outcome.err))
			report.Failures = append(report.Failures, Failure{Name: in.Name, Message: outcome.err.Error()})
			continue
		}
		report.Processed++
		o.logger.Info("File transcribed",
			logger.String("file", in.Name),
			logger.Int("segments", outcome.segments),
			logger.String("audio_duration", output.FormatClock(outcome.duration)))
	}

	o.storeRun(startedAt, report, inputs, outcomes)
	return report, nil
}

// processFile runs the per-file pipeline. All transient buffers are scoped
// here and released on every exit path before the next file begins.
func (o *Orchestrator) processFile(ctx context.Context, in scanner.AudioInput) fileOutcome {
	if o.cfg.Engine.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(o.cfg.Engine.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	result, err := o.engine.Transcribe(ctx, in.Path)
	if err != nil {
		return fileOutcome{err: fmt.Errorf("transcribe: %w", err)}
	}

	accepted := o.filter.Accept(result.Segments)
	text := o.normalizer.Normalize(transcription.JoinSegmentTexts(accepted))
	o.logPreview(text)

	base := in.OutputBase()
	txtPath := filepath.Join(o.cfg.Output.Dir, base+".txt")
	srtPath := filepath.Join(o.cfg.Output.Dir, base+".srt")

	// The engine already reported the audio duration, so it counts toward
	// the batch total even if writing fails below.
	outcome := fileOutcome{duration: result.Duration, segments: len(accepted)}

	if err := output.WriteTranscript(txtPath, base, result.Duration, text); err != nil {
		outcome.err = err
		return outcome
	}
	if err := output.WriteSRT(srtPath, accepted); err != nil {
		outcome.err = err
		return outcome
	}
	return outcome
}

func (o *Orchestrator) logPreview(text string) {
	lines := strings.Split(text, "\n")
	if len(lines) > 6 {
		lines = lines[:6]
	}
	for _, line := range lines {
		if line != "" {
			o.logger.Debug("Transcript preview", logger.String("line", line))
		}
	}
}

// storeRun records the run and its per-file outcomes. Storage problems are
// logged, never surfaced: history is a convenience, not part of the batch.
func (o *Orchestrator) storeRun(startedAt time.Time, report *Report, inputs []scanner.AudioInput, outcomes []fileOutcome) {
	if o.store == nil {
		return
	}

	runID, err := o.store.StoreRun(&sqlite.RunRecord{
		StartedAt:         startedAt,
		FinishedAt:        time.Now().UTC(),
		InputDir:          o.cfg.Input.Dir,
		OutputDir:         o.cfg.Output.Dir,
		Backend:           o.cfg.Engine.Backend,
		Model:             o.engine.Model(),
		FilesTotal:        len(inputs),
		FilesFailed:       len(report.Failures),
		TotalDurationSecs: report.TotalDuration,
	})
	if err != nil {
		o.logger.Error("Failed to store run", logger.Error(err))
		return
	}

	for i, in := range inputs {
		record := &sqlite.RunFileRecord{
			RunID:        runID,
			Position:     in.Index,
			Name:         in.Name,
			OutputBase:   in.OutputBase(),
			DurationSecs: outcomes[i].duration,
			Status:       "ok",
		}
		if outcomes[i].err != nil {
			record.Status = "failed"
			record.Error = outcomes[i].err.Error()
		}
		if _, err := o.store.StoreRunFile(record); err != nil {
			o.logger.Error("Failed to store run file",
				logger.String("file", in.Name),
				logger.Error(err))
		}
	}
}

// resetDir removes the directory and everything in it, then recreates it.
func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
