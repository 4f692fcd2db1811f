// Package engine wraps the external speech-to-text backends behind a single
// interface. The rest of the pipeline only sees ordered segments and summary
// metadata; model loading, device selection, and fallback live here.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/yegors/batchscribe/internal/config"
	"github.com/yegors/batchscribe/pkg/logger"
)

// ErrEngineUnavailable indicates that neither the primary nor the fallback
// model configuration could be constructed. The whole batch aborts.
var ErrEngineUnavailable = errors.New("engine unavailable")

// Segment is one unit of recognized speech.
type Segment struct {
	Start      float64  `json:"start"` // Seconds from the start of the audio
	End        float64  `json:"end"`   // Seconds, End >= Start
	Text       string   `json:"text"`
	AvgLogProb *float64 `json:"avg_logprob"` // nil means the backend provided no confidence
}

// Result holds the output of one transcribe call. Segments arrive in
// non-decreasing start order; the pipeline never re-sorts them.
type Result struct {
	Duration float64   `json:"duration"` // Total audio duration in seconds (0 = unknown)
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Engine is a loaded speech recognition backend. Transcribe is synchronous
// and blocking; Close releases model and device resources.
type Engine interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
	Model() string
	Close() error
}

// New constructs the configured backend with the primary model, falling back
// once to the configured fallback model if the primary cannot be loaded.
func New(cfg config.EngineConfig, log *logger.Logger) (Engine, error) {
	eng, primaryErr := construct(cfg, cfg.Model, log)
	if primaryErr == nil {
		return eng, nil
	}

	if cfg.FallbackModel == "" || cfg.FallbackModel == cfg.Model {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineUnavailable, cfg.Model, primaryErr)
	}

	log.Warn("Primary model unavailable, trying fallback",
		logger.String("model", cfg.Model),
		logger.String("fallback", cfg.FallbackModel),
		logger.Error(primaryErr))

	eng, fallbackErr := construct(cfg, cfg.FallbackModel, log)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%w: %s: %v; fallback %s: %v",
			ErrEngineUnavailable, cfg.Model, primaryErr, cfg.FallbackModel, fallbackErr)
	}
	return eng, nil
}

func construct(cfg config.EngineConfig, model string, log *logger.Logger) (Engine, error) {
	switch cfg.Backend {
	case "fasterwhisper":
		return newFasterWhisper(cfg, model, log)
	case "gemini":
		return newGemini(cfg, model, log)
	case "stub":
		return newStub(model, log), nil
	default:
		return nil, fmt.Errorf("unknown engine backend: %s", cfg.Backend)
	}
}
