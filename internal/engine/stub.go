package engine

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/yegors/batchscribe/pkg/logger"
)

// stubEngine produces deterministic canned segments derived from the file
// name. It exists for dry runs and for exercising the pipeline without a
// model installed; two runs over the same inputs yield identical output.
type stubEngine struct {
	model  string
	logger *logger.Logger
}

func newStub(model string, log *logger.Logger) *stubEngine {
	log.Named("stub").Warn("Using stub engine, output is synthetic")
	return &stubEngine{model: model, logger: log.Named("stub")}
}

func (e *stubEngine) Transcribe(_ context.Context, audioPath string) (*Result, error) {
	h := fnv.New32a()
	h.Write([]byte(audioPath))
	seed := h.Sum32()

	count := int(seed%3) + 2
	segments := make([]Segment, 0, count)
	cursor := 0.0
	for i := 0; i < count; i++ {
		length := 2.0 + float64((seed>>uint(i*4))%5)
		segments = append(segments, Segment{
			Start: cursor,
			End:   cursor + length,
			Text:  fmt.Sprintf("stub segment %d of %s", i+1, audioPath),
		})
		cursor += length + 0.5
	}

	return &Result{
		Duration: cursor,
		Language: "es",
		Segments: segments,
	}, nil
}

func (e *stubEngine) Model() string { return e.model }

func (e *stubEngine) Close() error { return nil }
