// Package output renders transcription results into their on-disk
// artifacts: an SRT subtitle track and a plain-text transcript.
package output

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/yegors/batchscribe/internal/engine"
)

// FormatSRTTimestamp renders seconds as an SRT timestamp, HH:MM:SS,mmm.
// Times are floored to millisecond precision; negative times clamp to zero.
func FormatSRTTimestamp(seconds float64) string {
	ms := int64(math.Floor(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := (ms % 3_600_000) / 60_000
	s := (ms % 60_000) / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// RenderSRT renders accepted segments as an SRT document. Cue numbers are
// sequential and 1-based over emitted cues only: segments whose trimmed text
// is empty are skipped without leaving a gap. Embedded newlines are
// flattened to single spaces.
func RenderSRT(segments []engine.Segment) string {
	var b strings.Builder
	index := 1
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		text = strings.ReplaceAll(text, "\n", " ")
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			index,
			FormatSRTTimestamp(seg.Start),
			FormatSRTTimestamp(seg.End),
			text)
		index++
	}
	return b.String()
}

// WriteSRT writes the subtitle artifact for the given segments.
func WriteSRT(path string, segments []engine.Segment) error {
	if err := os.WriteFile(path, []byte(RenderSRT(segments)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}
