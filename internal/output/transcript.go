package output

import (
	"fmt"
	"math"
	"os"
)

// FormatClock renders a duration in seconds as HH:MM:SS. Seconds are
// floored; negative or unknown durations render as 00:00:00.
func FormatClock(seconds float64) string {
	total := int64(math.Floor(seconds))
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// RenderTranscript renders the plain-text transcript artifact: base name,
// duration line, and the normalized body under a fixed label.
func RenderTranscript(baseName string, durationSeconds float64, normalizedText string) string {
	return fmt.Sprintf("%s\nDuration: %s\n\nTranscript:\n\n%s\n",
		baseName, FormatClock(durationSeconds), normalizedText)
}

// WriteTranscript writes the transcript artifact.
func WriteTranscript(path, baseName string, durationSeconds float64, normalizedText string) error {
	content := RenderTranscript(baseName, durationSeconds, normalizedText)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}
