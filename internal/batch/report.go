package batch

import (
	"fmt"
	"strings"

	"github.com/yegors/batchscribe/internal/output"
)

// Failure records one file that failed entirely.
type Failure struct {
	Name    string // input file name
	Message string // error description
}

// Report aggregates the whole run. It is created empty at batch start,
// folded once per file, and read once at batch end. Durations accumulate as
// soon as the engine reports them, so a file that fails after transcription
// still contributes its duration.
type Report struct {
	TotalDuration float64 // seconds of audio transcribed
	Processed     int     // files whose artifacts were fully written
	Failures      []Failure
}

// Succeeded reports whether every file was processed without failure.
func (r *Report) Succeeded() bool {
	return len(r.Failures) == 0
}

// Summary renders the end-of-run report for the console.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total transcribed duration: %s\n", output.FormatClock(r.TotalDuration))
	if len(r.Failures) == 0 {
		b.WriteString("All transcriptions completed successfully.\n")
		return b.String()
	}
	b.WriteString("Files with errors:\n")
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "  - %s: %s\n", f.Name, f.Message)
	}
	return b.String()
}
