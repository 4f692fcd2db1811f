// Package transcription turns raw engine output into trustworthy transcript
// text: confidence filtering first, then a fixed normalization pipeline over
// the surviving segment texts.
package transcription

import (
	"strings"

	"github.com/yegors/batchscribe/internal/engine"
)

// DefaultMinAvgLogProb is the confidence floor below which segments are
// considered too dubious to keep.
const DefaultMinAvgLogProb = -1.0

// Filter discards individual recognized segments before they reach the
// normalizer or the subtitle writer.
type Filter struct {
	minAvgLogProb float64
}

// NewFilter creates a segment filter with the given confidence floor.
func NewFilter(minAvgLogProb float64) *Filter {
	return &Filter{minAvgLogProb: minAvgLogProb}
}

// Accept returns the segments that pass the confidence floor and have
// non-empty trimmed text. Order is preserved; segments without a confidence
// value always pass the confidence check. Accepted segments carry trimmed
// text.
func (f *Filter) Accept(segments []engine.Segment) []engine.Segment {
	accepted := make([]engine.Segment, 0, len(segments))
	for _, seg := range segments {
		if seg.AvgLogProb != nil && *seg.AvgLogProb < f.minAvgLogProb {
			continue
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		seg.Text = text
		accepted = append(accepted, seg)
	}
	return accepted
}

// JoinSegmentTexts concatenates accepted segment texts, one per line, in
// order. This is the normalizer's input.
func JoinSegmentTexts(segments []engine.Segment) string {
	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	return strings.Join(texts, "\n")
}
