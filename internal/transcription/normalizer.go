package transcription

import (
	"regexp"
	"strings"
	"unicode"
)

// Boilerplate lines the ASR model hallucinates from crowd-sourced subtitle
// training data. Matching is exact after trimming, never substring.
var boilerplateLines = map[string]bool{
	"Subtítulos realizados por la comunidad de Amara.org": true,
	"Subtitles by Amara.org community":                    true,
}

var spaceBeforePunct = regexp.MustCompile(`\s+([.,])`)

// Normalizer applies a fixed pipeline of text transforms to concatenated
// segment text: boilerplate removal, consecutive-line de-duplication,
// repeated-token collapsing, and punctuation spacing fixes. The pipeline is
// pure and deterministic, and normalizing already-normalized text returns it
// unchanged.
type Normalizer struct {
	maxLineRuns int
}

// NewNormalizer creates a normalizer. maxLineRuns is the number of
// occurrences a run of identical lines is collapsed down to; values below 1
// are treated as 1.
func NewNormalizer(maxLineRuns int) *Normalizer {
	if maxLineRuns < 1 {
		maxLineRuns = 1
	}
	return &Normalizer{maxLineRuns: maxLineRuns}
}

// Normalize runs the full pipeline over the given text.
func (n *Normalizer) Normalize(text string) string {
	text = stripBoilerplate(text)
	text = dedupeLines(text, n.maxLineRuns)
	text = collapseRepeatedTokens(text)
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// stripBoilerplate drops blank lines and lines that exactly match a known
// boilerplate entry after trimming.
func stripBoilerplate(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || boilerplateLines[line] {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// dedupeLines collapses runs of identical trimmed lines down to maxRuns
// occurrences. Blank lines are dropped.
func dedupeLines(text string, maxRuns int) string {
	var out []string
	var last string
	run := 0
	seen := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if seen && line == last {
			run++
			if run < maxRuns {
				out = append(out, line)
			}
			continue
		}
		last, run, seen = line, 0, true
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// collapseRepeatedTokens collapses a word repeating three or more times in a
// row, separated only by commas and whitespace, down to its first
// occurrence. Comparison is case-insensitive; the first occurrence's casing
// survives. ASR decoders occasionally emit pathological repeated-word
// artifacts ("hola hola hola") that must not reach the final transcript.
func collapseRepeatedTokens(text string) string {
	words, seps := splitWords(text)
	if len(words) == 0 {
		return text
	}

	var b strings.Builder
	b.WriteString(seps[0])
	i := 0
	for i < len(words) {
		// Extend the run while the next word matches case-insensitively and
		// the separator between them is only commas/whitespace.
		j := i
		for j+1 < len(words) &&
			strings.EqualFold(words[j+1], words[i]) &&
			isCollapsibleSeparator(seps[j+1]) {
			j++
		}

		b.WriteString(words[i])
		if j-i+1 >= 3 {
			// Drop the repeats along with their leading separators.
			b.WriteString(seps[j+1])
		} else {
			for k := i + 1; k <= j; k++ {
				b.WriteString(seps[k])
				b.WriteString(words[k])
			}
			b.WriteString(seps[j+1])
		}
		i = j + 1
	}
	return b.String()
}

// splitWords splits text into word tokens (letters, digits, underscore) and
// the separators around them. seps has len(words)+1 entries: seps[i] precedes
// words[i], seps[len(words)] is the trailing separator.
func splitWords(text string) (words, seps []string) {
	runes := []rune(text)
	i := 0
	var sep strings.Builder
	for i < len(runes) {
		if isWordRune(runes[i]) {
			seps = append(seps, sep.String())
			sep.Reset()
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			words = append(words, string(runes[i:j]))
			i = j
			continue
		}
		sep.WriteRune(runes[i])
		i++
	}
	seps = append(seps, sep.String())
	return words, seps
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// isCollapsibleSeparator reports whether a separator between two identical
// words consists only of commas and whitespace (and is non-empty).
func isCollapsibleSeparator(sep string) bool {
	if sep == "" {
		return false
	}
	for _, r := range sep {
		if r != ',' && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
