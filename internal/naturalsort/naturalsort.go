// Package naturalsort orders file names the way a directory listing on
// Windows does: names with a leading number sort first by numeric value,
// everything else follows case-insensitively, and embedded digit runs
// compare as numbers so "item2" comes before "item10".
package naturalsort

import (
	"math"
	"strings"
)

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

// Key is a precomputed comparison key for one file name. Keys form a total
// order over all strings, including the empty string.
type Key struct {
	class   int     // 0 = digit-prefixed name, 1 = everything else
	leading float64 // numeric value of the digit prefix, +Inf otherwise
	tokens  []token
}

type token struct {
	numeric bool
	number  uint64
	text    string // case-folded, only set for non-numeric tokens
}

// NewKey computes the ordering key for a file name.
func NewKey(name string) Key {
	name = strings.TrimSpace(name)

	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i > 0 {
		return Key{class: 0, leading: float64(parseDigits(name[:i])), tokens: tokenize(name[i:])}
	}
	return Key{class: 1, leading: math.Inf(1), tokens: tokenize(name)}
}

// Less reports whether the name that produced k sorts before the name that
// produced other.
func (k Key) Less(other Key) bool {
	if k.class != other.class {
		return k.class < other.class
	}
	if k.leading != other.leading {
		return k.leading < other.leading
	}
	return compareTokens(k.tokens, other.tokens) < 0
}

// LessNames is a convenience comparator over raw file names.
func LessNames(a, b string) bool {
	return NewKey(a).Less(NewKey(b))
}

// tokenize splits a string at digit-run boundaries into an alternating
// sequence of non-digit and digit tokens. Non-digit tokens are case-folded,
// digit tokens carry their numeric value.
func tokenize(s string) []token {
	var tokens []token
	runes := []rune(s)
	i := 0
	for i < len(runes) {
		j := i
		if isASCIIDigit(runes[i]) {
			for j < len(runes) && isASCIIDigit(runes[j]) {
				j++
			}
			tokens = append(tokens, token{numeric: true, number: parseDigits(string(runes[i:j]))})
		} else {
			for j < len(runes) && !isASCIIDigit(runes[j]) {
				j++
			}
			tokens = append(tokens, token{text: strings.ToLower(string(runes[i:j]))})
		}
		i = j
	}
	return tokens
}

func compareTokens(a, b []token) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		ta, tb := a[i], b[i]
		if ta.numeric != tb.numeric {
			// A digit token sorts before a text token at the same position,
			// matching tuple comparison of (int, str) mixed keys.
			if ta.numeric {
				return -1
			}
			return 1
		}
		if ta.numeric {
			if ta.number != tb.number {
				if ta.number < tb.number {
					return -1
				}
				return 1
			}
			continue
		}
		if ta.text != tb.text {
			if ta.text < tb.text {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// parseDigits converts an ASCII digit run to its value, saturating on
// overflow so pathological names still order consistently.
func parseDigits(s string) uint64 {
	var n uint64
	for i := 0; i < len(s); i++ {
		d := uint64(s[i] - '0')
		if n > (math.MaxUint64-d)/10 {
			return math.MaxUint64
		}
		n = n*10 + d
	}
	return n
}
