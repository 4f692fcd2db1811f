package transcription

import (
	"strings"
	"testing"
)

func TestNormalizeCollapsesConsecutiveDuplicateLines(t *testing.T) {
	n := NewNormalizer(1)

	got := n.Normalize("hi\nhi\nhi\nbye")
	if got != "hi\nbye" {
		t.Fatalf("normalized = %q, want %q", got, "hi\nbye")
	}
}

func TestNormalizeMaxLineRunsKeepsExtraOccurrences(t *testing.T) {
	n := NewNormalizer(2)

	got := n.Normalize("hi\nhi\nhi\nhi\nbye")
	if got != "hi\nhi\nbye" {
		t.Fatalf("normalized = %q, want %q", got, "hi\nhi\nbye")
	}
}

func TestNormalizeCollapsesRepeatedTokens(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hola hola hola", "hola"},
		{"Item, Item, Item", "Item"},
		{"hola hola", "hola hola"},               // only two, kept
		{"Hola hola HOLA mundo", "Hola mundo"},   // case-insensitive, first casing wins
		{"hola, hola, hola.", "hola."},           // trailing punctuation survives
		{"bien. bien. bien.", "bien. bien. bien."}, // separator contains '.', not collapsible
	}
	n := NewNormalizer(1)
	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeRemovesBoilerplateExactMatchOnly(t *testing.T) {
	n := NewNormalizer(1)

	credit := "Subtítulos realizados por la comunidad de Amara.org"

	got := n.Normalize("buenos días\n" + credit + "\nhasta luego")
	if got != "buenos días\nhasta luego" {
		t.Fatalf("normalized = %q, want credit line removed", got)
	}

	// A line merely containing the credit as a substring stays.
	embedded := "dijo: " + credit
	got = n.Normalize(embedded)
	if got != embedded {
		t.Fatalf("normalized = %q, substring match must not be removed", got)
	}
}

func TestNormalizeEnglishBoilerplate(t *testing.T) {
	n := NewNormalizer(1)
	got := n.Normalize("hello\nSubtitles by Amara.org community\ngoodbye")
	if got != "hello\ngoodbye" {
		t.Fatalf("normalized = %q, want english credit removed", got)
	}
}

func TestNormalizeFixesPunctuationSpacing(t *testing.T) {
	n := NewNormalizer(1)

	got := n.Normalize("hola , mundo .")
	if got != "hola, mundo." {
		t.Fatalf("normalized = %q, want %q", got, "hola, mundo.")
	}
}

func TestNormalizeDropsBlankLines(t *testing.T) {
	n := NewNormalizer(1)

	got := n.Normalize("uno\n\n\ndos\n   \ntres")
	if got != "uno\ndos\ntres" {
		t.Fatalf("normalized = %q, want blanks dropped", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := NewNormalizer(1)

	inputs := []string{
		"hi\nhi\nhi\nbye",
		"hola hola hola mundo",
		"texto , con espacios .\ntexto , con espacios .",
		"Subtítulos realizados por la comunidad de Amara.org\ncontenido real",
		"",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		twice := n.Normalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(1)
	if got := n.Normalize(""); got != "" {
		t.Fatalf("Normalize(\"\") = %q, want empty", got)
	}
}

func TestNormalizeTrimsResult(t *testing.T) {
	n := NewNormalizer(1)
	got := n.Normalize("  contenido  ")
	if got != "contenido" {
		t.Fatalf("normalized = %q, want trimmed", got)
	}
	if strings.HasPrefix(got, " ") || strings.HasSuffix(got, " ") {
		t.Fatalf("result has surrounding whitespace: %q", got)
	}
}
