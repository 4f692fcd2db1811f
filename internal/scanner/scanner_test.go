package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestScanFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.mp3", "b.wav", "c.m4a", "d.opus", "e.ogg", "notes.txt", "cover.jpg", "f.flac")

	inputs, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(inputs) != 5 {
		t.Fatalf("discovered %d files, want 5: %+v", len(inputs), inputs)
	}
}

func TestScanExtensionMatchIsCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "loud.MP3", "quiet.Wav")

	inputs, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("discovered %d files, want 2", len(inputs))
	}
}

func TestScanIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "top.mp3")
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFiles(t, sub, "deep.mp3")

	inputs, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(inputs) != 1 || inputs[0].Name != "top.mp3" {
		t.Fatalf("discovered %+v, want only top.mp3", inputs)
	}
}

func TestScanNaturalOrderAndIndices(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "10 final.mp3", "2 medio.mp3", "1 inicio.mp3", "anexo.mp3")

	inputs, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	wantNames := []string{"1 inicio.mp3", "2 medio.mp3", "10 final.mp3", "anexo.mp3"}
	for i, want := range wantNames {
		if inputs[i].Name != want {
			t.Fatalf("position %d: got %q, want %q (all: %+v)", i, inputs[i].Name, want, inputs)
		}
		if inputs[i].Index != i+1 {
			t.Fatalf("position %d: index %d, want %d", i, inputs[i].Index, i+1)
		}
	}
}

func TestAudioInputOutputBase(t *testing.T) {
	in := AudioInput{Stem: "entrevista final", Index: 3}
	if got := in.OutputBase(); got != "3 - entrevista final" {
		t.Fatalf("OutputBase() = %q, want %q", got, "3 - entrevista final")
	}
}

func TestScanStemStripsOnlyExtension(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "v2.0 notas.mp3")

	inputs, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if inputs[0].Stem != "v2.0 notas" {
		t.Fatalf("stem = %q, want %q", inputs[0].Stem, "v2.0 notas")
	}
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	if !errors.Is(err, ErrInputDirUnreadable) {
		t.Fatalf("err = %v, want ErrInputDirUnreadable", err)
	}
}

func TestScanEmptyDirectoryIsNotAnError(t *testing.T) {
	inputs, err := Scan(t.TempDir())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(inputs) != 0 {
		t.Fatalf("discovered %d files in empty dir", len(inputs))
	}
}
