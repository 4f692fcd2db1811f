// Package scanner discovers the audio files a batch run will process.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yegors/batchscribe/internal/naturalsort"
)

// ErrInputDirUnreadable indicates the input directory is missing or cannot
// be listed. This is fatal before any file is processed.
var ErrInputDirUnreadable = errors.New("input directory missing or unreadable")

// Accepted audio extensions, compared case-insensitively.
var acceptedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".opus": true,
	".ogg":  true,
}

// AudioInput identifies one source file discovered in the input directory.
// Immutable once discovered.
type AudioInput struct {
	Path  string // Full path to the audio file
	Name  string // Base name including extension
	Stem  string // Base name with the extension stripped
	Index int    // 1-based discovery index, assigned after natural sorting
}

// OutputBase returns the shared base name for this file's artifacts,
// "{index} - {stem}".
func (a AudioInput) OutputBase() string {
	return fmt.Sprintf("%d - %s", a.Index, a.Stem)
}

// Scan lists the input directory (flat, non-recursive), keeps files with an
// accepted audio extension, sorts them in natural order, and assigns 1-based
// discovery indices. An empty result is not an error.
func Scan(dir string) ([]AudioInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputDirUnreadable, dir, err)
	}

	var inputs []AudioInput
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !acceptedExtensions[ext] {
			continue
		}
		inputs = append(inputs, AudioInput{
			Path: filepath.Join(dir, name),
			Name: name,
			Stem: strings.TrimSuffix(name, filepath.Ext(name)),
		})
	}

	sort.Slice(inputs, func(i, j int) bool {
		return naturalsort.LessNames(inputs[i].Name, inputs[j].Name)
	})
	for i := range inputs {
		inputs[i].Index = i + 1
	}

	return inputs, nil
}
