// Package captions loads the persisted scene-caption store: a JSON
// object mapping a scene identifier (usually an image path or object
// key) to the caption text produced by the captioning model.
package captions

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Store maps scene identifiers to caption text.
type Store map[string]string

// CorruptError reports a caption store that could not be decoded.
type CorruptError struct {
	Source string
	Err    error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("captions: corrupt store %s: %v", e.Source, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// Load reads a caption store from a JSON file.
func Load(path string) (Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open caption store: %w", err)
	}
	defer f.Close()

	return Decode(f, path)
}

// Decode reads a caption store from a reader. source is used in error
// messages only.
func Decode(r io.Reader, source string) (Store, error) {
	var store Store
	if err := json.NewDecoder(r).Decode(&store); err != nil {
		return nil, &CorruptError{Source: source, Err: err}
	}
	return store, nil
}

// Words returns the unique lowercase words across all captions, sorted.
// The CLI uses this to suggest search terms.
func (s Store) Words() []string {
	seen := make(map[string]struct{})
	for _, caption := range s {
		for _, w := range strings.Fields(strings.ToLower(caption)) {
			seen[w] = struct{}{}
		}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return words
}
