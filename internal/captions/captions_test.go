package captions

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene_captions.json")
	content := `{
		"scene_images/scene_1.png": "super mario bros trailer",
		"scene_images/scene_2.png": "a red mushroom in a forest"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	store, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, store, 2)
	assert.Equal(t, "super mario bros trailer", store["scene_images/scene_1.png"])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	var cerr *CorruptError
	assert.False(t, errors.As(err, &cerr), "missing file is not a corrupt store")
}

func TestDecodeCorrupt(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"a": "b",`), "broken.json")
	require.Error(t, err)

	var cerr *CorruptError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "broken.json", cerr.Source)
}

func TestWords(t *testing.T) {
	store := Store{
		"a": "Super Mario bros",
		"b": "mario jumps high",
	}

	words := store.Words()
	assert.Equal(t, []string{"bros", "high", "jumps", "mario", "super"}, words)
}
