package jsonfile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "settings.json"))

	doc, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	_, err := New(path).Load()
	assert.ErrorIs(t, err, ErrParse)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := New(filepath.Join(t.TempDir(), "settings.json"))

	doc := map[string]any{
		"name":    "ultimaker",
		"enabled": true,
		"count":   json.Number("101"),
		"ratio":   json.Number("13.501"),
		"nothing": nil,
		"tags":    []any{json.Number("1"), "two", false},
		"nested": map[string]any{
			"deeper": map[string]any{"leaf": "value"},
		},
	}
	require.NoError(t, b.Save(doc))

	got, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestSaveDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	b := New(path)
	doc := map[string]any{"b": json.Number("2"), "a": json.Number("1")}

	require.NoError(t, b.Save(doc))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, b.Save(doc))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Keys come out sorted with four-space indentation.
	want := "{\n    \"a\": 1,\n    \"b\": 2\n}\n"
	assert.Equal(t, want, string(first))
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "settings.json")
	b := New(path)

	require.NoError(t, b.Save(map[string]any{"k": "v"}))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	b := New(filepath.Join(dir, "settings.json"))

	require.NoError(t, b.Save(map[string]any{"k": "v"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "settings.json", entries[0].Name())
}

func TestErase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	b := New(path)

	require.NoError(t, b.Save(map[string]any{"k": "v"}))
	require.NoError(t, b.Erase())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Erasing an absent file is fine.
	assert.NoError(t, b.Erase())
}
