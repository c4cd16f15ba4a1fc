package sqlite

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.db")
	b := New(path)
	t.Cleanup(func() { b.Close() })
	return b, path
}

func TestLoadNeverSaved(t *testing.T) {
	b, _ := newBackend(t)

	doc, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b, _ := newBackend(t)

	doc := map[string]any{
		"name":    "ultimaker",
		"enabled": true,
		"count":   json.Number("101"),
		"ratio":   json.Number("13.501"),
		"nothing": nil,
		"tags":    []any{json.Number("1"), "two", false, map[string]any{"k": "v"}},
		"extruder_1": map[string]any{
			"primed": false,
			"nozzle": map[string]any{"size": json.Number("0.4")},
		},
	}
	require.NoError(t, b.Save(doc))

	got, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestEmptyPocketSurvives(t *testing.T) {
	b, _ := newBackend(t)

	doc := map[string]any{"empty": map[string]any{}}
	require.NoError(t, b.Save(doc))

	got, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestSaveReplacesDocument(t *testing.T) {
	b, _ := newBackend(t)

	require.NoError(t, b.Save(map[string]any{
		"old":  "value",
		"deep": map[string]any{"gone": true},
	}))
	next := map[string]any{"fresh": "start"}
	require.NoError(t, b.Save(next))

	got, err := b.Load()
	require.NoError(t, err)
	assert.Equal(t, next, got, "removed keys must not linger")
}

func TestErase(t *testing.T) {
	b, _ := newBackend(t)

	require.NoError(t, b.Save(map[string]any{"k": "v"}))
	require.NoError(t, b.Erase())

	doc, err := b.Load()
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestReopenAfterClose(t *testing.T) {
	b, path := newBackend(t)

	doc := map[string]any{"persistent": true}
	require.NoError(t, b.Save(doc))
	require.NoError(t, b.Close())

	reopened := New(path)
	defer reopened.Close()

	got, err := reopened.Load()
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestPathEncoding(t *testing.T) {
	tests := []struct {
		keys []string
		want string
	}{
		{nil, "[]"},
		{[]string{"a"}, `["a"]`},
		{[]string{"a", "b c"}, `["a","b c"]`},
		{[]string{`qu"ote`}, `["qu\"ote"]`},
	}
	for _, tt := range tests {
		got, err := encodePath(tt.keys)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)

		keys, err := decodePath(got)
		require.NoError(t, err)
		if len(tt.keys) == 0 {
			assert.Empty(t, keys)
		} else {
			assert.Equal(t, tt.keys, keys)
		}
	}
}
