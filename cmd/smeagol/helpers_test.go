package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/smeagol/pkg/pocket"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want any
	}{
		{"integer", "101", json.Number("101")},
		{"float", "13.501", json.Number("13.501")},
		{"true", "true", true},
		{"false", "false", false},
		{"null", "null", nil},
		{"quoted string", `"hello"`, "hello"},
		{"list", `[1, "two"]`, []any{json.Number("1"), "two"}},
		{"object", `{"k": 1}`, map[string]any{"k": json.Number("1")}},
		{"bare word", "hello", "hello"},
		{"broken json", `{"k":`, `{"k":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.arg))
		})
	}
}

func TestDescend(t *testing.T) {
	t.Run("create builds missing levels", func(t *testing.T) {
		root := pocket.New()

		leaf, err := descend(root, []string{"a", "b"}, true)
		require.NoError(t, err)
		require.NoError(t, leaf.Set("k", "v"))

		sub, err := descend(root, []string{"a", "b"}, false)
		require.NoError(t, err)
		v, ok := sub.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v", v)
	})

	t.Run("empty path is the root", func(t *testing.T) {
		root := pocket.New()
		got, err := descend(root, nil, false)
		require.NoError(t, err)
		assert.Same(t, root, got)
	})

	t.Run("missing key without create", func(t *testing.T) {
		root := pocket.New()
		_, err := descend(root, []string{"missing"}, false)
		assert.ErrorIs(t, err, pocket.ErrKeyNotFound)
	})

	t.Run("scalar in path", func(t *testing.T) {
		root := pocket.New()
		require.NoError(t, root.Set("data", "My Precious!"))

		_, err := descend(root, []string{"data"}, false)
		assert.ErrorIs(t, err, pocket.ErrTypeConflict)

		_, err = descend(root, []string{"data"}, true)
		assert.ErrorIs(t, err, pocket.ErrTypeConflict)
	})
}
