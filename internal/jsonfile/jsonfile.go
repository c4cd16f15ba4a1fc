// Package jsonfile implements the JSON document backend for the
// Smeagol store. The whole settings tree lives in one UTF-8 JSON file
// with sorted keys and four-space indentation; writes use the
// temp-file, fsync, rename pattern so a failed save never corrupts
// the previous document.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrParse marks a backing file that exists but does not hold a valid
// JSON object.
var ErrParse = errors.New("malformed settings document")

// Backend reads and writes a settings document at a fixed file path.
type Backend struct {
	path string
}

// New creates a backend for the given file path. The file and its
// directory need not exist yet; Save creates both.
func New(path string) *Backend {
	return &Backend{path: path}
}

// Path returns the backing file location.
func (b *Backend) Path() string {
	return b.path
}

// Load reads and parses the backing file. A missing file yields an
// empty document. Numbers decode as json.Number so the exact textual
// form survives a round-trip.
func (b *Backend) Load() (map[string]any, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", b.path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, b.path, err)
	}
	return doc, nil
}

// Save atomically replaces the backing file with the serialized
// document. encoding/json emits object keys in sorted byte order, so
// output for a given document is byte-identical across saves.
func (b *Backend) Save(doc map[string]any) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling document: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing document: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", b.path, err)
	}

	// Best effort: force the rename to disk. Not all platforms
	// support fsync on directories.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// Erase removes the backing file. A file that is already gone is not
// an error.
func (b *Backend) Erase() error {
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Close releases resources; the jsonfile backend holds none open
// between calls.
func (b *Backend) Close() error {
	return nil
}
