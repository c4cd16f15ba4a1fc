// Shared helpers for smeagol CLI commands.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/smeagol/pkg/pocket"
	"github.com/mesh-intelligence/smeagol/pkg/store"
)

// Settings document file names per backend.
const (
	jsonSettingsFile   = "settings.json"
	sqliteSettingsFile = "settings.db"
)

// openStore resolves the data directory and opens the settings store
// with the configured backend. The caller must defer st.Close().
// A document that failed to parse is reported as a warning; the store
// starts empty in that case.
func openStore() (*store.Store, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	backend := configBackend
	if backend == "" {
		backend = defaultBackend
	}
	fileName := jsonSettingsFile
	if backend == store.BackendSQLite {
		fileName = sqliteSettingsFile
	}

	st, err := store.Open(store.Config{
		Backend: backend,
		Path:    filepath.Join(dataDir, fileName),
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if st.LoadError() != nil {
		fmt.Fprintln(os.Stderr, "warning: starting from empty settings:", st.LoadError())
	}
	return st, nil
}

// descend walks the pocket tree along the given key path. With create
// set, missing intermediate pockets are created on demand; otherwise a
// missing key is ErrKeyNotFound and a scalar in the path is
// ErrTypeConflict.
func descend(p *pocket.Pocket, keys []string, create bool) (*pocket.Pocket, error) {
	cur := p
	for _, key := range keys {
		if create {
			sub, err := cur.SubPocket(key)
			if err != nil {
				return nil, fmt.Errorf("%q: %w", key, err)
			}
			cur = sub
			continue
		}

		v, ok := cur.Get(key)
		if !ok {
			return nil, fmt.Errorf("%q: %w", key, pocket.ErrKeyNotFound)
		}
		sub, ok := v.(*pocket.Pocket)
		if !ok {
			return nil, fmt.Errorf("%q: %w", key, pocket.ErrTypeConflict)
		}
		cur = sub
	}
	return cur, nil
}

// parseValue interprets a command-line value argument: valid JSON is
// decoded (numbers, booleans, null, strings, lists, objects); anything
// else is taken as a plain string.
func parseValue(arg string) any {
	if !json.Valid([]byte(arg)) {
		return arg
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(arg)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return arg
	}
	return v
}

// printValue writes a retrieved value to stdout. Pockets always print
// as JSON documents; scalars print bare unless --json is set.
func printValue(v any) error {
	if sub, ok := v.(*pocket.Pocket); ok {
		v = sub.ToMap()
	}
	if flagJSON {
		out, err := json.MarshalIndent(v, "", "    ")
		if err != nil {
			return fmt.Errorf("marshal value: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	switch val := v.(type) {
	case map[string]any:
		out, err := json.MarshalIndent(val, "", "    ")
		if err != nil {
			return fmt.Errorf("marshal value: %w", err)
		}
		fmt.Println(string(out))
	case nil:
		fmt.Println("null")
	default:
		fmt.Println(val)
	}
	return nil
}
