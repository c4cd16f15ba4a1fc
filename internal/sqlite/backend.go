package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

// ErrParse marks stored rows that do not reconstruct into a valid
// settings document.
var ErrParse = errors.New("malformed settings rows")

// Backend reads and writes a settings document in a SQLite database
// at a fixed path. The database is opened lazily on first use and
// held open until Close.
type Backend struct {
	path string
	db   *sql.DB
}

// New creates a backend for the given database path. The file and its
// directory need not exist yet.
func New(path string) *Backend {
	return &Backend{path: path}
}

// Path returns the database file location.
func (b *Backend) Path() string {
	return b.path
}

// Load reads all node rows and rebuilds the nested document. A
// database with no rows (never saved, or erased) yields an empty
// document.
func (b *Backend) Load() (map[string]any, error) {
	db, err := b.open()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT path, kind, value FROM nodes`)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	doc := make(map[string]any)
	for rows.Next() {
		var pathJSON, kind string
		var value sql.NullString
		if err := rows.Scan(&pathJSON, &kind, &value); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}

		keys, err := decodePath(pathJSON)
		if err != nil {
			return nil, err
		}

		switch kind {
		case "pocket":
			if _, err := ensurePocket(doc, keys); err != nil {
				return nil, err
			}
		case "scalar":
			if len(keys) == 0 {
				return nil, fmt.Errorf("%w: scalar at root", ErrParse)
			}
			parent, err := ensurePocket(doc, keys[:len(keys)-1])
			if err != nil {
				return nil, err
			}
			v, err := decodeScalar(value)
			if err != nil {
				return nil, err
			}
			parent[keys[len(keys)-1]] = v
		default:
			return nil, fmt.Errorf("%w: unknown kind %q", ErrParse, kind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading nodes: %w", err)
	}
	return doc, nil
}

// Save replaces the stored document in one transaction: delete all
// rows, insert the new tree in sorted path order. The transaction
// gives the same all-or-nothing guarantee as an atomic file replace.
func (b *Backend) Save(doc map[string]any) error {
	db, err := b.open()
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM nodes`); err != nil {
		return fmt.Errorf("clearing nodes: %w", err)
	}

	ins, err := tx.Prepare(`INSERT INTO nodes (path, kind, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer ins.Close()

	if err := insertPocket(ins, nil, doc); err != nil {
		return err
	}
	return tx.Commit()
}

// Erase deletes all stored rows, returning the database to its
// never-saved state.
func (b *Backend) Erase() error {
	db, err := b.open()
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM nodes`); err != nil {
		return fmt.Errorf("erasing nodes: %w", err)
	}
	return nil
}

// Close closes the database if it was opened.
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// open opens the database on first use and applies the schema.
func (b *Backend) open() (*sql.DB, error) {
	if b.db != nil {
		return b.db, nil
	}

	if dir := filepath.Dir(b.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", b.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", b.path, err)
	}
	if _, err := db.Exec(createNodes); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	b.db = db
	return db, nil
}

// insertPocket writes the pocket row at prefix and all rows below it,
// keys in sorted order.
func insertPocket(ins *sql.Stmt, prefix []string, m map[string]any) error {
	pathJSON, err := encodePath(prefix)
	if err != nil {
		return err
	}
	if _, err := ins.Exec(pathJSON, "pocket", nil); err != nil {
		return fmt.Errorf("inserting pocket %s: %w", pathJSON, err)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		child := make([]string, len(prefix)+1)
		copy(child, prefix)
		child[len(prefix)] = key

		if sub, ok := m[key].(map[string]any); ok {
			if err := insertPocket(ins, child, sub); err != nil {
				return err
			}
			continue
		}

		childJSON, err := encodePath(child)
		if err != nil {
			return err
		}
		value, err := json.Marshal(m[key])
		if err != nil {
			return fmt.Errorf("encoding value at %s: %w", childJSON, err)
		}
		if _, err := ins.Exec(childJSON, "scalar", string(value)); err != nil {
			return fmt.Errorf("inserting scalar %s: %w", childJSON, err)
		}
	}
	return nil
}

// ensurePocket walks the document along keys, creating nested maps as
// needed, and returns the map at the end of the path.
func ensurePocket(doc map[string]any, keys []string) (map[string]any, error) {
	cur := doc
	for _, key := range keys {
		v, ok := cur[key]
		if !ok {
			next := make(map[string]any)
			cur[key] = next
			cur = next
			continue
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %q holds both a value and children", ErrParse, key)
		}
		cur = next
	}
	return cur, nil
}

// encodePath renders a key path as a JSON array. The root is "[]".
func encodePath(keys []string) (string, error) {
	if len(keys) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return "", fmt.Errorf("encoding path: %w", err)
	}
	return string(data), nil
}

// decodePath parses a JSON-encoded key path.
func decodePath(pathJSON string) ([]string, error) {
	var keys []string
	if err := json.Unmarshal([]byte(pathJSON), &keys); err != nil {
		return nil, fmt.Errorf("%w: path %q: %v", ErrParse, pathJSON, err)
	}
	return keys, nil
}

// decodeScalar parses a JSON-encoded scalar value, keeping numbers as
// json.Number.
func decodeScalar(value sql.NullString) (any, error) {
	if !value.Valid {
		return nil, fmt.Errorf("%w: scalar with NULL value", ErrParse)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(value.String)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: value %q: %v", ErrParse, value.String, err)
	}
	return v, nil
}
