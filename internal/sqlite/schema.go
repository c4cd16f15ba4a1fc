// Package sqlite implements the SQLite document backend for the
// Smeagol store. The settings tree is flattened to one row per node:
// the path column holds the JSON-encoded array of keys from the root,
// so "[]" identifies the root pocket itself. A save replaces the
// whole document in a single transaction.
package sqlite

// Schema DDL for the nodes table.
const createNodes = `CREATE TABLE IF NOT EXISTS nodes (
    path  TEXT PRIMARY KEY,
    kind  TEXT NOT NULL CHECK (kind IN ('pocket', 'scalar')),
    value TEXT
);`
