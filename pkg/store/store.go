// Package store implements the persistent root of a Smeagol settings
// tree. A Store is a pocket with no parent that owns a backing
// document through a Backend; it connects its save routine to the
// root pocket's change signal, so every completed mutation anywhere in
// the tree rewrites the document before the mutating call returns.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/smeagol/internal/jsonfile"
	"github.com/mesh-intelligence/smeagol/internal/sqlite"
	"github.com/mesh-intelligence/smeagol/pkg/pocket"
)

// Backend persists a settings document. Load returns an empty map
// when no document exists yet; a malformed document is an error.
// Save replaces the whole document atomically, so a failed write
// leaves the previously persisted content intact.
type Backend interface {
	Load() (map[string]any, error)
	Save(doc map[string]any) error
	Erase() error
	Path() string
	Close() error
}

// Store is the persistent root pocket. The embedded Pocket is the
// full mutation surface; Set, Remove, and SubPocket on it (or on any
// sub-pocket below it) trigger a save.
//
// Like Pocket, a Store is single-writer: callers serialize access
// externally. With WithSaveDelay the flush runs on a timer goroutine,
// but it only ever writes a document snapshot captured during the
// mutation itself; the pocket tree is never touched off the caller's
// goroutine.
type Store struct {
	*pocket.Pocket

	backend  Backend
	saveConn uuid.UUID
	loadErr  error

	// Debounced-save state, active when saveDelay > 0.
	saveDelay time.Duration
	mu        sync.Mutex
	timer     *time.Timer
	pending   map[string]any
	flushErr  error
}

// Option adjusts Store behavior at Open time.
type Option func(*Store)

// WithSaveDelay makes mutations schedule a single write no earlier
// than d after the first unflushed change, instead of writing inline.
// Each mutation snapshots the document, so the deferred write never
// reads the live tree. Save and Close flush immediately. This trades
// the synchronous persistence guarantee for fewer writes under bursts
// of changes.
func WithSaveDelay(d time.Duration) Option {
	return func(s *Store) {
		s.saveDelay = d
	}
}

// Open creates a Store for the configured backend and loads the
// existing document, if any. Primitives stay primitives and nested
// mappings become wired sub-pockets.
//
// A document that exists but cannot be parsed does not fail Open: the
// store starts empty and the next save recreates the document. Losing
// unreadable settings is preferred over refusing to start; the
// suppressed error is available via LoadError.
func Open(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var backend Backend
	switch cfg.Backend {
	case BackendJSONFile:
		backend = jsonfile.New(cfg.Path)
	case BackendSQLite:
		backend = sqlite.New(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrBackendUnknown, cfg.Backend)
	}
	return New(backend, opts...)
}

// ErrNilBackend is returned by New when no backend is given.
var ErrNilBackend = errors.New("backend must not be nil")

// New creates a Store over an already-constructed backend. Most
// callers use Open; New exists for custom backends and tests.
func New(backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	s := &Store{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	s.attachRoot()
	return s, nil
}

// attachRoot loads the document into a fresh pocket tree and connects
// the save handler to the root's change signal. The handler is
// connected after the tree is built, so loading never writes.
func (s *Store) attachRoot() {
	doc, err := s.backend.Load()
	if err != nil {
		s.loadErr = err
		doc = nil
	}

	root, err := pocket.FromMap(doc)
	if err != nil {
		s.loadErr = err
		root = pocket.New()
	}

	s.Pocket = root
	s.saveConn = root.OnChanged().Connect(s.onChange)
}

// LoadError returns the load failure suppressed by Open, if any.
func (s *Store) LoadError() error {
	return s.loadErr
}

// Path returns the backing document location.
func (s *Store) Path() string {
	return s.backend.Path()
}

// Save serializes the whole tree to the backing document. Keys are
// written in sorted order with stable formatting, so repeated saves
// of unchanged data produce byte-identical output. Save is also
// invoked implicitly by every mutation.
func (s *Store) Save() error {
	if s.saveDelay <= 0 {
		return s.save()
	}

	// Hold the mutex across the write so an in-flight flush cannot
	// overwrite this newer document with an older snapshot.
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTimerLocked()
	s.pending = nil
	if err := s.writeDoc(s.Pocket.ToMap()); err != nil {
		return err
	}
	s.flushErr = nil
	return nil
}

// Erase removes the backing document and resets the tree to empty.
// With restartAfterErase the store stays usable and the next mutation
// recreates the document fresh; without it the root is left inert and
// further mutations are not persisted.
func (s *Store) Erase(restartAfterErase bool) error {
	if s.saveDelay > 0 {
		s.mu.Lock()
		s.cancelTimerLocked()
		s.pending = nil
		s.mu.Unlock()
	}
	s.Pocket.OnChanged().Disconnect(s.saveConn)

	if err := s.backend.Erase(); err != nil {
		return fmt.Errorf("erase %s: %w", s.backend.Path(), err)
	}

	if restartAfterErase {
		s.loadErr = nil
		s.attachRoot()
	} else {
		s.Pocket = pocket.New()
	}
	return nil
}

// BackupAndSetup erases all settings except the listed keys, restores
// them, applies the extra settings, and forces a save. Keys from
// keysToBackup that do not exist are skipped.
func (s *Store) BackupAndSetup(keysToBackup []string, settingsToAdd map[string]any) error {
	doc := s.ToMap()
	saved := make(map[string]any, len(keysToBackup))
	for _, key := range keysToBackup {
		if v, ok := doc[key]; ok {
			saved[key] = v
		}
	}

	if err := s.Erase(true); err != nil {
		return err
	}

	for _, key := range keysToBackup {
		if v, ok := saved[key]; ok {
			if err := s.Set(key, v); err != nil {
				return err
			}
		}
	}
	for key, value := range settingsToAdd {
		if err := s.Set(key, value); err != nil {
			return err
		}
	}
	return s.Save()
}

// Close flushes any pending debounced write, disconnects the save
// handler, and releases backend resources. The tree stays readable
// but further mutations are not persisted.
func (s *Store) Close() error {
	var errs []error
	if s.saveDelay > 0 {
		s.mu.Lock()
		s.cancelTimerLocked()
		pending := s.pending
		s.pending = nil
		flushErr := s.flushErr
		s.flushErr = nil

		if flushErr != nil {
			errs = append(errs, flushErr)
		}
		if pending != nil {
			if err := s.writeDoc(pending); err != nil {
				errs = append(errs, err)
			}
		}
		s.mu.Unlock()
	}
	s.Pocket.OnChanged().Disconnect(s.saveConn)
	if err := s.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// onChange is the handler connected to the root's change signal. In
// the delayed mode it snapshots the document here, on the mutating
// goroutine, so the timer goroutine never reads the live tree.
func (s *Store) onChange() error {
	if s.saveDelay <= 0 {
		return s.save()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = s.Pocket.ToMap()
	if s.timer == nil {
		s.timer = time.AfterFunc(s.saveDelay, s.flush)
	}
	return nil
}

// flush runs on the debounce timer and writes the snapshot taken by
// the last mutation. Write failures are kept and surfaced on the next
// Close (or cleared by a later successful Save).
func (s *Store) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = nil
	if s.pending == nil {
		return
	}
	doc := s.pending
	s.pending = nil
	if err := s.writeDoc(doc); err != nil {
		s.flushErr = err
	}
}

// cancelTimerLocked stops a pending debounce timer. Callers hold s.mu.
func (s *Store) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Store) save() error {
	return s.writeDoc(s.Pocket.ToMap())
}

func (s *Store) writeDoc(doc map[string]any) error {
	if err := s.backend.Save(doc); err != nil {
		return fmt.Errorf("save %s: %w", s.backend.Path(), err)
	}
	return nil
}
