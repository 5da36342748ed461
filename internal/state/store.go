package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/flock"

	"mkvkeep/internal/config"
	"mkvkeep/internal/logging"
	"mkvkeep/internal/services"
)

// Document is the persisted form of the processing state.
type Document struct {
	ProcessedFiles []string          `json:"processed_files"`
	FailedFiles    map[string]string `json:"failed_files"`
}

type backend interface {
	load(ctx context.Context) (Document, error)
	save(ctx context.Context, doc Document) error
	close() error
}

// ErrLocked is returned by Open when another process holds the state lock.
var ErrLocked = errors.New("state store is in use by another mkvkeep process")

// ErrReadOnly is returned when mutating a store opened read-only.
var ErrReadOnly = errors.New("state store opened read-only")

// Options tune how a store is opened.
type Options struct {
	// ReadOnly skips the process lock and rejects mutations.
	ReadOnly bool
	Logger   *slog.Logger
}

// Store tracks processed and failed files.
type Store struct {
	mu        sync.Mutex
	path      string
	backend   backend
	lock      *flock.Flock
	readOnly  bool
	logger    *slog.Logger
	processed map[string]struct{}
	failed    map[string]string
}

// Open opens the store selected by cfg.State.Backend at cfg.StatePath().
// The returned store is empty until Load is called.
func Open(cfg *config.Config, opts Options) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("state: config is required")
	}
	switch cfg.State.Backend {
	case config.StateBackendSQLite:
		return OpenSQLite(cfg.StatePath(), opts)
	default:
		return OpenJSON(cfg.StatePath(), opts)
	}
}

// OpenJSON opens a JSON document store at path.
func OpenJSON(path string, opts Options) (*Store, error) {
	return open(path, opts, func() (backend, error) {
		return &jsonBackend{path: path}, nil
	})
}

// OpenSQLite opens a SQLite store at path.
func OpenSQLite(path string, opts Options) (*Store, error) {
	return open(path, opts, func() (backend, error) {
		return openSQLiteBackend(path)
	})
}

func open(path string, opts Options, newBackend func() (backend, error)) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrStateStoreIO, "state", "open", "create state directory", err)
		}
	}

	s := &Store{
		path:      path,
		readOnly:  opts.ReadOnly,
		logger:    logging.NewComponentLogger(opts.Logger, "state"),
		processed: make(map[string]struct{}),
		failed:    make(map[string]string),
	}

	if !opts.ReadOnly {
		s.lock = flock.New(path + ".lock")
		ok, err := s.lock.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrStateStoreIO, "state", "lock", path, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
	}

	b, err := newBackend()
	if err != nil {
		s.unlock()
		return nil, services.Wrap(services.ErrStateStoreIO, "state", "open", path, err)
	}
	s.backend = b
	return s, nil
}

// Path returns the location of the persisted state.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory state with the persisted one. A missing
// document yields empty state and no error; an unreadable one yields empty
// state and an ErrStateStoreIO error the caller may log and ignore.
func (s *Store) Load(ctx context.Context) error {
	doc, err := s.backend.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = make(map[string]struct{})
	s.failed = make(map[string]string)
	if err != nil {
		return services.Wrap(services.ErrStateStoreIO, "state", "load", s.path, err)
	}
	for _, name := range doc.ProcessedFiles {
		s.processed[name] = struct{}{}
	}
	for name, reason := range doc.FailedFiles {
		if _, done := s.processed[name]; done {
			continue
		}
		s.failed[name] = reason
	}
	return nil
}

// Save persists the current state.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	if s.readOnly {
		return ErrReadOnly
	}
	if err := s.backend.save(ctx, s.documentLocked()); err != nil {
		return services.Wrap(services.ErrStateStoreIO, "state", "save", s.path, err)
	}
	return nil
}

// MarkProcessed records name as done, clears any failure for it, and saves.
// On a save error the in-memory change is kept.
func (s *Store) MarkProcessed(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return ErrReadOnly
	}
	s.processed[name] = struct{}{}
	delete(s.failed, name)
	return s.saveLocked(ctx)
}

// MarkFailed records the latest failure reason for name and saves.
func (s *Store) MarkFailed(ctx context.Context, name, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return ErrReadOnly
	}
	delete(s.processed, name)
	s.failed[name] = reason
	return s.saveLocked(ctx)
}

// IsProcessed reports whether name completed successfully.
func (s *Store) IsProcessed(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[name]
	return ok
}

// FailedEntries returns a copy of the failure map.
func (s *Store) FailedEntries() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.failed))
	for name, reason := range s.failed {
		out[name] = reason
	}
	return out
}

// ProcessedFiles returns the processed names sorted.
func (s *Store) ProcessedFiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.processedLocked()
}

// Reset clears both sets and saves.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return ErrReadOnly
	}
	s.processed = make(map[string]struct{})
	s.failed = make(map[string]string)
	return s.saveLocked(ctx)
}

// Close releases the backend and the process lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.backend != nil {
		err = s.backend.close()
	}
	s.unlock()
	return err
}

func (s *Store) unlock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release state lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "state_unlock_failed"),
		)
	}
}

func (s *Store) processedLocked() []string {
	out := make([]string, 0, len(s.processed))
	for name := range s.processed {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (s *Store) documentLocked() Document {
	failed := make(map[string]string, len(s.failed))
	for name, reason := range s.failed {
		failed[name] = reason
	}
	return Document{ProcessedFiles: s.processedLocked(), FailedFiles: failed}
}
