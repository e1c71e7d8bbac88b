// CLAUDE:SUMMARY Per-page annotation persistence: key derivation, JSON codec and error-swallowing Store over pluggable backends (memory, file, sqlite, redis).
// Package session persists the annotations of a page and the entry-control
// corner preference.
//
// A Store wraps a Backend that moves raw bytes. Backends:
//   - MemoryStore: process-local map, for tests and one-shot CLI runs
//   - FileStore: one JSON file per key under a directory
//   - SQLiteStore: a kv table in an SQLite database (modernc.org/sqlite)
//   - RedisStore: Redis strings, for annotators sharing sessions across hosts
//
// Storage is best-effort: a failing or corrupt backend yields an empty list
// and a logged warning, never an error to the caller.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"

	"github.com/hazyhaar/annotator/annotation"
	"github.com/hazyhaar/annotator/dragsnap"
)

// KeyPrefix namespaces every key written by the annotator.
const KeyPrefix = "ui-annotator:"

// CornerKey stores the entry-control corner preference.
const CornerKey = KeyPrefix + "fab-corner"

// DefaultCorner is used when no valid preference is stored.
const DefaultCorner = dragsnap.BottomLeft

// ErrNotFound is returned by a Backend for a missing key.
var ErrNotFound = errors.New("session: not found")

// Backend stores opaque values by key.
type Backend interface {
	// Get returns ErrNotFound for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	// Delete of a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Key derives the session key of a page: origin plus path, without query or
// fragment. A URL without a host is used verbatim.
func Key(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return KeyPrefix + pageURL
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return KeyPrefix + u.Scheme + "://" + u.Host + path
}

// Store loads and saves annotation lists through a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// New wraps a backend. A nil logger means slog.Default().
func New(b Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: b, logger: logger}
}

// Backend returns the wrapped backend.
func (s *Store) Backend() Backend { return s.backend }

// Load returns the annotations saved under key, or an empty list.
func (s *Store) Load(ctx context.Context, key string) []annotation.Annotation {
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) || (err == nil && len(raw) == 0) {
		return []annotation.Annotation{}
	}
	if err != nil {
		s.logger.Warn("session: load failed", "key", key, "error", err)
		return []annotation.Annotation{}
	}
	var anns []annotation.Annotation
	if err := json.Unmarshal(raw, &anns); err != nil {
		s.logger.Warn("session: corrupt session discarded", "key", key, "error", err)
		return []annotation.Annotation{}
	}
	if anns == nil {
		anns = []annotation.Annotation{}
	}
	return anns
}

// Save replaces the list stored under key.
func (s *Store) Save(ctx context.Context, key string, anns []annotation.Annotation) {
	if anns == nil {
		anns = []annotation.Annotation{}
	}
	raw, err := json.Marshal(anns)
	if err != nil {
		s.logger.Warn("session: encode failed", "key", key, "error", err)
		return
	}
	if err := s.backend.Put(ctx, key, raw); err != nil {
		s.logger.Warn("session: save failed", "key", key, "count", len(anns), "error", err)
	}
}

// Clear removes the list stored under key.
func (s *Store) Clear(ctx context.Context, key string) {
	if err := s.backend.Delete(ctx, key); err != nil {
		s.logger.Warn("session: clear failed", "key", key, "error", err)
	}
}

// Corner returns the saved entry-control corner, DefaultCorner if none is
// stored or the stored value is not a corner.
func (s *Store) Corner(ctx context.Context) dragsnap.Corner {
	raw, err := s.backend.Get(ctx, CornerKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("session: load corner failed", "error", err)
		}
		return DefaultCorner
	}
	c := dragsnap.Corner(raw)
	if !c.Valid() {
		return DefaultCorner
	}
	return c
}

// SetCorner persists the entry-control corner.
func (s *Store) SetCorner(ctx context.Context, c dragsnap.Corner) {
	if !c.Valid() {
		return
	}
	if err := s.backend.Put(ctx, CornerKey, []byte(c)); err != nil {
		s.logger.Warn("session: save corner failed", "corner", c, "error", err)
	}
}
