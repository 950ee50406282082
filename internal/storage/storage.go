// Package storage owns the session lifecycle: the {root}/sessions/
// directory tree, each session's metadata sidecar, and its inverted index.
package storage

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nilsyn/searchd/internal/index"

	searcherr "github.com/nilsyn/searchd/internal/errors"
)

// Session is an open handle on one session directory: its metadata and its
// inverted index. Callers obtain a Writer/Reader from Index as needed and
// must call Close when done.
type Session struct {
	ID       string
	Dir      string
	Metadata Metadata
	Index    *index.Index
}

// Close releases the session's index handle. It does not delete anything
// on disk.
func (s *Session) Close() error {
	return s.Index.Close()
}

// Manager owns {root}/sessions/ and the lifecycle of the sessions beneath
// it: create, open, delete, list, and metadata read/write.
type Manager struct {
	root string // {root}/sessions
}

// NewManager creates a Manager rooted at filepath.Join(dataRoot, "sessions"),
// creating the directory if it does not already exist.
func NewManager(dataRoot string) (*Manager, error) {
	root := filepath.Join(dataRoot, "sessions")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, searcherr.IoError("create sessions root", err)
	}
	return &Manager{root: root}, nil
}

func (m *Manager) sessionDir(id string) string {
	return filepath.Join(m.root, id)
}

// CreateSession creates a new session directory with an initial metadata
// sidecar and an empty index. Fails SessionAlreadyExists if id is already
// in use.
func (m *Manager) CreateSession(id string, chunkSize, chunkOverlap int, includePatterns, excludePatterns []string, maxFileSizeBytes int64) (*Session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}

	dir := m.sessionDir(id)
	if _, err := os.Stat(dir); err == nil {
		return nil, searcherr.SessionAlreadyExists(id, nil)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, searcherr.IoError("create session directory", err)
	}

	now := time.Now().UTC()
	meta := Metadata{
		SessionID:          id,
		CreatedAt:          now,
		UpdatedAt:          now,
		ChunkSize:          chunkSize,
		ChunkOverlap:       chunkOverlap,
		IncludePatterns:    includePatterns,
		ExcludePatterns:    excludePatterns,
		MaxFileSizeBytes:   maxFileSizeBytes,
		IndexFormatVersion: CurrentIndexFormatVersion,
	}
	if err := writeMetadata(dir, meta); err != nil {
		return nil, err
	}

	idx, err := index.OpenOrCreate(filepath.Join(dir, IndexDirName), CurrentIndexFormatVersion)
	if err != nil {
		return nil, err
	}

	return &Session{ID: id, Dir: dir, Metadata: meta, Index: idx}, nil
}

// OpenSession returns a handle on an existing session. Fails
// SessionNotFound if id has no directory.
func (m *Manager) OpenSession(id string) (*Session, error) {
	if err := ValidateSessionID(id); err != nil {
		return nil, err
	}

	dir := m.sessionDir(id)
	if _, err := os.Stat(filepath.Join(dir, MetaFileName)); err != nil {
		return nil, searcherr.SessionNotFound(id, nil)
	}

	meta, err := readMetadata(dir)
	if err != nil {
		return nil, err
	}

	idx, err := index.OpenOrCreate(filepath.Join(dir, IndexDirName), CurrentIndexFormatVersion)
	if err != nil {
		return nil, err
	}

	return &Session{ID: id, Dir: dir, Metadata: meta, Index: idx}, nil
}

// DeleteSession removes a session's directory tree. Idempotent: deleting a
// session that does not exist is not an error.
func (m *Manager) DeleteSession(id string) error {
	if err := ValidateSessionID(id); err != nil {
		return err
	}
	if err := os.RemoveAll(m.sessionDir(id)); err != nil {
		return searcherr.IoError("delete session directory", err)
	}
	return nil
}

// ListSessions returns the ids of every subdirectory under the sessions
// root that contains a valid meta.json, sorted lexicographically.
func (m *Manager) ListSessions() ([]string, error) {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		return nil, searcherr.IoError("list sessions root", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := readMetadata(filepath.Join(m.root, e.Name())); err != nil {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

// GetMetadata reads a session's metadata sidecar without opening its
// index.
func (m *Manager) GetMetadata(id string) (Metadata, error) {
	if err := ValidateSessionID(id); err != nil {
		return Metadata{}, err
	}
	dir := m.sessionDir(id)
	if _, err := os.Stat(filepath.Join(dir, MetaFileName)); err != nil {
		return Metadata{}, searcherr.SessionNotFound(id, nil)
	}
	return readMetadata(dir)
}

// PutMetadata atomically overwrites a session's metadata sidecar.
func (m *Manager) PutMetadata(id string, meta Metadata) error {
	if err := ValidateSessionID(id); err != nil {
		return err
	}
	dir := m.sessionDir(id)
	if _, err := os.Stat(dir); err != nil {
		return searcherr.SessionNotFound(id, nil)
	}
	return writeMetadata(dir, meta)
}

// PruneSessions deletes the least-recently-used sessions beyond
// maxSessions and any session whose UpdatedAt is older than maxAge.
// Disabled (a no-op) when both maxSessions and maxAge are zero; never
// invoked implicitly by indexing or search, only by an explicit
// maintenance call.
func (m *Manager) PruneSessions(maxSessions int, maxAge time.Duration) ([]string, error) {
	if maxSessions <= 0 && maxAge <= 0 {
		return nil, nil
	}

	ids, err := m.ListSessions()
	if err != nil {
		return nil, err
	}

	type entry struct {
		id        string
		updatedAt time.Time
	}
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		meta, err := m.GetMetadata(id)
		if err != nil {
			continue
		}
		entries = append(entries, entry{id: id, updatedAt: meta.UpdatedAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].updatedAt.Before(entries[j].updatedAt)
	})

	var toDelete []string
	now := time.Now().UTC()
	for i, e := range entries {
		stale := maxAge > 0 && now.Sub(e.updatedAt) > maxAge
		overCap := maxSessions > 0 && i < len(entries)-maxSessions
		if stale || overCap {
			toDelete = append(toDelete, e.id)
		}
	}

	for _, id := range toDelete {
		if err := m.DeleteSession(id); err != nil {
			return toDelete, err
		}
	}
	return toDelete, nil
}
