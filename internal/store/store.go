// internal/store/store.go
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"medibot/internal/models"
	"medibot/pkg/logger"
)

// Store owns the in-memory user map and its on-disk JSON mirror: one
// pretty-printed UTF-8 document keyed by user id, rewritten whole on every
// mutation. A single mutex guards every read-modify-write.
type Store struct {
	mu     sync.Mutex
	path   string
	users  map[string]*models.UserRecord
	logger *logger.Logger
}

// Open loads the document at path. A missing file yields an empty store. An
// unparsable file is moved aside to <path>.corrupt and logged, and the store
// starts empty; this mirrors the tolerant load of the original deployment.
func Open(path string, l *logger.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		users:  make(map[string]*models.UserRecord),
		logger: l,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, &s.users); err != nil {
		l.Error("State file is unparsable, starting empty", "path", path, "error", err)
		if renameErr := os.Rename(path, path+".corrupt"); renameErr != nil {
			l.Error("Failed to move corrupt state file aside", "error", renameErr)
		}
		s.users = make(map[string]*models.UserRecord)
	}
	return s, nil
}

// Get returns a deep copy of the record, if present.
func (s *Store) Get(id string) (*models.UserRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, false
	}
	return u.Clone(), true
}

// Upsert stores a copy of the record and rewrites the document.
func (s *Store) Upsert(rec *models.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[rec.ID] = rec.Clone()
	return s.persistLocked()
}

// Remove deletes the record and rewrites the document. Removing an absent
// record is not an error.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return nil
	}
	delete(s.users, id)
	return s.persistLocked()
}

// SnapshotAll returns deep copies of every record.
func (s *Store) SnapshotAll() map[string]*models.UserRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*models.UserRecord, len(s.users))
	for id, u := range s.users {
		out[id] = u.Clone()
	}
	return out
}

// persistLocked writes the whole document via a temp file and rename, so a
// concurrent reader can never observe a truncated document. Caller holds mu.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.users, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".medibot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
