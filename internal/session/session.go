// Package session persists the "last run" record used by --last.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// DisableEnv, when set non-empty, disables saving the last-run record.
const DisableEnv = "GROKTEST_NO_LAST"

// Record is the persisted state of the most recent run.
type Record struct {
	Paths []string `json:"paths"`
}

// Store reads and writes the last-run record at Path with
// atomic-replace semantics.
type Store struct {
	Path string
}

// Default returns a Store at the conventional location in the OS temp
// directory.
func Default() *Store {
	return &Store{Path: filepath.Join(os.TempDir(), "groktest.last")}
}

// Load reads the saved record. A missing file yields an empty record
// and no error.
func (s *Store) Load() (Record, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Save atomically replaces the record on disk. Saving is a no-op when
// DisableEnv is set.
func (s *Store) Save(rec Record) error {
	if os.Getenv(DisableEnv) != "" {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return atomic.WriteFile(s.Path, bytes.NewReader(raw))
}

// Clear removes the record. Missing files are not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
