// Package jsonfile persists client state to a single JSON file.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"

	"github.com/colonyops/repodoc/internal/state"
)

// SlotName is the storage slot the client state is kept under.
const SlotName = "repodoc-storage"

// slotVersion is bumped when the persisted shape changes incompatibly.
const slotVersion = 1

// slotFile is the root JSON structure stored on disk.
type slotFile struct {
	Name    string          `json:"name"`
	Version int             `json:"version"`
	State   state.Persisted `json:"state"`
}

// StateFile implements state.Persister using a JSON file.
type StateFile struct {
	path string
	mu   sync.Mutex
}

// NewStateFile creates a state file store at path.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Path returns the file location.
func (s *StateFile) Path() string {
	return s.path
}

// Load reads the persisted state. A missing or empty file, or a slot written
// by a different version, yields the zero Persisted value.
func (s *StateFile) Load() (state.Persisted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return state.Persisted{}, nil
		}
		return state.Persisted{}, err
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return state.Persisted{}, nil
	}

	var file slotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return state.Persisted{}, fmt.Errorf("parse %s: %w", s.path, err)
	}

	if file.Version != slotVersion {
		return state.Persisted{}, nil
	}

	return file.State, nil
}

// Save writes the persisted state atomically.
func (s *StateFile) Save(p state.Persisted) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(slotFile{Name: SlotName, Version: slotVersion, State: p}, "", "  ")
	if err != nil {
		return err
	}

	return atomic.WriteFile(s.path, bytes.NewReader(data))
}

// Check reports whether the file can be loaded.
func (s *StateFile) Check() error {
	_, err := s.Load()
	return err
}

// Clear removes the file. Clearing a missing file is not an error.
func (s *StateFile) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
