// Package checkpoint persists harvesting progress between runs.
package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"microharvest/internal/models"

	"gopkg.in/yaml.v3"
)

// State is the persisted progress of an interrupted run.
type State struct {
	UpdatedAt time.Time `yaml:"updated_at"`
	LastID    string    `yaml:"last_id"`
	RunID     string    `yaml:"run_id"`
}

// Store reads and writes the state file.
type Store struct {
	path string
}

// NewStore creates a store for path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state. A missing file yields an empty state.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &State{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}

	return &state, nil
}

// Save writes the state through a temporary file renamed into place.
func (s *Store) Save(state State) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to close checkpoint: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}

	return nil
}

// Clear removes the state file.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}

	return nil
}

// Resume returns the entries following lastID. An empty or unknown id yields all entries.
func Resume(entries []models.EntryDescriptor, lastID string) []models.EntryDescriptor {
	if lastID == "" {
		return entries
	}

	for i, e := range entries {
		if e.ID == lastID {
			return entries[i+1:]
		}
	}

	return entries
}
