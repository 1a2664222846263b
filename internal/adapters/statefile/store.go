// Package statefile carries the state of the main step to the post step of
// the same job through a YAML file.
package statefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// FileName is the name of the state file below the runner temp directory.
const FileName = "setup-texlive-state.yaml"

// ErrStateCorrupt is returned when the state file cannot be decoded.
var ErrStateCorrupt = errors.New("step state is corrupt")

// Store implements ports.StateStore using a YAML file.
type Store struct {
	path string
}

// New creates a Store backed by the file at path.
func New(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the state file location below tmpDir.
func DefaultPath(tmpDir string) string {
	return filepath.Join(tmpDir, FileName)
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load reads the state. A missing file is the zero state, which tells the
// post step that the main step never completed.
func (s *Store) Load() (ports.StepState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.StepState{}, nil
		}
		return ports.StepState{}, fmt.Errorf("failed to read step state: %w", err)
	}

	var st ports.StepState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return ports.StepState{}, fmt.Errorf("%w: %w", ErrStateCorrupt, err)
	}
	return st, nil
}

// Save writes the state.
func (s *Store) Save(st ports.StepState) error {
	data, err := yaml.Marshal(&st)
	if err != nil {
		return fmt.Errorf("failed to encode step state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	// Write atomically by writing to temp file first
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write step state: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write step state: %w", err)
	}
	return nil
}

// Ensure Store implements ports.StateStore.
var _ ports.StateStore = (*Store)(nil)
