package mocks

import (
	"sync"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// StateStore is an in-memory ports.StateStore.
type StateStore struct {
	mu    sync.Mutex
	state ports.StepState
	saves int
	err   error
}

// NewStateStore creates a StateStore holding state.
func NewStateStore(state ports.StepState) *StateStore {
	return &StateStore{state: state}
}

// SetLoadError makes Load fail with err.
func (m *StateStore) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Load returns the stored state.
func (m *StateStore) Load() (ports.StepState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.err
}

// Save replaces the stored state.
func (m *StateStore) Save(state ports.StepState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.saves++
	return nil
}

// State returns the stored state.
func (m *StateStore) State() ports.StepState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Saves returns how often Save was called.
func (m *StateStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Ensure StateStore implements ports.StateStore.
var _ ports.StateStore = (*StateStore)(nil)
