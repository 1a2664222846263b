package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Workflow is a thread-safe test double for ports.Workflow.
type Workflow struct {
	mu      sync.Mutex
	paths   []string
	env     map[string]string
	outputs map[string]string
	groups  []string
}

// NewWorkflow creates a new Workflow mock.
func NewWorkflow() *Workflow {
	return &Workflow{
		env:     make(map[string]string),
		outputs: make(map[string]string),
	}
}

// AddPath records dir.
func (m *Workflow) AddPath(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, dir)
	return nil
}

// ExportVariable records the variable.
func (m *Workflow) ExportVariable(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.env[name] = value
	return nil
}

// SetOutput records the output.
func (m *Workflow) SetOutput(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outputs[name] = value
	return nil
}

// Group records title and runs fn.
func (m *Workflow) Group(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.groups = append(m.groups, title)
	m.mu.Unlock()
	return fn(ctx)
}

// Paths returns the recorded PATH additions.
func (m *Workflow) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}

// Env returns a copy of the exported variables.
func (m *Workflow) Env() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyMap(m.env)
}

// Outputs returns a copy of the step outputs.
func (m *Workflow) Outputs() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyMap(m.outputs)
}

// Groups returns the titles of the groups run so far.
func (m *Workflow) Groups() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.groups...)
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Ensure Workflow implements ports.Workflow.
var _ ports.Workflow = (*Workflow)(nil)
