package ports

// StepState is carried from the main step of a job to its post step.
type StepState struct {
	// Key is the cache key to save under; empty when nothing should be saved.
	Key string `yaml:"key,omitempty"`
	// Target is the directory to save.
	Target string `yaml:"target,omitempty"`
	// Post is set once the main step has run.
	Post bool `yaml:"post"`
}

// StateStore persists StepState between steps.
type StateStore interface {
	Load() (StepState, error)
	Save(state StepState) error
}
