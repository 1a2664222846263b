package ports

import "context"

// Workflow exposes the side channels a CI runner offers to a job step.
type Workflow interface {
	// AddPath prepends dir to PATH for this process and for later steps.
	AddPath(dir string) error

	// ExportVariable sets an environment variable for this process and for
	// later steps.
	ExportVariable(name, value string) error

	// SetOutput publishes a step output.
	SetOutput(name, value string) error

	// Group runs fn inside a collapsible log group.
	Group(ctx context.Context, title string, fn func(ctx context.Context) error) error
}
