// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"strings"
)

// CommandResult represents the result of executing a command.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Success returns true if the command exited with code 0.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// Output returns stdout and stderr joined by a newline.
func (r CommandResult) Output() string {
	return strings.TrimSpace(r.Stdout + "\n" + r.Stderr)
}

// CommandCall records a command invocation.
type CommandCall struct {
	Command string
	Args    []string
}

// String renders the call as a shell-like command line.
func (c CommandCall) String() string {
	return strings.TrimSpace(c.Command + " " + strings.Join(c.Args, " "))
}

// CommandRunner executes external commands.
//
// A non-zero exit status is reported through CommandResult.ExitCode, not as
// an error; errors are reserved for commands that could not be started.
type CommandRunner interface {
	Run(ctx context.Context, command string, args ...string) (CommandResult, error)
}
