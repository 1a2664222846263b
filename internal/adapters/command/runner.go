// Package command runs external programs such as install-tl and tlmgr.
package command

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// RealRunner executes programs on the host.
type RealRunner struct {
	echo   io.Writer
	env    []string
	logger ports.Logger
}

// Option configures a RealRunner.
type Option func(*RealRunner)

// WithEcho copies the output of every command to w while it runs, so long
// installations show progress in the job log.
func WithEcho(w io.Writer) Option {
	return func(r *RealRunner) {
		r.echo = w
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(r *RealRunner) {
		r.env = append(r.env, env...)
	}
}

// WithLogger logs every command line at debug level.
func WithLogger(logger ports.Logger) Option {
	return func(r *RealRunner) {
		r.logger = logger
	}
}

// NewRealRunner creates a new RealRunner.
func NewRealRunner(opts ...Option) *RealRunner {
	r := &RealRunner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a command and returns the result. A non-zero exit status is
// reported in the result; only a command that could not run is an error.
func (r *RealRunner) Run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	if r.logger != nil {
		r.logger.Debug(ctx, "Running command", ports.F("command", ports.CommandCall{Command: command, Args: args}.String()))
	}

	cmd := exec.CommandContext(ctx, command, args...)
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if r.echo != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.echo)
		cmd.Stderr = io.MultiWriter(&stderr, r.echo)
	}

	err := cmd.Run()

	result := ports.CommandResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}

	return result, nil
}

// Ensure RealRunner implements ports.CommandRunner.
var _ ports.CommandRunner = (*RealRunner)(nil)
