// Package workflow implements ports.Workflow for GitHub Actions. Outside
// Actions, outputs and groups are written to the logger only.
package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/ini.v1"

	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Files and variables provided by the Actions runner.
const (
	EnvActions = "GITHUB_ACTIONS"
	EnvPath    = "GITHUB_PATH"
	EnvEnv     = "GITHUB_ENV"
	EnvOutput  = "GITHUB_OUTPUT"
)

func init() {
	// Command files take bare `name=value` lines.
	ini.PrettyFormat = false
	ini.PrettySection = false
}

// Actions talks to the runner through its command files and the process
// environment.
type Actions struct {
	out    io.Writer
	logger ports.Logger
	lookup func(string) (string, bool)
	setenv func(string, string) error
}

// Option configures Actions.
type Option func(*Actions)

// WithEnv replaces the process environment, mainly for tests.
func WithEnv(lookup func(string) (string, bool), setenv func(string, string) error) Option {
	return func(a *Actions) {
		a.lookup = lookup
		a.setenv = setenv
	}
}

// New creates Actions writing workflow commands to out.
func New(out io.Writer, logger ports.Logger, opts ...Option) *Actions {
	a := &Actions{
		out:    out,
		logger: logger,
		lookup: os.LookupEnv,
		setenv: os.Setenv,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Enabled reports whether the process runs inside GitHub Actions.
func (a *Actions) Enabled() bool {
	v, _ := a.lookup(EnvActions)
	return v == "true"
}

// AddPath prepends dir to PATH for this process and for later steps.
func (a *Actions) AddPath(dir string) error {
	if file, ok := a.file(EnvPath); ok {
		if err := appendFile(file, []byte(dir+"\n")); err != nil {
			return fmt.Errorf("failed to add %s to PATH: %w", dir, err)
		}
	}
	path, _ := a.lookup("PATH")
	if path != "" {
		path = dir + string(os.PathListSeparator) + path
	} else {
		path = dir
	}
	a.logger.Info(context.Background(), "Added to PATH", ports.F("dir", dir))
	return a.setenv("PATH", path)
}

// ExportVariable sets name for this process and for later steps.
func (a *Actions) ExportVariable(name, value string) error {
	if file, ok := a.file(EnvEnv); ok {
		if err := writeCommand(file, name, value); err != nil {
			return fmt.Errorf("failed to export %s: %w", name, err)
		}
	}
	a.logger.Debug(context.Background(), "Exported variable", ports.F("name", name), ports.F("value", value))
	return a.setenv(name, value)
}

// SetOutput publishes a step output.
func (a *Actions) SetOutput(name, value string) error {
	file, ok := a.file(EnvOutput)
	if !ok {
		a.logger.Info(context.Background(), "Output", ports.F("name", name), ports.F("value", value))
		return nil
	}
	if err := writeCommand(file, name, value); err != nil {
		return fmt.Errorf("failed to set output %s: %w", name, err)
	}
	return nil
}

// Group runs fn inside a collapsible log group.
func (a *Actions) Group(ctx context.Context, title string, fn func(ctx context.Context) error) error {
	if !a.Enabled() {
		a.logger.Info(ctx, title)
		return fn(ctx)
	}
	fmt.Fprintf(a.out, "::group::%s\n", title)
	defer fmt.Fprintln(a.out, "::endgroup::")
	return fn(ctx)
}

func (a *Actions) file(name string) (string, bool) {
	path, ok := a.lookup(name)
	return path, ok && path != ""
}

// writeCommand appends name and value to a command file. Values that do not
// fit on a plain `name=value` line use a heredoc with a random delimiter.
func writeCommand(file, name, value string) error {
	var buf bytes.Buffer
	if plain(value) {
		cfg := ini.Empty()
		if _, err := cfg.Section("").NewKey(name, value); err != nil {
			return err
		}
		if _, err := cfg.WriteTo(&buf); err != nil {
			return err
		}
	} else {
		delimiter := "ghadelimiter_" + uuid.NewString()
		if strings.Contains(value, delimiter) {
			return fmt.Errorf("value of %s contains the delimiter", name)
		}
		fmt.Fprintf(&buf, "%s<<%s\n%s\n%s\n", name, delimiter, value, delimiter)
	}
	return appendFile(file, buf.Bytes())
}

func plain(value string) bool {
	return !strings.ContainsAny(value, "\r\n#;`\"") && strings.TrimSpace(value) == value
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Ensure Actions implements ports.Workflow.
var _ ports.Workflow = (*Actions)(nil)
