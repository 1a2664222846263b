// Package tlmgr drives the TeX Live Manager and related tools against an
// installation tree.
package tlmgr

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/tlpdb"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/tlpkg"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Texmf variables managed through `tlmgr conf texmf`.
const (
	TexDir         = "TEXDIR"
	TexmfConfig    = "TEXMFCONFIG"
	TexmfVar       = "TEXMFVAR"
	TexmfHome      = "TEXMFHOME"
	TexmfLocal     = "TEXMFLOCAL"
	TexmfSysConfig = "TEXMFSYSCONFIG"
	TexmfSysVar    = "TEXMFSYSVAR"
)

// alreadyDefined is printed by `tlmgr repository add` for a duplicate
// repository or tag.
const alreadyDefined = "repository or its tag already defined"

// Action is a tlmgr action whose availability depends on the release.
type Action string

// Version-gated actions.
const (
	ActionConf       Action = "conf"
	ActionRepository Action = "repository"
	ActionPinning    Action = "pinning"
)

var introduced = map[Action]int{
	ActionConf:       texlive.YearConfCommand,
	ActionRepository: texlive.YearRepositoryCommand,
	ActionPinning:    texlive.YearPinningCommand,
}

// Manager runs tlmgr commands for one installation.
type Manager struct {
	runner   ports.CommandRunner
	workflow ports.Workflow
	fs       ports.FileSystem
	version  texlive.Version
	texdir   string
}

// Option configures a Manager.
type Option func(*Manager)

// WithTexDir sets the installation directory explicitly instead of
// deriving it from the prefix.
func WithTexDir(dir string) Option {
	return func(m *Manager) {
		if dir != "" {
			m.texdir = dir
		}
	}
}

// New creates a Manager for the installation of version below prefix.
func New(
	runner ports.CommandRunner,
	workflow ports.Workflow,
	fs ports.FileSystem,
	version texlive.Version,
	prefix string,
	opts ...Option,
) *Manager {
	m := &Manager{
		runner:   runner,
		workflow: workflow,
		fs:       fs,
		version:  version,
		texdir:   filepath.Join(prefix, version.String()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TexDir returns the installation directory.
func (m *Manager) TexDir() string {
	return m.texdir
}

// Version returns the release being managed.
func (m *Manager) Version() texlive.Version {
	return m.version
}

// Supports returns a capability error when action is not available in the
// managed release.
func (m *Manager) Supports(action Action) error {
	if year, ok := introduced[action]; ok && m.version.Before(year) {
		return fault.Capability(string(action), m.version)
	}
	return nil
}

// ConfTexmf returns the value of a texmf variable as seen by kpathsea.
func (m *Manager) ConfTexmf(ctx context.Context, key string) (string, error) {
	result, err := m.exec(ctx, "kpsewhich", "-var-value", key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Stdout), nil
}

// SetConfTexmf sets a texmf variable. Releases without `tlmgr conf` get an
// exported environment variable instead.
func (m *Manager) SetConfTexmf(ctx context.Context, key, value string) error {
	if m.Supports(ActionConf) != nil {
		return m.workflow.ExportVariable(key, value)
	}
	_, err := m.exec(ctx, "tlmgr", "conf", "texmf", key, value)
	return err
}

// Install installs the named packages. An empty list is a no-op.
func (m *Manager) Install(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	result, err := m.exec(ctx, "tlmgr", append([]string{"install"}, names...)...)
	if err != nil {
		return err
	}
	return tlpkg.CheckOutput(result.Output())
}

// PathAdd puts the platform binary directory on the PATH. The binaries are
// not linked into system directories, unlike `tlmgr path add`.
func (m *Manager) PathAdd(_ context.Context) error {
	pattern := filepath.Join(m.texdir, "bin", "*")
	matches, err := m.fs.Glob(pattern)
	if err != nil {
		return fault.New(fault.KindExecution, "Unable to locate the bin directory").
			WithContext(pattern).Wrap(err)
	}
	if len(matches) != 1 {
		return fault.New(fault.KindExecution, "Unable to locate the bin directory").
			WithContext(pattern).
			WithSuggestion("Expected exactly one platform directory; the installation may be incomplete")
	}
	return m.workflow.AddPath(matches[0])
}

// PinningAdd pins packages matching the patterns to repo.
func (m *Manager) PinningAdd(ctx context.Context, repo, pattern string, more ...string) error {
	if err := m.Supports(ActionPinning); err != nil {
		return err
	}
	args := append([]string{"pinning", "add", repo, pattern}, more...)
	_, err := m.exec(ctx, "tlmgr", args...)
	return err
}

// RepositoryAdd registers repo, optionally under tag. It returns false
// without error when the repository or tag is already registered.
func (m *Manager) RepositoryAdd(ctx context.Context, repo, tag string) (bool, error) {
	if err := m.Supports(ActionRepository); err != nil {
		return false, err
	}
	args := []string{"repository", "add", repo}
	if tag != "" {
		args = append(args, tag)
	}
	result, err := m.run(ctx, "tlmgr", args...)
	if err != nil {
		return false, err
	}
	if result.Success() {
		return true, nil
	}
	if strings.Contains(result.Stderr, alreadyDefined) {
		return false, nil
	}
	return false, fault.Execution("tlmgr", result.ExitCode, result.Stderr).
		WithContext(ports.CommandCall{Command: "tlmgr", Args: args}.String())
}

// UpdateOptions select what `tlmgr update` updates.
type UpdateOptions struct {
	// All updates every installed package.
	All bool
	// Self updates tlmgr itself.
	Self bool
	// Reinstall reinstalls packages that were forcibly removed.
	Reinstall bool
}

// Update runs `tlmgr update`. Nothing runs when neither All nor Self is set.
func (m *Manager) Update(ctx context.Context, opts UpdateOptions) error {
	if !opts.All && !opts.Self {
		return nil
	}
	args := []string{"update"}
	if opts.Self {
		args = append(args, "--self")
	}
	if opts.All {
		args = append(args, "--all")
	}
	if opts.Reinstall {
		args = append(args, "--reinstall-forcibly-removed")
	}
	result, err := m.exec(ctx, "tlmgr", args...)
	if err != nil {
		return err
	}
	return tlpkg.CheckOutput(result.Output())
}

// List returns the packages recorded in the installation's database.
func (m *Manager) List(_ context.Context) ([]tlpdb.Package, error) {
	seq, err := tlpdb.Open(m.fs, tlpdb.Path(m.texdir))
	if err != nil {
		return nil, err
	}
	return tlpdb.Collect(seq)
}

// exec runs a command and turns a non-zero exit into an execution error.
func (m *Manager) exec(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	result, err := m.run(ctx, command, args...)
	if err != nil {
		return result, err
	}
	if !result.Success() {
		return result, fault.Execution(command, result.ExitCode, result.Stderr).
			WithContext(ports.CommandCall{Command: command, Args: args}.String())
	}
	return result, nil
}

func (m *Manager) run(ctx context.Context, command string, args ...string) (ports.CommandResult, error) {
	result, err := m.runner.Run(ctx, command, args...)
	if err != nil {
		return result, fault.New(fault.KindExecution, "failed to run %s", command).
			WithContext(ports.CommandCall{Command: command, Args: args}.String()).
			Wrap(err)
	}
	return result, nil
}
