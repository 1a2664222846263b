package tlmgr

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
	"github.com/felixgeelhaar/setup-texlive/internal/testutil/mocks"
)

type fixture struct {
	runner   *mocks.CommandRunner
	workflow *mocks.Workflow
	fs       *mocks.FileSystem
	manager  *Manager
}

func newFixture(year int, opts ...Option) *fixture {
	f := &fixture{
		runner:   mocks.NewCommandRunner(),
		workflow: mocks.NewWorkflow(),
		fs:       mocks.NewFileSystem(),
	}
	f.manager = New(f.runner, f.workflow, f.fs, texlive.MustVersion(year), "/tl", opts...)
	return f
}

func TestNew_TexDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.Join("/tl", "2021"), newFixture(2021).manager.TexDir())
	assert.Equal(t, "/opt/texlive", newFixture(2021, WithTexDir("/opt/texlive")).manager.TexDir())
}

func TestSupports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action Action
		year   int
		ok     bool
	}{
		{ActionConf, 2009, false},
		{ActionConf, 2010, true},
		{ActionRepository, 2011, false},
		{ActionRepository, 2012, true},
		{ActionPinning, 2012, false},
		{ActionPinning, 2013, true},
	}

	for _, tt := range tests {
		err := newFixture(tt.year).manager.Supports(tt.action)
		if tt.ok {
			assert.NoError(t, err, "%s %d", tt.action, tt.year)
			continue
		}
		assert.ErrorIs(t, err, fault.ErrCapability, "%s %d", tt.action, tt.year)
	}
}

func TestConfTexmf(t *testing.T) {
	t.Parallel()

	f := newFixture(2021)
	f.runner.AddResult("kpsewhich", []string{"-var-value", TexmfHome}, ports.CommandResult{
		Stdout: "/home/runner/texmf\n",
	})

	got, err := f.manager.ConfTexmf(context.Background(), TexmfHome)
	require.NoError(t, err)
	assert.Equal(t, "/home/runner/texmf", got)
}

func TestSetConfTexmf(t *testing.T) {
	t.Parallel()

	t.Run("tlmgr conf", func(t *testing.T) {
		t.Parallel()
		f := newFixture(2010)
		f.runner.SetDefault(ports.CommandResult{})

		require.NoError(t, f.manager.SetConfTexmf(context.Background(), TexmfVar, "/var"))

		calls := f.runner.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "tlmgr conf texmf TEXMFVAR /var", calls[0].String())
		assert.Empty(t, f.workflow.Env())
	})

	t.Run("environment before 2010", func(t *testing.T) {
		t.Parallel()
		f := newFixture(2009)

		require.NoError(t, f.manager.SetConfTexmf(context.Background(), TexmfVar, "/var"))

		assert.Empty(t, f.runner.Calls())
		assert.Equal(t, map[string]string{"TEXMFVAR": "/var"}, f.workflow.Env())
	})
}

func TestInstall(t *testing.T) {
	t.Parallel()

	f := newFixture(2021)
	f.runner.SetDefault(ports.CommandResult{})
	ctx := context.Background()

	require.NoError(t, f.manager.Install(ctx))
	assert.Empty(t, f.runner.Calls())

	require.NoError(t, f.manager.Install(ctx, "amsmath", "xcolor"))
	calls := f.runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "tlmgr install amsmath xcolor", calls[0].String())
}

func TestInstall_Failures(t *testing.T) {
	t.Parallel()

	t.Run("exit code", func(t *testing.T) {
		t.Parallel()
		f := newFixture(2021)
		f.runner.AddResult("tlmgr", []string{"install", "nosuchpkg"}, ports.CommandResult{
			ExitCode: 1,
			Stderr:   "tlmgr: package nosuchpkg not present in repository.",
		})

		err := f.manager.Install(context.Background(), "nosuchpkg")
		require.Error(t, err)
		assert.ErrorIs(t, err, fault.ErrExecution)
		assert.Contains(t, err.Error(), "exit code 1")
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		t.Parallel()
		f := newFixture(2021)
		f.runner.AddResult("tlmgr", []string{"install", "foo"}, ports.CommandResult{
			Stderr: "TeXLive::TLUtils::check_file_and_remove: checksums differ for /tmp/x/foo.tar.xz:",
		})

		err := f.manager.Install(context.Background(), "foo")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "The checksum of package foo did not match.")
	})

	t.Run("runner error", func(t *testing.T) {
		t.Parallel()
		f := newFixture(2021)
		f.runner.AddError("tlmgr", []string{"install", "foo"}, errors.New("executable file not found"))

		err := f.manager.Install(context.Background(), "foo")
		assert.ErrorIs(t, err, fault.ErrExecution)
	})
}

func TestPathAdd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dirs    []string
		wantErr bool
	}{
		{name: "single platform", dirs: []string{"x86_64-linux"}},
		{name: "no platform", wantErr: true},
		{name: "multiple platforms", dirs: []string{"x86_64-linux", "aarch64-linux"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(2021)
			f.fs.AddDir(filepath.Join("/tl", "2021", "texmf-dist"))
			for _, d := range tt.dirs {
				f.fs.AddDir(filepath.Join("/tl", "2021", "bin", d))
			}

			err := f.manager.PathAdd(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "Unable to locate the bin directory")
				assert.Empty(t, f.workflow.Paths())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{filepath.Join("/tl", "2021", "bin", "x86_64-linux")}, f.workflow.Paths())
		})
	}
}

func TestPinningAdd(t *testing.T) {
	t.Parallel()

	f := newFixture(2013)
	f.runner.SetDefault(ports.CommandResult{})
	require.NoError(t, f.manager.PinningAdd(context.Background(), "tlcontrib", "*"))
	assert.Equal(t, "tlmgr pinning add tlcontrib *", f.runner.Calls()[0].String())

	old := newFixture(2012)
	err := old.manager.PinningAdd(context.Background(), "tlcontrib", "*")
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrCapability)
	assert.Equal(t, "`pinning` action is not implemented in TeX Live 2012", err.Error())
	assert.Empty(t, old.runner.Calls())
}

func TestRepositoryAdd(t *testing.T) {
	t.Parallel()

	args := []string{"repository", "add", texlive.ContribRepository, texlive.ContribTag}

	tests := []struct {
		name    string
		result  ports.CommandResult
		want    bool
		wantErr bool
	}{
		{name: "added", result: ports.CommandResult{}, want: true},
		{
			name:   "already defined",
			result: ports.CommandResult{ExitCode: 2, Stderr: "tlmgr: repository or its tag already defined, no action: tlcontrib"},
			want:   false,
		},
		{
			name:    "failure",
			result:  ports.CommandResult{ExitCode: 1, Stderr: "tlmgr: cannot write tlpdb"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(2022)
			f.runner.AddResult("tlmgr", args, tt.result)

			got, err := f.manager.RepositoryAdd(context.Background(), texlive.ContribRepository, texlive.ContribTag)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, fault.ErrExecution)
				assert.Contains(t, err.Error(), "`tlmgr` failed with exit code 1: tlmgr: cannot write tlpdb")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepositoryAdd_Unsupported(t *testing.T) {
	t.Parallel()

	f := newFixture(2011)
	_, err := f.manager.RepositoryAdd(context.Background(), texlive.ContribRepository, "")

	assert.ErrorIs(t, err, fault.ErrCapability)
	assert.Empty(t, f.runner.Calls())
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts UpdateOptions
		want []string
	}{
		{name: "nothing", opts: UpdateOptions{}},
		{name: "self", opts: UpdateOptions{Self: true}, want: []string{"tlmgr update --self"}},
		{
			name: "everything",
			opts: UpdateOptions{Self: true, All: true, Reinstall: true},
			want: []string{"tlmgr update --self --all --reinstall-forcibly-removed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(2022)
			f.runner.SetDefault(ports.CommandResult{})

			require.NoError(t, f.manager.Update(context.Background(), tt.opts))

			var got []string
			for _, c := range f.runner.Calls() {
				got = append(got, c.String())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	f := newFixture(2021)
	f.fs.AddFile(filepath.Join("/tl", "2021", "tlpkg", "texlive.tlpdb"),
		"name scheme-infraonly\ncategory Scheme\n\nname texlive.infra\ncategory TLCore\nrevision 59745\n")

	pkgs, err := f.manager.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "texlive.infra", pkgs[0].Name)
	assert.Equal(t, "59745", pkgs[0].Revision)
}
