package setup

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/cache"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/config"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/installer"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
	"github.com/felixgeelhaar/setup-texlive/internal/testutil/mocks"
)

const (
	tmpRoot    = "/runner/tmp"
	prefix     = "/opt/texlive"
	installDir = "install-tl-20220321"
)

type mapEnv map[string]string

func (m mapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapEnv) Set(key, value string) error {
	m[key] = value
	return nil
}

type fixture struct {
	runner     *mocks.CommandRunner
	fs         *mocks.FileSystem
	workflow   *mocks.Workflow
	cache      *mocks.CacheService
	downloader *mocks.Downloader
	state      *mocks.StateStore
	logger     *mocks.Logger
	env        mapEnv
	platform   texlive.Platform
	service    *Service
}

func newFixture(platform texlive.Platform) *fixture {
	fs := mocks.NewFileSystem()
	f := &fixture{
		runner:     mocks.NewCommandRunner(),
		fs:         fs,
		workflow:   mocks.NewWorkflow(),
		cache:      mocks.NewCacheService(),
		downloader: mocks.NewDownloader(fs),
		state:      mocks.NewStateStore(ports.StepState{}),
		logger:     mocks.NewLogger(),
		env:        mapEnv{},
		platform:   platform,
	}
	f.runner.SetDefault(ports.CommandResult{})

	extractor := mocks.NewExtractor(fs, installDir+"/")
	installers := installer.NewService(f.downloader, extractor, f.runner, fs, f.logger, tmpRoot)
	f.service = NewService(Dependencies{
		Runner:     f.runner,
		FS:         fs,
		Workflow:   f.workflow,
		Cache:      f.cache,
		Installers: installers,
		State:      f.state,
		Logger:     f.logger,
		Env:        f.env,
	}, Options{Platform: platform, Arch: "x64"})
	return f
}

// executable is the installer script of the first acquired installer.
func (f *fixture) executable() string {
	name := "install-tl"
	if f.platform.IsWindows() {
		name = "install-tl-windows.bat"
	}
	return filepath.Join(tmpRoot, "setup-texlive-1", "installer", installDir, name)
}

// onInstall makes the installer create the binary directory of version,
// plus the given files.
func (f *fixture) onInstall(version texlive.Version, files ...string) {
	f.runner.OnCommand(f.executable(), func() {
		texdir := filepath.Join(prefix, version.String())
		f.fs.AddDir(filepath.Join(texdir, "bin", "x86_64-linux"))
		for _, file := range files {
			f.fs.AddFile(filepath.Join(texdir, file), "")
		}
	})
}

// onRestore makes a cache hit create the binary directory of version.
func (f *fixture) onRestore(version texlive.Version, key string) {
	f.cache.SetRestoreResult(key, nil)
	f.cache.OnRestore(func() {
		f.fs.AddDir(filepath.Join(prefix, version.String(), "bin", "x86_64-linux"))
	})
}

func (f *fixture) descriptor(in *config.Inputs) cache.Descriptor {
	return cache.NewDescriptor(filepath.Join(prefix, in.Version.String()), f.platform, "x64", in.Version, in.Packages)
}

func inputs(year int, packages ...string) *config.Inputs {
	return &config.Inputs{
		Cache:    true,
		Packages: packages,
		Prefix:   prefix,
		Version:  texlive.MustVersion(year),
	}
}

func TestRun_ColdCache(t *testing.T) {
	t.Parallel()

	f := newFixture(texlive.Linux)
	in := inputs(2021)
	f.onInstall(in.Version)

	res, err := f.service.Run(context.Background(), in)
	require.NoError(t, err)

	desc := f.descriptor(in)
	restores := f.cache.RestoreCalls()
	require.Len(t, restores, 1)
	assert.Equal(t, desc.PrimaryKey, restores[0].PrimaryKey)
	assert.Equal(t, desc.RestoreKeys, restores[0].RestoreKeys)
	assert.Equal(t, []string{desc.Target}, restores[0].Paths)

	downloads := f.downloader.Calls()
	require.Len(t, downloads, 1)
	assert.Contains(t, downloads[0].URL, "/2021/")

	runs := f.runner.CallsTo(f.executable())
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Args, "-profile")

	assert.Empty(t, f.runner.CallsTo("tlmgr", "install"))
	assert.Empty(t, f.runner.CallsTo("tlmgr", "pinning"))
	assert.Empty(t, f.runner.CallsTo("tlmgr", "repository"))

	assert.Equal(t, []string{filepath.Join(prefix, "2021", "bin", "x86_64-linux")}, f.workflow.Paths())
	assert.Equal(t, map[string]string{OutputVersion: "2021", OutputCacheHit: "false"}, f.workflow.Outputs())
	assert.NotContains(t, f.workflow.Groups(), "Adjusting TEXMF")

	assert.Equal(t, desc.PrimaryKey, res.Key)
	assert.Equal(t, ports.StepState{Key: desc.PrimaryKey, Target: desc.Target, Post: true}, f.state.State())
	assert.Equal(t, StateReady, res.State)
	assert.Equal(t, []State{StateUninitialized, StateCacheMiss, StateConfigured, StateReady}, res.History)
	assert.Equal(t, cache.Miss, res.Outcome)

	assert.False(t, f.fs.Exists(filepath.Join(tmpRoot, "setup-texlive-1")), "installer must be removed")
	assert.False(t, f.fs.Exists(filepath.Join(tmpRoot, "setup-texlive-2")), "profile must be removed")
}

func TestRun_CacheDisabled(t *testing.T) {
	t.Parallel()

	f := newFixture(texlive.Linux)
	in := inputs(2008, "amsmath", "babel")
	in.Cache = false
	f.onInstall(in.Version)

	res, err := f.service.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, f.cache.RestoreCalls())
	installs := f.runner.CallsTo("tlmgr", "install")
	require.Len(t, installs, 1)
	assert.Equal(t, []string{"install", "amsmath", "babel"}, installs[0].Args)

	runs := f.runner.CallsTo(f.executable())
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Args, "-location")

	assert.Empty(t, res.Key)
	assert.Equal(t, ports.StepState{Target: filepath.Join(prefix, "2008"), Post: true}, f.state.State())
}

func TestRun_PartialHit(t *testing.T) {
	t.Parallel()

	f := newFixture(texlive.Linux)
	in := inputs(2021, "amsmath", "babel")
	desc := f.descriptor(in)
	f.onRestore(in.Version, desc.RestoreKeys[0])

	res, err := f.service.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, f.downloader.Calls())
	assert.Empty(t, f.runner.CallsTo(f.executable()))
	installs := f.runner.CallsTo("tlmgr", "install")
	require.Len(t, installs, 1)
	assert.Equal(t, []string{"install", "amsmath", "babel"}, installs[0].Args)

	assert.Equal(t, desc.PrimaryKey, res.Key)
	assert.Equal(t, cache.PartialHit, res.Outcome)
	assert.Equal(t, []State{StateUninitialized, StateCacheHitPartial, StateConfigured, StateReady}, res.History)
	assert.Equal(t, "true", f.workflow.Outputs()[OutputCacheHit])
}

func TestRun_FullHit(t *testing.T) {
	t.Parallel()

	f := newFixture(texlive.Linux)
	in := inputs(2021, "amsmath")
	desc := f.descriptor(in)
	f.onRestore(in.Version, desc.PrimaryKey)

	res, err := f.service.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, f.downloader.Calls())
	assert.Empty(t, f.runner.CallsTo("tlmgr", "install"))
	assert.Empty(t, res.Key)
	assert.Equal(t, cache.FullHit, res.Outcome)
	assert.Equal(t, StateCacheHitFull, res.History[1])
	assert.Equal(t, ports.StepState{Target: desc.Target, Post: true}, f.state.State())
	assert.Equal(t, "true", f.workflow.Outputs()[OutputCacheHit])
	assert.Len(t, f.workflow.Paths(), 1)
}

func TestRun_RestoreErrorIsMiss(t *testing.T) {
	t.Parallel()

	f := newFixture(texlive.Linux)
	in := inputs(2021)
	f.cache.SetRestoreResult("", errors.New("connection reset"))
	f.onInstall(in.Version)

	res, err := f.service.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, cache.Miss, res.Outcome)
	assert.Len(t, f.downloader.Calls(), 1)
	assert.Contains(t, f.logger.Messages(ports.LevelWarn), "Failed to restore cache")
	assert.NotEmpty(t, res.Key)
}

func TestRun_TlContrib(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		result  ports.CommandResult
		message string
	}{
		{name: "registered", result: ports.CommandResult{}},
		{
			name:    "already defined",
			result:  ports.CommandResult{ExitCode: 2, Stderr: "tlmgr: repository or its tag already defined"},
			message: "TLContrib is already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(texlive.Linux)
			in := inputs(2022)
			in.TlContrib = true
			f.onInstall(in.Version)
			f.runner.AddResult("tlmgr", []string{"repository", "add", texlive.ContribRepository, texlive.ContribTag}, tt.result)

			_, err := f.service.Run(context.Background(), in)
			require.NoError(t, err)

			assert.Len(t, f.runner.CallsTo("tlmgr", "repository", "add"), 1)
			pins := f.runner.CallsTo("tlmgr", "pinning", "add")
			require.Len(t, pins, 1)
			assert.Equal(t, []string{"pinning", "add", "tlcontrib", "*"}, pins[0].Args)
			if tt.message != "" {
				assert.Contains(t, f.logger.Messages(ports.LevelInfo), tt.message)
			}
		})
	}
}

func TestRun_RestoredLatestIsUpdated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		updateAll bool
		args      []string
	}{
		{name: "self", args: []string{"update", "--self"}},
		{name: "all packages", updateAll: true, args: []string{"update", "--self", "--all"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(texlive.Linux)
			in := inputs(2022)
			in.UpdateAllPackages = tt.updateAll
			f.onRestore(in.Version, f.descriptor(in).PrimaryKey)

			_, err := f.service.Run(context.Background(), in)
			require.NoError(t, err)

			updates := f.runner.CallsTo("tlmgr", "update")
			require.Len(t, updates, 1)
			assert.Equal(t, tt.args, updates[0].Args)
		})
	}
}

func TestRun_FreshInstallIsNotUpdated(t *testing.T) {
	t.Parallel()

	f := newFixture(texlive.Linux)
	in := inputs(2022)
	in.UpdateAllPackages = true
	f.onInstall(in.Version)

	_, err := f.service.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, f.runner.CallsTo("tlmgr", "update"))
}

func TestRun_ReconcilesUserTrees(t *testing.T) {
	t.Parallel()

	f := newFixture(texlive.Linux)
	in := inputs(2021)
	f.env[config.EnvTexmfHome] = "/home/runner/texmf"
	f.env[config.EnvTexmfConfig] = "/home/runner/.local/texlive/2021/texmf-config"
	f.runner.AddResult("kpsewhich", []string{"-var-value", "TEXMFHOME"}, ports.CommandResult{Stdout: "/home/builder/texmf\n"})
	f.runner.AddResult("kpsewhich", []string{"-var-value", "TEXMFCONFIG"}, ports.CommandResult{
		Stdout: "/home/runner/.local/texlive/2021/texmf-config\n",
	})
	f.onRestore(in.Version, f.descriptor(in).PrimaryKey)

	_, err := f.service.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Contains(t, f.workflow.Groups(), "Adjusting TEXMF")
	assert.Len(t, f.runner.CallsTo("kpsewhich"), 2)
	confs := f.runner.CallsTo("tlmgr", "conf", "texmf")
	require.Len(t, confs, 1)
	assert.Equal(t, []string{"conf", "texmf", "TEXMFHOME", "/home/runner/texmf"}, confs[0].Args)
}

func TestRun_ReconcileExportsOnOldReleases(t *testing.T) {
	t.Parallel()

	f := newFixture(texlive.Linux)
	in := inputs(2009)
	f.env[config.EnvTexmfVar] = "/home/runner/.local/texlive/2009/texmf-var"
	f.onRestore(in.Version, f.descriptor(in).PrimaryKey)

	_, err := f.service.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Empty(t, f.runner.CallsTo("tlmgr", "conf"))
	assert.Equal(t, "/home/runner/.local/texlive/2009/texmf-var", f.workflow.Env()["TEXMFVAR"])
}

func TestRun_Platforms(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform texlive.Platform
		year     int
		files    []string
		group    string
	}{
		{
			name:     "windows",
			platform: texlive.Windows,
			year:     2021,
			group:    "Installing TeX Live 2021 for Windows",
		},
		{
			name:     "macos with patch",
			platform: texlive.Darwin,
			year:     2018,
			files:    []string{"tlpkg/TeXLive/TLUtils.pm"},
			group:    "Installing TeX Live 2018 for macOS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(tt.platform)
			in := inputs(tt.year)
			f.onInstall(in.Version, tt.files...)

			_, err := f.service.Run(context.Background(), in)
			require.NoError(t, err)

			assert.Len(t, f.runner.CallsTo(f.executable()), 1)
			assert.Contains(t, f.workflow.Groups(), tt.group)
			assert.Len(t, f.workflow.Paths(), 1)
		})
	}
}

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	t.Run("installer fails", func(t *testing.T) {
		t.Parallel()

		f := newFixture(texlive.Linux)
		in := inputs(2021)
		f.runner.SetDefault(ports.CommandResult{ExitCode: 1, Stderr: "mirror unreachable"})

		res, err := f.service.Run(context.Background(), in)
		require.Error(t, err)
		assert.Nil(t, res)
		assert.Equal(t, fault.KindExecution, fault.KindOf(err))
		assert.Equal(t, 0, f.state.Saves())
		assert.Empty(t, f.workflow.Outputs())
	})

	t.Run("missing bin directory", func(t *testing.T) {
		t.Parallel()

		f := newFixture(texlive.Linux)
		in := inputs(2021)

		_, err := f.service.Run(context.Background(), in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unable to locate the bin directory")
	})

	t.Run("missing patch target", func(t *testing.T) {
		t.Parallel()

		f := newFixture(texlive.Darwin)
		in := inputs(2018)
		f.onInstall(in.Version)

		_, err := f.service.Run(context.Background(), in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, fault.ErrPatch))
		assert.Empty(t, f.workflow.Paths())
	})

	t.Run("tlmgr unavailable", func(t *testing.T) {
		t.Parallel()

		f := newFixture(texlive.Linux)
		in := inputs(2021, "amsmath")
		f.runner.AddError("tlmgr", []string{"install", "amsmath"}, errors.New("exec: \"tlmgr\": executable file not found in $PATH"))
		f.onInstall(in.Version)

		_, err := f.service.Run(context.Background(), in)
		require.Error(t, err)
		assert.Equal(t, fault.KindExecution, fault.KindOf(err))
	})
}

func TestPost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		state   ports.StepState
		loadErr error
		saveErr error
		saves   int
		wantErr bool
		warn    string
	}{
		{
			name:  "saves recorded key",
			state: ports.StepState{Key: "setup-texlive-linux-x64-2021-abc", Target: "/opt/texlive/2021", Post: true},
			saves: 1,
		},
		{
			name:  "nothing recorded",
			state: ports.StepState{Target: "/opt/texlive/2021", Post: true},
		},
		{
			name:  "main step incomplete",
			state: ports.StepState{Key: "setup-texlive-linux-x64-2021-abc"},
		},
		{
			name:    "save failure is a warning",
			state:   ports.StepState{Key: "setup-texlive-linux-x64-2021-abc", Target: "/opt/texlive/2021", Post: true},
			saveErr: errors.New("disk full"),
			saves:   1,
			warn:    "Failed to save to cache",
		},
		{
			name:    "unreadable state",
			loadErr: errors.New("permission denied"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(texlive.Linux)
			require.NoError(t, f.state.Save(tt.state))
			if tt.loadErr != nil {
				f.state.SetLoadError(tt.loadErr)
			}
			f.cache.SetSaveError(tt.saveErr)

			err := f.service.Post(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			saves := f.cache.SaveCalls()
			require.Len(t, saves, tt.saves)
			if tt.saves > 0 {
				assert.Equal(t, tt.state.Key, saves[0].Key)
				assert.Equal(t, []string{tt.state.Target}, saves[0].Paths)
			}
			if tt.warn != "" {
				assert.Contains(t, f.logger.Messages(ports.LevelWarn), tt.warn)
			}
		})
	}
}

func TestRunMachine(t *testing.T) {
	t.Parallel()

	r, err := newRun()
	require.NoError(t, err)
	r.start()
	defer r.stop()

	require.NoError(t, r.advance(EventMiss))
	assert.Error(t, r.advance(EventReady), "ready must follow configured")

	cause := errors.New("boom")
	r.fail(cause)
	assert.Equal(t, StateFailed, r.State())
	assert.Equal(t, cause, r.err)
}

func TestRunMachine_Outcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		outcome cache.Outcome
		want    State
	}{
		{cache.Miss, StateCacheMiss},
		{cache.PartialHit, StateCacheHitPartial},
		{cache.FullHit, StateCacheHitFull},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.String(), func(t *testing.T) {
			t.Parallel()

			r, err := newRun()
			require.NoError(t, err)
			r.start()
			defer r.stop()

			assert.Equal(t, StateUninitialized, r.State())
			require.NoError(t, r.advance(outcomeEvent(tt.outcome)))
			require.NoError(t, r.advance(EventConfigured))
			require.NoError(t, r.advance(EventReady))

			assert.Equal(t, StateReady, r.State())
			assert.Equal(t, []State{StateUninitialized, tt.want, StateConfigured, StateReady}, r.history)
		})
	}
}
