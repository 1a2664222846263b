package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/setup-texlive/internal/adapters/archive"
	"github.com/felixgeelhaar/setup-texlive/internal/adapters/cache"
	"github.com/felixgeelhaar/setup-texlive/internal/adapters/command"
	"github.com/felixgeelhaar/setup-texlive/internal/adapters/ctan"
	"github.com/felixgeelhaar/setup-texlive/internal/adapters/download"
	"github.com/felixgeelhaar/setup-texlive/internal/adapters/filesystem"
	"github.com/felixgeelhaar/setup-texlive/internal/adapters/statefile"
	"github.com/felixgeelhaar/setup-texlive/internal/adapters/workflow"
	"github.com/felixgeelhaar/setup-texlive/internal/app/setup"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/config"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/installer"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Restore or install TeX Live",
	Long: `Restore TeX Live from the cache or install it, then install the
requested packages.

Every flag can also be given as an INPUT_<NAME> environment variable, the
way GitHub Actions passes action inputs, or in the file named by --config.`,
	Example: `  setup-texlive run --version 2022 --packages "latexmk hyperref"
  setup-texlive run --package-file .github/tl_packages --tlcontrib`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.Bool(config.KeyCache, true, "cache the installation between jobs")
	f.String(config.KeyPackages, "", "packages to install (DEPENDS.txt syntax)")
	f.String(config.KeyPackageFile, "", "file listing packages to install")
	f.String(config.KeyPrefix, "", "installation prefix (default: $TEXLIVE_INSTALL_PREFIX)")
	f.String(config.KeyTexDir, "", "installation directory (default: <prefix>/<version>)")
	f.Bool(config.KeyTlContrib, false, "set up TLContrib as an additional repository")
	f.Bool(config.KeyUpdateAllPackages, false, "update all packages of a restored installation")
	f.String(config.KeyVersion, texlive.LatestAlias, "TeX Live release year or \"latest\"")
}

// env bundles the adapters shared by the subcommands.
type env struct {
	logger   ports.Logger
	environ  config.Environment
	fs       *filesystem.RealFileSystem
	runner   *command.RealRunner
	workflow *workflow.Actions
	cache    *cache.LocalCache
	state    *statefile.Store
}

func newEnv(out, logOut io.Writer) *env {
	logger := newLogger(logOut)
	environ := config.OSEnvironment{}
	return &env{
		logger:   logger,
		environ:  environ,
		fs:       filesystem.NewRealFileSystem(),
		runner:   command.NewRealRunner(command.WithEcho(out), command.WithLogger(logger)),
		workflow: workflow.New(out, logger),
		cache:    cache.NewLocalCache(cache.DefaultDir(environ.Lookup), logger),
		state:    statefile.New(statefile.DefaultPath(config.TempDir(environ))),
	}
}

func (e *env) service() *setup.Service {
	installers := installer.NewService(
		download.New(download.DefaultConfig(userAgent()), e.logger),
		archive.NewExtractor(),
		e.runner,
		e.fs,
		e.logger,
		config.TempDir(e.environ),
	)
	return setup.NewService(setup.Dependencies{
		Runner:     e.runner,
		FS:         e.fs,
		Workflow:   e.workflow,
		Cache:      e.cache,
		Installers: installers,
		State:      e.state,
		Logger:     e.logger,
		Env:        e.environ,
	}, setup.Options{
		Platform: texlive.CurrentPlatform(),
		Arch:     runtime.GOARCH,
	})
}

// load reads the raw inputs of cmd.
func load(cmd *cobra.Command) (*config.Raw, error) {
	return config.Load(config.LoadOptions{ConfigFile: cfgFile, Flags: cmd.Flags()})
}

// resolve resolves raw, looking up the latest release on CTAN if needed.
func (e *env) resolve(ctx context.Context, raw *config.Raw) (*config.Inputs, error) {
	resolver := &config.Resolver{
		FS:     e.fs,
		Cache:  e.cache,
		Lookup: ctan.NewClient(ctan.DefaultClientConfig(userAgent())),
		Env:    e.environ,
		Logger: e.logger,
	}
	return resolver.Resolve(ctx, raw)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e := newEnv(cmd.OutOrStdout(), os.Stderr)

	raw, err := load(cmd)
	if err != nil {
		return err
	}
	in, err := e.resolve(ctx, raw)
	if err != nil {
		return err
	}
	e.logger.Debug(ctx, "Resolved inputs",
		ports.F("version", in.Version),
		ports.F("packages", len(in.Packages)),
		ports.F("cache", in.Cache),
	)

	res, err := e.service().Run(ctx, in)
	if err != nil {
		return err
	}

	e.logger.Info(ctx, fmt.Sprintf("TeX Live %s is ready", res.Version),
		ports.F("texdir", res.TexDir),
		ports.F("cache", res.Outcome),
	)
	return nil
}
