// Package setup provisions TeX Live for a CI job: the main step restores or
// installs the requested release and the post step saves it to the cache.
package setup

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/cache"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/config"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/installer"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/profile"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/tlmgr"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/tlpkg"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Step outputs.
const (
	OutputVersion  = "version"
	OutputCacheHit = "cache-hit"
)

// Dependencies are the collaborators of a Service.
type Dependencies struct {
	Runner     ports.CommandRunner
	FS         ports.FileSystem
	Workflow   ports.Workflow
	Cache      ports.CacheService
	Installers *installer.Service
	State      ports.StateStore
	Logger     ports.Logger
	Env        config.Environment
}

// Options describe the machine being provisioned.
type Options struct {
	Platform texlive.Platform
	// Arch is the CPU architecture used in cache keys.
	Arch string
}

// Result summarizes a completed main step.
type Result struct {
	Version texlive.Version
	Outcome cache.Outcome
	State   State
	// History lists the states the run went through.
	History []State
	TexDir  string
	// Key is the cache key recorded for the post step, if any.
	Key string
}

// Service runs the main and post steps.
type Service struct {
	runner     ports.CommandRunner
	fs         ports.FileSystem
	workflow   ports.Workflow
	cache      *cache.Client
	installers *installer.Service
	state      ports.StateStore
	logger     ports.Logger
	env        config.Environment
	opts       Options
}

// NewService creates a Service.
func NewService(deps Dependencies, opts Options) *Service {
	return &Service{
		runner:     deps.Runner,
		fs:         deps.FS,
		workflow:   deps.Workflow,
		cache:      cache.NewClient(deps.Cache, deps.Logger),
		installers: deps.Installers,
		state:      deps.State,
		logger:     deps.Logger,
		env:        deps.Env,
		opts:       opts,
	}
}

// Run executes the main step for in.
func (s *Service) Run(ctx context.Context, in *config.Inputs) (res *Result, err error) {
	r, err := newRun()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}
	r.start()
	defer r.stop()
	defer func() {
		if err != nil {
			r.fail(err)
		}
	}()

	manager := tlmgr.New(s.runner, s.workflow, s.fs, in.Version, in.Prefix, tlmgr.WithTexDir(in.TexDir))
	desc := cache.NewDescriptor(manager.TexDir(), s.opts.Platform, s.opts.Arch, in.Version, in.Packages)

	outcome := cache.Miss
	if in.Cache {
		_ = s.workflow.Group(ctx, "Restoring cache", func(ctx context.Context) error {
			outcome = s.cache.Restore(ctx, desc)
			return nil
		})
	}
	if err := r.advance(outcomeEvent(outcome)); err != nil {
		return nil, err
	}

	if !outcome.Restored() {
		title := fmt.Sprintf("Installing TeX Live %s for %s", in.Version, s.opts.Platform.DisplayName())
		if err := s.workflow.Group(ctx, title, func(ctx context.Context) error {
			return s.install(ctx, in, manager)
		}); err != nil {
			return nil, err
		}
	}

	if err := manager.PathAdd(ctx); err != nil {
		return nil, err
	}

	if outcome.Restored() && in.Version.IsLatest() {
		if err := s.workflow.Group(ctx, "Updating tlmgr", func(ctx context.Context) error {
			return manager.Update(ctx, tlmgr.UpdateOptions{Self: true, All: in.UpdateAllPackages})
		}); err != nil {
			return nil, err
		}
	}

	if in.TlContrib && in.Version.IsLatest() {
		if err := s.workflow.Group(ctx, "Setting up TLContrib", func(ctx context.Context) error {
			return s.addContrib(ctx, manager)
		}); err != nil {
			return nil, err
		}
	}

	if outcome != cache.FullHit && len(in.Packages) > 0 {
		if err := s.workflow.Group(ctx, "Installing packages", func(ctx context.Context) error {
			return manager.Install(ctx, in.Packages...)
		}); err != nil {
			return nil, err
		}
	}

	if outcome.Restored() {
		if err := s.workflow.Group(ctx, "Adjusting TEXMF", func(ctx context.Context) error {
			return s.reconcile(ctx, manager)
		}); err != nil {
			return nil, err
		}
	}

	if err := r.advance(EventConfigured); err != nil {
		return nil, err
	}

	if err := s.workflow.SetOutput(OutputVersion, in.Version.String()); err != nil {
		return nil, fmt.Errorf("failed to set output %s: %w", OutputVersion, err)
	}
	if err := s.workflow.SetOutput(OutputCacheHit, strconv.FormatBool(outcome.Restored())); err != nil {
		return nil, fmt.Errorf("failed to set output %s: %w", OutputCacheHit, err)
	}

	var key string
	if in.Cache && outcome != cache.FullHit {
		key = desc.PrimaryKey
	}
	if err := s.state.Save(ports.StepState{Key: key, Target: desc.Target, Post: true}); err != nil {
		return nil, fmt.Errorf("failed to save step state: %w", err)
	}

	if err := r.advance(EventReady); err != nil {
		return nil, err
	}

	return &Result{
		Version: in.Version,
		Outcome: outcome,
		State:   r.State(),
		History: r.history,
		TexDir:  manager.TexDir(),
		Key:     key,
	}, nil
}

// install acquires and runs the installer, then patches the new tree.
func (s *Service) install(ctx context.Context, in *config.Inputs, manager *tlmgr.Manager) error {
	inst, err := s.installers.Acquire(ctx, in.Version, s.opts.Platform)
	if err != nil {
		return err
	}
	defer func() {
		if err := inst.Close(); err != nil {
			s.logger.Warn(ctx, "Failed to remove installer", ports.F("dir", inst.Dir()), ports.Err(err))
		}
	}()

	p := profile.New(profile.Options{
		Version:  in.Version,
		Prefix:   in.Prefix,
		TexDir:   in.TexDir,
		Platform: s.opts.Platform,
		Env:      s.env.Lookup,
	})
	s.logger.Debug(ctx, "Generated profile", ports.F("profile", p.String()))

	if err := inst.Run(ctx, p); err != nil {
		return err
	}
	return tlpkg.Patch(ctx, s.fs, s.logger, tlpkg.Options{
		TexDir:   manager.TexDir(),
		Version:  in.Version,
		Platform: s.opts.Platform,
	})
}

// addContrib registers TLContrib and pins every package to it, so its
// packages are installed only when requested from it explicitly.
func (s *Service) addContrib(ctx context.Context, manager *tlmgr.Manager) error {
	added, err := manager.RepositoryAdd(ctx, texlive.ContribRepository, texlive.ContribTag)
	if err != nil {
		return err
	}
	if !added {
		s.logger.Info(ctx, "TLContrib is already registered")
	}
	return manager.PinningAdd(ctx, texlive.ContribTag, "*")
}

var userTrees = []struct {
	key string
	env string
}{
	{tlmgr.TexmfHome, config.EnvTexmfHome},
	{tlmgr.TexmfConfig, config.EnvTexmfConfig},
	{tlmgr.TexmfVar, config.EnvTexmfVar},
}

// reconcile points the user trees of a restored installation at the
// directories of the current environment.
func (s *Service) reconcile(ctx context.Context, manager *tlmgr.Manager) error {
	for _, tree := range userTrees {
		want, ok := s.env.Lookup(tree.env)
		if !ok {
			continue
		}
		got, err := manager.ConfTexmf(ctx, tree.key)
		if err != nil {
			return err
		}
		if filepath.Clean(got) == filepath.Clean(want) {
			continue
		}
		s.logger.Info(ctx, "Updating texmf variable", ports.F("name", tree.key), ports.F("value", want))
		if err := manager.SetConfTexmf(ctx, tree.key, want); err != nil {
			return err
		}
	}
	return nil
}

// Post executes the post step: the installation is saved under the key
// recorded by the main step. Save failures are only logged.
func (s *Service) Post(ctx context.Context) error {
	st, err := s.state.Load()
	if err != nil {
		return fault.New(fault.KindExecution, "failed to load step state").
			WithSuggestion("The post step must run after the main step of the same job").
			Wrap(err)
	}
	if !st.Post {
		s.logger.Info(ctx, "Main step did not complete; nothing to do")
		return nil
	}
	if st.Key == "" {
		s.logger.Info(ctx, "Nothing to save")
		return nil
	}
	_ = s.workflow.Group(ctx, "Saving cache", func(ctx context.Context) error {
		s.cache.Save(ctx, st.Target, st.Key)
		return nil
	})
	return nil
}
