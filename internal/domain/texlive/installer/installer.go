// Package installer downloads and runs install-tl.
package installer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/profile"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/tlpkg"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Archive names published next to each repository.
const (
	ArchiveUnix    = "install-tl-unx.tar.gz"
	ArchiveWindows = "install-tl.zip"
)

// Service acquires installers.
type Service struct {
	downloader ports.Downloader
	extractor  ports.Extractor
	runner     ports.CommandRunner
	fs         ports.FileSystem
	logger     ports.Logger
	tmpRoot    string
}

// NewService creates a Service that unpacks installers below tmpRoot.
func NewService(
	downloader ports.Downloader,
	extractor ports.Extractor,
	runner ports.CommandRunner,
	fs ports.FileSystem,
	logger ports.Logger,
	tmpRoot string,
) *Service {
	return &Service{
		downloader: downloader,
		extractor:  extractor,
		runner:     runner,
		fs:         fs,
		logger:     logger,
		tmpRoot:    tmpRoot,
	}
}

// Installer is an unpacked install-tl ready to run. Close removes it.
type Installer struct {
	service    *Service
	version    texlive.Version
	platform   texlive.Platform
	repository string
	workdir    string
	dir        string
}

// ArchiveName returns the installer archive for platform.
func ArchiveName(platform texlive.Platform) string {
	if platform.IsWindows() {
		return ArchiveWindows
	}
	return ArchiveUnix
}

// Acquire downloads and unpacks the installer of version for platform.
func (s *Service) Acquire(ctx context.Context, version texlive.Version, platform texlive.Platform) (*Installer, error) {
	repository := texlive.RepositoryURL(version)
	name := ArchiveName(platform)
	url := repository + name

	workdir, err := s.fs.MkdirTemp(s.tmpRoot, "setup-texlive-")
	if err != nil {
		return nil, fmt.Errorf("failed to create installer directory: %w", err)
	}
	inst := &Installer{
		service:    s,
		version:    version,
		platform:   platform,
		repository: repository,
		workdir:    workdir,
	}

	s.logger.Info(ctx, "Downloading installer", ports.F("url", url))
	archive := filepath.Join(workdir, name)
	if err := s.downloader.Download(ctx, url, archive); err != nil {
		_ = inst.Close()
		return nil, fault.New(fault.KindExecution, "failed to download %s", name).
			WithContext(url).
			WithSuggestion("Check the network connection of the runner").
			Wrap(err)
	}

	dest := filepath.Join(workdir, "installer")
	if err := s.extractor.Extract(ctx, archive, dest); err != nil {
		_ = inst.Close()
		return nil, fault.New(fault.KindExecution, "failed to extract %s", name).WithContext(archive).Wrap(err)
	}

	dir, err := uniqueChild(s.fs, dest)
	if err != nil {
		_ = inst.Close()
		return nil, fault.New(fault.KindExecution, "Unable to locate unpacked installer").WithContext(dest).Wrap(err)
	}
	inst.dir = dir
	return inst, nil
}

// uniqueChild returns the only entry of parent.
func uniqueChild(fs ports.FileSystem, parent string) (string, error) {
	entries, err := fs.ReadDir(parent)
	if err != nil {
		return "", err
	}
	switch len(entries) {
	case 0:
		return "", fmt.Errorf("%s has no entries", parent)
	case 1:
		return filepath.Join(parent, entries[0]), nil
	default:
		return "", fmt.Errorf("%s has multiple entries", parent)
	}
}

// Dir returns the unpacked installer directory.
func (i *Installer) Dir() string {
	return i.dir
}

// Repository returns the package repository the installer will use.
func (i *Installer) Repository() string {
	return i.repository
}

// Executable returns the path of the installer script.
func (i *Installer) Executable() string {
	if i.platform.IsWindows() {
		return filepath.Join(i.dir, "install-tl-windows.bat")
	}
	return filepath.Join(i.dir, "install-tl")
}

// Args returns the installer arguments for the profile at profilePath.
func (i *Installer) Args(profilePath string) []string {
	flag := "-repository"
	if i.version.Before(texlive.YearConfCommand) {
		flag = "-location"
	}
	return []string{"-no-gui", "-profile", profilePath, flag, i.repository}
}

// Run installs TeX Live as described by p.
func (i *Installer) Run(ctx context.Context, p *profile.Profile) error {
	s := i.service
	return p.Open(s.fs, s.tmpRoot, func(path string) error {
		exe := i.Executable()
		args := i.Args(path)
		s.logger.Debug(ctx, "Running installer", ports.F("command", ports.CommandCall{Command: exe, Args: args}.String()))

		result, err := s.runner.Run(ctx, exe, args...)
		if err != nil {
			return fault.New(fault.KindExecution, "failed to run install-tl").WithContext(exe).Wrap(err)
		}
		if !result.Success() {
			return fault.Execution("install-tl", result.ExitCode, result.Stderr).WithContext(exe)
		}
		return tlpkg.CheckOutput(result.Output())
	})
}

// Close removes the unpacked installer.
func (i *Installer) Close() error {
	return i.service.fs.RemoveAll(i.workdir)
}
