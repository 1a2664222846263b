// Package profile generates installation profiles for install-tl.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// FileName is the name of the written profile.
const FileName = "texlive.profile"

// Environment variables honored by install-tl and by New.
const (
	EnvTexmfLocal  = "TEXLIVE_INSTALL_TEXMFLOCAL"
	EnvTexmfHome   = "TEXLIVE_INSTALL_TEXMFHOME"
	EnvTexmfConfig = "TEXLIVE_INSTALL_TEXMFCONFIG"
	EnvTexmfVar    = "TEXLIVE_INSTALL_TEXMFVAR"
)

// Options describe the installation a profile is generated for.
type Options struct {
	Version texlive.Version
	// Prefix is the installation root; TEXDIR becomes Prefix/<version>.
	Prefix string
	// TexDir overrides TEXDIR when set.
	TexDir string
	// TexUserDir places the user trees below it. When empty the
	// installation is portable and the user trees default to the system ones.
	TexUserDir string
	Platform   texlive.Platform
	// Env looks up environment variables; os.LookupEnv when nil.
	Env func(key string) (string, bool)
}

// Profile is the set of settings passed to install-tl.
type Profile struct {
	Version  texlive.Version
	Platform texlive.Platform

	SelectedScheme string

	TexDir         string
	TexmfLocal     string
	TexmfSysConfig string
	TexmfSysVar    string
	TexmfHome      string
	TexmfConfig    string
	TexmfVar       string

	AdjustPath         bool
	AdjustRepo         bool
	AutoBackup         bool
	InstallDocFiles    bool
	InstallSrcFiles    bool
	DesktopIntegration bool
	FileAssocs         bool
	W32MultiUser       bool
	MenuIntegration    bool
}

// option exposes a boolean setting under key for releases in
// [since, until); zero bounds are open.
type option struct {
	key         string
	since       int
	until       int
	windowsOnly bool
	value       func(*Profile) bool
}

// options lists the boolean settings in output order. Renamed settings
// appear once per name, each with its own release range.
var options = []option{
	{key: "instopt_adjustpath", since: 2017, value: func(p *Profile) bool { return p.AdjustPath }},
	{key: "instopt_adjustrepo", since: 2017, value: func(p *Profile) bool { return p.AdjustRepo }},
	{key: "tlpdbopt_autobackup", since: 2017, value: func(p *Profile) bool { return p.AutoBackup }},
	{key: "tlpdbopt_install_docfiles", since: 2017, value: func(p *Profile) bool { return p.InstallDocFiles }},
	{key: "tlpdbopt_install_srcfiles", since: 2017, value: func(p *Profile) bool { return p.InstallSrcFiles }},

	{key: "tlpdbopt_desktop_integration", since: 2017, windowsOnly: true, value: func(p *Profile) bool { return p.DesktopIntegration }},
	{key: "tlpdbopt_file_assocs", since: 2017, windowsOnly: true, value: func(p *Profile) bool { return p.FileAssocs }},
	{key: "tlpdbopt_w32_multi_user", since: 2017, windowsOnly: true, value: func(p *Profile) bool { return p.W32MultiUser }},

	{key: "option_menu_integration", since: 2012, until: 2017, windowsOnly: true, value: func(p *Profile) bool { return p.MenuIntegration }},

	{key: "option_symlinks", until: 2009, value: func(p *Profile) bool { return p.AdjustPath }},
	{key: "option_path", since: 2009, until: 2017, value: func(p *Profile) bool { return p.AdjustPath }},
	{key: "option_adjustrepo", since: 2011, until: 2017, value: func(p *Profile) bool { return p.AdjustRepo }},
	{key: "option_autobackup", until: 2017, value: func(p *Profile) bool { return p.AutoBackup }},
	{key: "option_doc", until: 2017, value: func(p *Profile) bool { return p.InstallDocFiles }},
	{key: "option_src", until: 2017, value: func(p *Profile) bool { return p.InstallSrcFiles }},
	{key: "option_desktop_integration", since: 2009, until: 2017, windowsOnly: true, value: func(p *Profile) bool { return p.DesktopIntegration }},
	{key: "option_file_assocs", until: 2017, windowsOnly: true, value: func(p *Profile) bool { return p.FileAssocs }},
	{key: "option_w32_multi_user", since: 2009, until: 2017, windowsOnly: true, value: func(p *Profile) bool { return p.W32MultiUser }},
}

func (o option) exposed(v texlive.Version, platform texlive.Platform) bool {
	if o.since != 0 && v.Before(o.since) {
		return false
	}
	if o.until != 0 && v.AtLeast(o.until) {
		return false
	}
	return !o.windowsOnly || platform.IsWindows()
}

// New builds the profile for opts. All boolean settings are off except
// repository adjustment, which is enabled for the latest release only.
func New(opts Options) *Profile {
	lookup := opts.Env
	if lookup == nil {
		lookup = os.LookupEnv
	}
	env := func(key, fallback string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return fallback
	}

	p := &Profile{
		Version:        opts.Version,
		Platform:       opts.Platform,
		SelectedScheme: "scheme-infraonly",
		AdjustRepo:     opts.Version.IsLatest(),
	}
	if opts.Version.Before(texlive.YearInfraOnlyScheme) {
		p.SelectedScheme = "scheme-minimal"
	}

	if opts.TexDir != "" {
		p.setTexDir(opts.TexDir)
	} else {
		p.setTexDir(filepath.Join(opts.Prefix, opts.Version.String()))
		p.TexmfLocal = env(EnvTexmfLocal, filepath.Join(opts.Prefix, "texmf-local"))
	}

	if opts.TexUserDir != "" {
		p.TexmfHome = filepath.Join(opts.TexUserDir, "texmf")
		p.TexmfConfig = filepath.Join(opts.TexUserDir, "texmf-config")
		p.TexmfVar = filepath.Join(opts.TexUserDir, "texmf-var")
	} else {
		p.TexmfHome = env(EnvTexmfHome, p.TexmfLocal)
		p.TexmfConfig = env(EnvTexmfConfig, p.TexmfSysConfig)
		p.TexmfVar = env(EnvTexmfVar, p.TexmfSysVar)
	}

	return p
}

func (p *Profile) setTexDir(texdir string) {
	p.TexDir = texdir
	p.TexmfLocal = filepath.Join(texdir, "texmf-local")
	p.TexmfSysConfig = filepath.Join(texdir, "texmf-config")
	p.TexmfSysVar = filepath.Join(texdir, "texmf-var")
}

// Settings returns the profile entries in output order.
func (p *Profile) Settings() [][2]string {
	settings := [][2]string{
		{"selected_scheme", p.SelectedScheme},
		{"TEXDIR", p.TexDir},
		{"TEXMFLOCAL", p.TexmfLocal},
		{"TEXMFSYSCONFIG", p.TexmfSysConfig},
		{"TEXMFSYSVAR", p.TexmfSysVar},
		{"TEXMFHOME", p.TexmfHome},
		{"TEXMFCONFIG", p.TexmfConfig},
		{"TEXMFVAR", p.TexmfVar},
	}
	for _, o := range options {
		if !o.exposed(p.Version, p.Platform) {
			continue
		}
		value := "0"
		if o.value(p) {
			value = "1"
		}
		settings = append(settings, [2]string{o.key, value})
	}
	return settings
}

// String renders the profile as "key value" lines.
func (p *Profile) String() string {
	var b strings.Builder
	for _, kv := range p.Settings() {
		fmt.Fprintf(&b, "%s %s\n", kv[0], kv[1])
	}
	return b.String()
}

// Open writes the profile to a fresh directory below tmpRoot, calls fn with
// the profile path and removes the directory afterwards.
func (p *Profile) Open(fs ports.FileSystem, tmpRoot string, fn func(path string) error) (err error) {
	dir, err := fs.MkdirTemp(tmpRoot, "setup-texlive-")
	if err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	defer func() {
		if rmErr := fs.RemoveAll(dir); rmErr != nil && err == nil {
			err = fmt.Errorf("failed to remove profile directory: %w", rmErr)
		}
	}()

	path := filepath.Join(dir, FileName)
	if err := fs.WriteFile(path, []byte(p.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return fn(path)
}
