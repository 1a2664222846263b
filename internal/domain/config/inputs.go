// Package config loads and validates the inputs of a provisioning run.
//
// Inputs are layered with viper: command-line flags win over INPUT_*
// environment variables (the GitHub Actions convention), which win over an
// optional YAML file, which wins over the defaults below.
package config

import (
	"context"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/fault"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive/depends"
	"github.com/felixgeelhaar/setup-texlive/internal/ports"
)

// Input names.
const (
	KeyCache             = "cache"
	KeyPackages          = "packages"
	KeyPackageFile       = "package-file"
	KeyPrefix            = "prefix"
	KeyTexDir            = "texdir"
	KeyTlContrib         = "tlcontrib"
	KeyUpdateAllPackages = "update-all-packages"
	KeyVersion           = "version"
)

// EnvPrefixInputs prefixes input environment variables.
const EnvPrefixInputs = "INPUT"

// Raw holds the inputs as given, before resolution.
type Raw struct {
	Cache             bool
	Packages          string
	PackageFile       string
	Prefix            string
	TexDir            string
	TlContrib         bool
	UpdateAllPackages bool
	Version           string
}

// LoadOptions control where inputs are read from.
type LoadOptions struct {
	// ConfigFile is an optional YAML file.
	ConfigFile string
	// Flags are bound when non-nil; only flags set by the user take effect.
	Flags *pflag.FlagSet
}

// Load reads the raw inputs.
func Load(opts LoadOptions) (*Raw, error) {
	v := viper.New()

	v.SetDefault(KeyCache, true)
	v.SetDefault(KeyPackages, "")
	v.SetDefault(KeyPackageFile, "")
	v.SetDefault(KeyPrefix, "")
	v.SetDefault(KeyTexDir, "")
	v.SetDefault(KeyTlContrib, false)
	v.SetDefault(KeyUpdateAllPackages, false)
	v.SetDefault(KeyVersion, texlive.LatestAlias)

	// GitHub Actions upper-cases input names but keeps hyphens.
	v.SetEnvPrefix(EnvPrefixInputs)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		path, err := homedir.Expand(opts.ConfigFile)
		if err != nil {
			return nil, fault.Configuration("invalid config file path").WithContext(opts.ConfigFile).Wrap(err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fault.Configuration("failed to read config file").
				WithContext(path).
				WithSuggestion("Check that the file exists and contains valid YAML").
				Wrap(err)
		}
	}

	if opts.Flags != nil {
		if err := v.BindPFlags(opts.Flags); err != nil {
			return nil, fault.Configuration("failed to bind flags").Wrap(err)
		}
	}

	return &Raw{
		Cache:             v.GetBool(KeyCache),
		Packages:          v.GetString(KeyPackages),
		PackageFile:       v.GetString(KeyPackageFile),
		Prefix:            v.GetString(KeyPrefix),
		TexDir:            v.GetString(KeyTexDir),
		TlContrib:         v.GetBool(KeyTlContrib),
		UpdateAllPackages: v.GetBool(KeyUpdateAllPackages),
		Version:           v.GetString(KeyVersion),
	}, nil
}

// Inputs are the resolved and validated inputs of a run.
type Inputs struct {
	Cache             bool
	Packages          []string
	Prefix            string
	TexDir            string
	TlContrib         bool
	UpdateAllPackages bool
	Version           texlive.Version
}

// Resolver turns raw inputs into Inputs.
type Resolver struct {
	FS     ports.FileSystem
	Cache  ports.CacheService
	Lookup ports.ReleaseLookup
	Env    Environment
	Logger ports.Logger
}

// Resolve resolves the version, applies the install-tl environment defaults,
// collects the package list and drops options that cannot take effect.
func (r *Resolver) Resolve(ctx context.Context, raw *Raw) (*Inputs, error) {
	version, err := r.version(ctx, raw.Version)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnvDefaults(r.Env, version); err != nil {
		return nil, fault.Configuration("failed to set up the environment").Wrap(err)
	}

	packages, err := r.packages(raw)
	if err != nil {
		return nil, err
	}

	prefix := raw.Prefix
	if prefix == "" {
		prefix, _ = r.Env.Lookup(EnvPrefix)
	}
	if prefix, err = expand(KeyPrefix, prefix); err != nil {
		return nil, err
	}
	texdir, err := expand(KeyTexDir, raw.TexDir)
	if err != nil {
		return nil, err
	}

	in := &Inputs{
		Cache:             raw.Cache,
		Packages:          packages,
		Prefix:            prefix,
		TexDir:            texdir,
		TlContrib:         raw.TlContrib,
		UpdateAllPackages: raw.UpdateAllPackages,
		Version:           version,
	}
	r.validate(ctx, in)
	return in, nil
}

func (r *Resolver) version(ctx context.Context, input string) (texlive.Version, error) {
	if strings.EqualFold(strings.TrimSpace(input), texlive.LatestAlias) || strings.TrimSpace(input) == "" {
		return texlive.ResolveLatest(ctx, r.Lookup, r.Logger), nil
	}
	return texlive.ParseVersion(input)
}

func (r *Resolver) packages(raw *Raw) ([]string, error) {
	texts := []string{raw.Packages}
	if raw.PackageFile != "" {
		path, err := expand(KeyPackageFile, raw.PackageFile)
		if err != nil {
			return nil, err
		}
		data, err := r.FS.ReadFile(path)
		if err != nil {
			return nil, fault.Configuration("failed to read package file").
				WithContext(path).
				WithSuggestion("Check the `package-file` input").
				Wrap(err)
		}
		texts = append(texts, string(data))
	}
	return depends.Names(texts...), nil
}

func (r *Resolver) validate(ctx context.Context, in *Inputs) {
	if in.Cache && (r.Cache == nil || !r.Cache.Available()) {
		r.Logger.Warn(ctx, "Caching is disabled because cache service is not available")
		in.Cache = false
	}
	if in.Version.IsLatest() {
		return
	}
	if in.TlContrib {
		r.Logger.Warn(ctx, "`tlcontrib` is currently ignored for older versions")
		in.TlContrib = false
	}
	if in.UpdateAllPackages {
		r.Logger.Info(ctx, "`update-all-packages` is ignored for older versions")
		in.UpdateAllPackages = false
	}
}

func expand(key, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fault.Configuration("invalid path").WithContext(key).Wrap(err)
	}
	return expanded, nil
}
