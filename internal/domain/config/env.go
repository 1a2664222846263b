package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/felixgeelhaar/setup-texlive/internal/domain/texlive"
)

// Environment variables read by install-tl.
const (
	EnvNoCheck     = "TEXLIVE_INSTALL_ENV_NOCHECK"
	EnvNoWelcome   = "TEXLIVE_INSTALL_NO_WELCOME"
	EnvPrefix      = "TEXLIVE_INSTALL_PREFIX"
	EnvTexmfHome   = "TEXLIVE_INSTALL_TEXMFHOME"
	EnvTexmfConfig = "TEXLIVE_INSTALL_TEXMFCONFIG"
	EnvTexmfVar    = "TEXLIVE_INSTALL_TEXMFVAR"
)

// Environment reads and writes process environment variables.
type Environment interface {
	Lookup(key string) (string, bool)
	Set(key, value string) error
}

// OSEnvironment is the environment of the running process.
type OSEnvironment struct{}

// Lookup implements Environment.
func (OSEnvironment) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Set implements Environment.
func (OSEnvironment) Set(key, value string) error {
	return os.Setenv(key, value)
}

// TempDir returns the runner temporary directory, or the system one outside
// GitHub Actions.
func TempDir(env Environment) string {
	if dir, ok := env.Lookup("RUNNER_TEMP"); ok && dir != "" {
		return dir
	}
	return os.TempDir()
}

// EnvDefaults returns the install-tl environment used for version. The user
// trees live below the home directory so they survive between releases.
func EnvDefaults(env Environment, version texlive.Version) (map[string]string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}
	userDir := filepath.Join(home, ".local", "texlive", version.String())
	return map[string]string{
		EnvNoCheck:     "1",
		EnvNoWelcome:   "1",
		EnvPrefix:      filepath.Join(TempDir(env), "setup-texlive"),
		EnvTexmfHome:   filepath.Join(home, "texmf"),
		EnvTexmfConfig: filepath.Join(userDir, "texmf-config"),
		EnvTexmfVar:    filepath.Join(userDir, "texmf-var"),
	}, nil
}

// ApplyEnvDefaults sets every default that is not already present in env.
func ApplyEnvDefaults(env Environment, version texlive.Version) error {
	defaults, err := EnvDefaults(env, version)
	if err != nil {
		return err
	}
	for _, key := range []string{EnvNoCheck, EnvNoWelcome, EnvPrefix, EnvTexmfHome, EnvTexmfConfig, EnvTexmfVar} {
		if _, ok := env.Lookup(key); ok {
			continue
		}
		if err := env.Set(key, defaults[key]); err != nil {
			return err
		}
	}
	return nil
}
