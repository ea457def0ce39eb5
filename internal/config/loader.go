package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the file name looked up in the working and home directories.
const DefaultConfigFile = ".searchproxy"

// Load builds a Config from defaults, the configuration file and the
// process environment. explicitPath, when non-empty, must exist.
func Load(explicitPath string) (*Config, error) {
	cfg := NewConfig()

	path := FindConfigFile(explicitPath)
	switch {
	case path != "":
		if err := LoadFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ConfigFilePath = path
	case explicitPath != "":
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, explicitPath)
	}

	if err := ApplyEnv(cfg, env.ToMap(os.Environ())); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

// LoadFile decodes the YAML file at path over cfg. Keys absent from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		if os.IsNotExist(err) {
			return ErrConfigNotFound
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// ApplyEnv overrides cfg with the variables found in environ. Variables
// that are not set leave the corresponding field untouched.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	return env.ParseWithOptions(cfg, env.Options{Environment: environ})
}

// FindConfigFile returns the configuration file to use, or "" if none exists.
// An explicit path is used as is. Otherwise the lookup order is
// ./.searchproxy, ~/.searchproxy, then $XDG_CONFIG_HOME/searchproxy/config.yaml.
func FindConfigFile(explicitPath string) string {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err == nil {
			return explicitPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
