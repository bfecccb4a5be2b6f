// Package cliconfig reads and writes the skill CLI's per-user
// configuration file.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultRegistry is used when the config file has no registry entry.
const DefaultRegistry = "https://registry.skreg.dev"

// Config is the on-disk CLI configuration.
type Config struct {
	Registry  string `yaml:"registry"`
	Namespace string `yaml:"namespace,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
}

// Path returns the config file location, honoring SKILL_CONFIG.
func Path() (string, error) {
	if p := os.Getenv("SKILL_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".skill", "config.yaml"), nil
}

// Load reads the config file. A missing file yields defaults, not an
// error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	cfg := &Config{Registry: DefaultRegistry}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.Registry == "" {
		cfg.Registry = DefaultRegistry
	}
	return cfg, nil
}

// Save writes the config file, creating its directory. The API key is
// a credential, so the file is owner-readable only.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
