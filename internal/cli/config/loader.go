package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/tokgate/internal/infra/confloader"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

// Load loads configuration from path layered over the defaults and the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadWithOverrides(path, nil)
}

// LoadWithOverrides is Load with flag values applied last. Keys are
// dotted paths such as "api.base_url".
func LoadWithOverrides(path string, overrides map[string]any) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	path = ExpandHome(path)

	opts := []confloader.Option{
		confloader.WithDefaults(defaults()),
		confloader.WithListKeys("api.forward_headers"),
		confloader.WithOverrides(overrides),
	}
	if _, err := os.Stat(path); err == nil {
		opts = append(opts, confloader.WithConfigFile(path))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}
	cfg.Session.File = ExpandHome(cfg.Session.File)
	cfg.Session.BadgerDir = ExpandHome(cfg.Session.BadgerDir)
	cfg.API.CAFile = ExpandHome(cfg.API.CAFile)
	cfg.API.ClientCert = ExpandHome(cfg.API.ClientCert)
	cfg.API.ClientKey = ExpandHome(cfg.API.ClientKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML with owner-only permissions.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	path = ExpandHome(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
