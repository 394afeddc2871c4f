// Package config loads the package manager settings.
package config

import (
	"fmt"
	"path/filepath"

	pm "github.com/steelcutops/pkgsync/pkgsync/packagemanager"
)

const (
	DefaultSettingsPath = "~/.pkgsync/settings.ini"
	DefaultRoot         = "~/dotfiles/requirements"
	DefaultCacheDir     = "~/.pkgsync/cache"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "PKGSYNC"
)

type Config struct {
	// Root holds the manifests.
	Root string
	// CacheDir holds the last synchronized copy of each manifest.
	CacheDir string
	Managers []pm.Config
}

var defaultManagers = []struct{ key, file string }{
	{"apt", "apt-all.txt"},
	{"npm", "npm-requirements.txt"},
	{"ruby", "ruby/ruby-packages.txt"},
	{"gem", "ruby/ruby-packages.txt"},
	{"pip", "pip.txt"},
}

// Default returns the built-in configuration, paths unexpanded.
func Default() *Config {
	cfg := &Config{Root: DefaultRoot, CacheDir: DefaultCacheDir}
	for _, d := range defaultManagers {
		m, _ := pm.Preset(d.key)
		m.ManifestPath = d.file
		cfg.Managers = append(cfg.Managers, m)
	}
	return cfg
}

func (c *Config) manager(key string) (int, bool) {
	for i, m := range c.Managers {
		if m.Key == key {
			return i, true
		}
	}
	return -1, false
}

// Registry returns the configured managers in order.
func (c *Config) Registry() (*pm.Registry, error) {
	return pm.NewRegistry(c.Managers...)
}

// Select returns the managers for keys, or all of them when keys is empty.
// Unknown keys fail with packagemanager.ErrUnknownManager before anything
// runs.
func (c *Config) Select(keys ...string) ([]pm.Config, error) {
	r, err := c.Registry()
	if err != nil {
		return nil, err
	}
	return r.Select(keys...)
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root directory is empty")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache directory is empty")
	}
	seen := make(map[string]bool, len(c.Managers))
	for _, m := range c.Managers {
		if seen[m.Key] {
			return fmt.Errorf("duplicate package manager %q", m.Key)
		}
		seen[m.Key] = true
		if m.ManifestPath == "" {
			return fmt.Errorf("[%s]: file is required", m.Key)
		}
		if !filepath.IsLocal(m.ManifestPath) {
			return fmt.Errorf("[%s]: file %q must be a relative path inside the root directory", m.Key, m.ManifestPath)
		}
	}
	return nil
}
