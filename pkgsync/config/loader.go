package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/ini.v1"

	pm "github.com/steelcutops/pkgsync/pkgsync/packagemanager"
)

const (
	keyRoot  = "root"
	keyCache = "cache"

	keyFile      = "file"
	keyPacman    = "pacman"
	keyInstall   = "install"
	keyUninstall = "uninstall"
	keySudo      = "sudo"
	keyEnabled   = "enabled"
)

// Overrides come from the command line and win over everything else.
type Overrides struct {
	Root     string
	CacheDir string
}

type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load builds the configuration from the defaults, the settings file at
// path, the environment and overrides, in that order. A missing settings
// file leaves the defaults in place.
func Load(path string, overrides Overrides) (*Config, error) {
	if path == "" {
		path = DefaultSettingsPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to expand path", Err: err}
	}

	cfg := Default()

	if _, err := os.Stat(expanded); err == nil {
		file, err := ini.Load(expanded)
		if err != nil {
			return nil, &LoadError{Path: expanded, Message: "failed to read settings file", Err: err}
		}
		if err := apply(cfg, file); err != nil {
			return nil, &LoadError{Path: expanded, Message: "failed to parse settings file", Err: err}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Path: expanded, Message: "failed to read settings file", Err: err}
	}

	applyEnvOverrides(cfg)
	if overrides.Root != "" {
		cfg.Root = overrides.Root
	}
	if overrides.CacheDir != "" {
		cfg.CacheDir = overrides.CacheDir
	}

	if cfg.Root, err = homedir.Expand(cfg.Root); err != nil {
		return nil, &LoadError{Path: expanded, Message: "failed to expand root", Err: err}
	}
	if cfg.CacheDir, err = homedir.Expand(cfg.CacheDir); err != nil {
		return nil, &LoadError{Path: expanded, Message: "failed to expand cache", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Path: expanded, Message: "configuration validation failed", Err: err}
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "_ROOT"); v != "" {
		cfg.Root = v
	}
	if v := os.Getenv(EnvPrefix + "_CACHE"); v != "" {
		cfg.CacheDir = v
	}
}

func apply(cfg *Config, file *ini.File) error {
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			if err := applyGlobal(cfg, section); err != nil {
				return err
			}
			continue
		}
		if err := applyManager(cfg, section); err != nil {
			return err
		}
	}
	return nil
}

func applyGlobal(cfg *Config, section *ini.Section) error {
	for _, key := range section.Keys() {
		switch key.Name() {
		case keyRoot:
			cfg.Root = key.String()
		case keyCache:
			cfg.CacheDir = key.String()
		default:
			return fmt.Errorf("unknown setting %q", key.Name())
		}
	}
	return nil
}

func applyManager(cfg *Config, section *ini.Section) error {
	name := section.Name()
	i, exists := cfg.manager(name)
	var m pm.Config
	if exists {
		m = cfg.Managers[i]
	} else {
		m, _ = pm.Preset(name)
	}

	enabled := true
	for _, key := range section.Keys() {
		value := key.String()
		switch key.Name() {
		case keyFile:
			m.ManifestPath = value
		case keyPacman:
			m.Executable = value
		case keyInstall:
			m.InstallVerb = value
		case keyUninstall:
			m.UninstallVerb = value
		case keySudo:
			noSudo, prefix := parseSudo(value)
			m.NoSudo = noSudo
			m.SudoCommand = prefix
		case keyEnabled:
			b, err := key.Bool()
			if err != nil {
				return fmt.Errorf("[%s]: enabled: %w", name, err)
			}
			enabled = b
		default:
			return fmt.Errorf("[%s]: unknown field %q", name, key.Name())
		}
	}

	switch {
	case !enabled && exists:
		cfg.Managers = append(cfg.Managers[:i], cfg.Managers[i+1:]...)
	case !enabled:
	case exists:
		cfg.Managers[i] = m
	default:
		cfg.Managers = append(cfg.Managers, m)
	}
	return nil
}

// parseSudo reads a boolean or the name of a prefix program.
func parseSudo(value string) (noSudo bool, prefix string) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "true", "yes", "on", "1":
		return false, ""
	case "false", "no", "off", "0":
		return true, ""
	default:
		return false, strings.TrimSpace(value)
	}
}
