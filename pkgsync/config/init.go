package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/moby/sys/atomicwriter"
)

// DefaultSettings is written by "pkgsync init". Loading it yields Default().
const DefaultSettings = `# pkgsync settings.
#
# root holds the manifests, cache the last synchronized copy of each one.
root  = ~/dotfiles/requirements
cache = ~/.pkgsync/cache

# One section per package manager:
#   file       manifest path relative to root
#   pacman     executable, defaults to the section name
#   install    install verb, may hold several words ("install -y")
#   uninstall  uninstall verb
#   sudo       true, false, or a prefix program such as doas
#   enabled    false drops a built-in manager

[apt]
file = apt-all.txt

[npm]
file = npm-requirements.txt

[ruby]
file = ruby/ruby-packages.txt

[gem]
file = ruby/ruby-packages.txt

[pip]
file = pip.txt
`

// WriteDefault writes DefaultSettings to path. An existing file is kept
// unless force is set; the returned bool reports whether it was written.
func WriteDefault(path string, force bool) (bool, error) {
	if path == "" {
		path = DefaultSettingsPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(expanded); err == nil && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return false, fmt.Errorf("create settings directory: %w", err)
	}
	if err := atomicwriter.WriteFile(expanded, []byte(DefaultSettings), 0o644); err != nil {
		return false, fmt.Errorf("write settings: %w", err)
	}
	return true, nil
}
