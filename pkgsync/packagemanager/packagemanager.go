// Package packagemanager describes how to invoke each package manager and
// builds the install and uninstall commands for it.
package packagemanager

import (
	"errors"
	"fmt"
	"strings"

	cm "github.com/steelcutops/pkgsync/pkgsync/commandmanager"
)

const (
	DefaultInstallVerb   = "install"
	DefaultUninstallVerb = "remove"
	DefaultSudoCommand   = "sudo"
)

// ErrUnknownManager means no command can be built for a manager.
var ErrUnknownManager = errors.New("unknown package manager")

type Operation int

const (
	Install Operation = iota
	Uninstall
)

func (o Operation) String() string {
	switch o {
	case Install:
		return "install"
	case Uninstall:
		return "uninstall"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// Config is the record describing one package manager.
type Config struct {
	// Key names the manager ("apt", "pip", ...). Unique in a Registry.
	Key string
	// ManifestPath is relative to the manifest root. Two keys may share it.
	ManifestPath string
	// Executable defaults to Key.
	Executable string
	// InstallVerb and UninstallVerb may hold several words ("install -y").
	InstallVerb   string
	UninstallVerb string
	// NoSudo disables elevation. SudoCommand defaults to "sudo".
	NoSudo      bool
	SudoCommand string
}

func (c Config) executable() string {
	if c.Executable != "" {
		return c.Executable
	}
	return c.Key
}

func (c Config) verb(op Operation) (string, error) {
	switch op {
	case Install:
		if c.InstallVerb != "" {
			return c.InstallVerb, nil
		}
		return DefaultInstallVerb, nil
	case Uninstall:
		if c.UninstallVerb != "" {
			return c.UninstallVerb, nil
		}
		return DefaultUninstallVerb, nil
	}
	return "", fmt.Errorf("unsupported operation %v", op)
}

// Command is a package manager invocation ready to have package names
// appended as trailing arguments.
type Command struct {
	Executable  string
	Verb        []string
	Sudo        bool
	SudoCommand string
}

// Build maps a manager config to its command for op.
func Build(cfg Config, op Operation) (Command, error) {
	exe := cfg.executable()
	if exe == "" {
		return Command{}, ErrUnknownManager
	}
	verb, err := cfg.verb(op)
	if err != nil {
		return Command{}, err
	}

	cmd := Command{
		Executable: exe,
		Verb:       strings.Fields(verb),
		Sudo:       !cfg.NoSudo,
	}
	if cmd.Sudo {
		cmd.SudoCommand = cfg.SudoCommand
		if cmd.SudoCommand == "" {
			cmd.SudoCommand = DefaultSudoCommand
		}
	}
	return cmd, nil
}

// With appends packages to the command.
func (c Command) With(packages ...string) cm.CommandConfig {
	args := make([]string, 0, len(c.Verb)+len(packages))
	args = append(args, c.Verb...)
	args = append(args, packages...)
	return cm.CommandConfig{
		Command:     c.Executable,
		Args:        args,
		Sudo:        c.Sudo,
		SudoCommand: c.SudoCommand,
	}
}

func (c Command) String() string {
	return c.With().String()
}
