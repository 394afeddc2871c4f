package commandmanager

import (
	"context"
	"io"
	"strings"
	"time"
)

// CommandConfig describes one child process. Arguments are passed to the
// process as a vector and never go through a shell.
type CommandConfig struct {
	Command string
	Args    []string
	Env     []string

	// Sudo runs the command through SudoCommand ("sudo" when empty).
	Sudo        bool
	SudoCommand string

	// Stdin, Stdout and Stderr are optional. Output is always captured in the
	// result as well.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// CommandResult encapsulates the results from a command execution.
type CommandResult struct {
	Command   string
	STDOUT    string
	STDERR    string
	ExitCode  int
	Duration  time.Duration
	Timestamp time.Time
}

// Success reports a zero exit code.
func (r CommandResult) Success() bool {
	return r.ExitCode == 0
}

// CommandManager runs commands on the local host.
type CommandManager interface {
	Run(ctx context.Context, config CommandConfig) (CommandResult, error)
}

// String renders the config the way a user would type it.
func (c CommandConfig) String() string {
	return strings.Join(c.Argv(), " ")
}
