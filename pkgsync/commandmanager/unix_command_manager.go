package commandmanager

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/steelcutops/pkgsync/logger"
)

const defaultSudoCommand = "sudo"

type UnixCommandManager struct {
	// SudoPassword is written to "sudo -S" when set.
	SudoPassword string
	Logger       logger.Logger
}

func NewUnixCommandManager(l logger.Logger) *UnixCommandManager {
	if l == nil {
		l = logger.NewNop()
	}
	return &UnixCommandManager{Logger: l}
}

// Argv returns the full argument vector, privilege prefix included.
func (c CommandConfig) Argv() []string {
	if !c.Sudo {
		return append([]string{c.Command}, c.Args...)
	}
	sudo := c.SudoCommand
	if sudo == "" {
		sudo = defaultSudoCommand
	}
	return append([]string{sudo, c.Command}, c.Args...)
}

func (u *UnixCommandManager) argv(config CommandConfig) []string {
	argv := config.Argv()
	if u.usesSudoPassword(config) {
		argv = append([]string{argv[0], "-S"}, argv[1:]...)
	}
	return argv
}

func (u *UnixCommandManager) usesSudoPassword(config CommandConfig) bool {
	return config.Sudo && u.SudoPassword != "" &&
		(config.SudoCommand == "" || config.SudoCommand == defaultSudoCommand)
}

func (u *UnixCommandManager) RunLocal(ctx context.Context, config CommandConfig) (CommandResult, error) {
	start := time.Now()
	argv := u.argv(config)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if len(config.Env) > 0 {
		cmd.Env = append(os.Environ(), config.Env...)
	}

	if u.usesSudoPassword(config) {
		cmd.Stdin = strings.NewReader(u.SudoPassword + "\n")
	} else if config.Stdin != nil {
		cmd.Stdin = config.Stdin
	}

	var stdout, stderr strings.Builder
	cmd.Stdout = tee(&stdout, config.Stdout)
	cmd.Stderr = tee(&stderr, config.Stderr)

	u.logger().Debug("Running local command", "argv", strings.Join(argv, " "))
	err := cmd.Run()

	result := CommandResult{
		Command:   strings.Join(argv, " "),
		STDOUT:    stdout.String(),
		STDERR:    stderr.String(),
		ExitCode:  getExitCode(err),
		Duration:  time.Since(start),
		Timestamp: start,
	}

	if u.usesSudoPassword(config) {
		if sudoErr := checkSudoOutput(result.STDERR); sudoErr != nil {
			return result, sudoErr
		}
	}

	return result, err
}

// checkSudoOutput recognizes "sudo -S" rejecting the supplied password. sudo
// reports on stderr; package manager output is not inspected otherwise.
func checkSudoOutput(stderr string) error {
	if strings.Contains(stderr, "incorrect password") {
		return errors.New("sudo: incorrect password provided")
	}
	if strings.Contains(stderr, "is not in the sudoers file") {
		return errors.New("sudo: user is not in the sudoers file")
	}
	return nil
}

// Run executes the command locally. There is no remote mode.
func (u *UnixCommandManager) Run(ctx context.Context, config CommandConfig) (CommandResult, error) {
	return u.RunLocal(ctx, config)
}

func (u *UnixCommandManager) logger() logger.Logger {
	if u.Logger == nil {
		return logger.NewNop()
	}
	return u.Logger
}

func tee(buf *strings.Builder, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

// getExitCode maps a Run error to a process exit code. Errors that are not
// exit statuses (command not found, context cancelled before start) map to -1.
func getExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
