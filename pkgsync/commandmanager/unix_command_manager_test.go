package commandmanager

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLocal(t *testing.T) {
	manager := NewUnixCommandManager(nil)

	result, err := manager.RunLocal(context.Background(), CommandConfig{
		Command: "echo",
		Args:    []string{"hello", "a;b"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hello a;b\n", result.STDOUT)
	assert.Equal(t, 0, result.ExitCode)
	assert.True(t, result.Success())
	assert.Equal(t, "echo hello a;b", result.Command)
}

func TestRunLocalArgumentsAreNotInterpreted(t *testing.T) {
	manager := NewUnixCommandManager(nil)

	result, err := manager.Run(context.Background(), CommandConfig{
		Command: "printf",
		Args:    []string{"%s|", "$(id)", "`id`", "*"},
	})

	require.NoError(t, err)
	assert.Equal(t, "$(id)|`id`|*|", result.STDOUT)
}

func TestRunLocalExitCode(t *testing.T) {
	manager := NewUnixCommandManager(nil)

	result, err := manager.Run(context.Background(), CommandConfig{
		Command: "sh",
		Args:    []string{"-c", "echo oops >&2; exit 3"},
	})

	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.Success())
	assert.Equal(t, "oops\n", result.STDERR)
}

func TestRunLocalCommandNotFound(t *testing.T) {
	manager := NewUnixCommandManager(nil)

	result, err := manager.Run(context.Background(), CommandConfig{Command: "pkgsync-does-not-exist"})

	assert.Error(t, err)
	assert.Equal(t, -1, result.ExitCode)
}

func TestRunLocalStreamsAndEnv(t *testing.T) {
	manager := NewUnixCommandManager(nil)
	var out bytes.Buffer

	result, err := manager.Run(context.Background(), CommandConfig{
		Command: "sh",
		Args:    []string{"-c", `echo "$PKGSYNC_TEST"`},
		Env:     []string{"PKGSYNC_TEST=streamed"},
		Stdout:  &out,
	})

	require.NoError(t, err)
	assert.Equal(t, "streamed\n", out.String())
	assert.Equal(t, "streamed\n", result.STDOUT)
}

func TestArgv(t *testing.T) {
	plain := CommandConfig{Command: "brew", Args: []string{"install", "jq"}}
	assert.Equal(t, []string{"brew", "install", "jq"}, plain.Argv())

	sudo := CommandConfig{Command: "apt-get", Args: []string{"install", "-y", "git"}, Sudo: true}
	assert.Equal(t, []string{"sudo", "apt-get", "install", "-y", "git"}, sudo.Argv())
	assert.Equal(t, "sudo apt-get install -y git", sudo.String())

	doas := CommandConfig{Command: "apk", Args: []string{"add", "git"}, Sudo: true, SudoCommand: "doas"}
	assert.Equal(t, []string{"doas", "apk", "add", "git"}, doas.Argv())
}

func TestArgvWithSudoPassword(t *testing.T) {
	manager := &UnixCommandManager{SudoPassword: "secret"}

	sudo := CommandConfig{Command: "apt-get", Args: []string{"remove", "vim"}, Sudo: true}
	assert.Equal(t, []string{"sudo", "-S", "apt-get", "remove", "vim"}, manager.argv(sudo))

	doas := CommandConfig{Command: "apk", Args: []string{"del", "vim"}, Sudo: true, SudoCommand: "doas"}
	assert.Equal(t, []string{"doas", "apk", "del", "vim"}, manager.argv(doas))

	plain := CommandConfig{Command: "npm", Args: []string{"ls"}}
	assert.Equal(t, []string{"npm", "ls"}, manager.argv(plain))
}

func TestRunLocalIgnoresSudoMessagesWithoutPassword(t *testing.T) {
	for _, manager := range []*UnixCommandManager{
		NewUnixCommandManager(nil),
		{SudoPassword: "secret"},
	} {
		result, err := manager.Run(context.Background(), CommandConfig{
			Command: "sh",
			Args:    []string{"-c", "echo 'incorrect password'; echo 'bob is not in the sudoers file' >&2"},
		})

		require.NoError(t, err)
		assert.Equal(t, 0, result.ExitCode)
	}
}

func TestCheckSudoOutput(t *testing.T) {
	assert.NoError(t, checkSudoOutput("Setting up htop (3.3.0-4) ...\n"))
	assert.EqualError(t, checkSudoOutput("sudo: 1 incorrect password attempt\n"), "sudo: incorrect password provided")
	assert.EqualError(t, checkSudoOutput("bob is not in the sudoers file.\n"), "sudo: user is not in the sudoers file")
}
