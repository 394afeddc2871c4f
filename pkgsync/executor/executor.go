// Package executor applies a diff through a package manager after the
// operator confirms it.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/steelcutops/pkgsync/logger"
	cm "github.com/steelcutops/pkgsync/pkgsync/commandmanager"
	"github.com/steelcutops/pkgsync/pkgsync/manifest"
	pm "github.com/steelcutops/pkgsync/pkgsync/packagemanager"
)

var (
	ErrExecutionFailed = errors.New("package manager execution failed")
	ErrDeclined        = errors.New("changes declined")
)

const confirmQuestion = "Install and delete packages?"

type Status int

const (
	NothingToDo Status = iota
	Declined
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case NothingToDo:
		return "nothing to do"
	case Declined:
		return "declined"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the combined status of one manager's execution.
type Outcome struct {
	Status   Status
	ExitCode int
	Err      error
	Results  []cm.CommandResult
}

// Success reports whether the cache may be committed.
func (o Outcome) Success() bool {
	return o.Status == NothingToDo || o.Status == Succeeded
}

type Executor struct {
	Commands cm.CommandManager
	Prompter Prompter
	Logger   logger.Logger

	// Attached to the package manager processes. Out also receives progress.
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func New(commands cm.CommandManager, prompter Prompter, l logger.Logger) *Executor {
	if l == nil {
		l = logger.NewNop()
	}
	return &Executor{
		Commands: commands,
		Prompter: prompter,
		Logger:   l,
		Out:      io.Discard,
	}
}

// Execute asks once for the whole diff, then uninstalls and installs. Both
// batches are attempted; either failure fails the outcome.
func (e *Executor) Execute(ctx context.Context, cfg pm.Config, changes manifest.Changes) Outcome {
	if changes.Empty() {
		return Outcome{Status: NothingToDo}
	}
	log := e.Logger.With("manager", cfg.Key)

	for _, set := range []manifest.PackageSet{changes.ToDelete, changes.ToInstall} {
		if err := set.Validate(); err != nil {
			return Outcome{Status: Failed, ExitCode: 1, Err: err}
		}
	}

	uninstall, err := pm.Build(cfg, pm.Uninstall)
	if err != nil {
		return Outcome{Status: Failed, ExitCode: 1, Err: err}
	}
	install, err := pm.Build(cfg, pm.Install)
	if err != nil {
		return Outcome{Status: Failed, ExitCode: 1, Err: err}
	}

	ok, err := e.Prompter.Confirm(confirmQuestion)
	if err != nil {
		return Outcome{Status: Failed, ExitCode: 1, Err: fmt.Errorf("read confirmation: %w", err)}
	}
	if !ok {
		log.Info("Changes declined, cache left stale")
		return Outcome{Status: Declined, ExitCode: 1, Err: ErrDeclined}
	}

	outcome := Outcome{Status: Succeeded}
	var errs *multierror.Error
	var removeCode, addCode int
	if !changes.ToDelete.IsEmpty() {
		fmt.Fprintln(e.out(), "Removing...")
		result, err := e.run(ctx, uninstall, changes.ToDelete)
		outcome.Results = append(outcome.Results, result)
		if err != nil {
			log.Error("Uninstall failed", "command", result.Command, "exit_code", result.ExitCode, "error", err)
			errs = multierror.Append(errs, err)
			removeCode = exitCode(result)
		}
	}
	if !changes.ToInstall.IsEmpty() {
		fmt.Fprintln(e.out(), "Installing...")
		result, err := e.run(ctx, install, changes.ToInstall)
		outcome.Results = append(outcome.Results, result)
		if err != nil {
			log.Error("Install failed", "command", result.Command, "exit_code", result.ExitCode, "error", err)
			errs = multierror.Append(errs, err)
			addCode = exitCode(result)
		}
	}

	if errs != nil {
		outcome.Status = Failed
		outcome.Err = errs.ErrorOrNil()
		outcome.ExitCode = addCode
		if outcome.ExitCode == 0 {
			outcome.ExitCode = removeCode
		}
	}
	return outcome
}

func (e *Executor) run(ctx context.Context, cmd pm.Command, packages manifest.PackageSet) (cm.CommandResult, error) {
	config := cmd.With(packages.Sorted()...)
	config.Stdin = e.In
	config.Stdout = e.Out
	config.Stderr = e.Err
	fmt.Fprintln(e.out(), config.String())

	result, err := e.Commands.Run(ctx, config)
	if result.Command == "" {
		result.Command = config.String()
	}
	if err == nil && !result.Success() {
		err = fmt.Errorf("%w: %s exited with status %d", ErrExecutionFailed, result.Command, result.ExitCode)
	} else if err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrExecutionFailed, result.Command, err)
	}
	return result, err
}

func (e *Executor) out() io.Writer {
	if e.Out == nil {
		return io.Discard
	}
	return e.Out
}

// exitCode returns the code a failed invocation contributes. Processes that
// never produced a status count as 1.
func exitCode(result cm.CommandResult) int {
	if result.ExitCode > 0 {
		return result.ExitCode
	}
	return 1
}
