package reconciler

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"

	"github.com/steelcutops/pkgsync/pkgsync/executor"
	"github.com/steelcutops/pkgsync/pkgsync/manifest"
)

// Result is the outcome of one manager's reconciliation.
type Result struct {
	Key          string
	ManifestPath string
	State        State
	Changes      manifest.Changes
	Outcome      executor.Outcome
	Bootstrapped bool
	ExitCode     int
	Err          error
}

func (r Result) stale(code int, err error) Result {
	if code == 0 {
		code = 1
	}
	r.State = Stale
	r.ExitCode = code
	r.Err = err
	return r
}

type Report struct {
	Results []Result
}

// ExitCode is the bitwise OR of every manager's exit code.
func (r Report) ExitCode() int {
	code := 0
	for _, res := range r.Results {
		code |= res.ExitCode
	}
	return code
}

// Err aggregates the errors of managers that failed. Declined managers and
// skipped manifests are not errors.
func (r Report) Err() error {
	var errs *multierror.Error
	for _, res := range r.Results {
		if res.ExitCode == 0 || res.Err == nil || errors.Is(res.Err, executor.ErrDeclined) {
			continue
		}
		errs = multierror.Append(errs, fmt.Errorf("%s: %w", res.Key, res.Err))
	}
	return errs.ErrorOrNil()
}

var (
	headerColor  = color.New(color.FgBlue)
	installColor = color.New(color.FgGreen)
	deleteColor  = color.New(color.FgRed)
)

func printChanges(w io.Writer, file string, changes manifest.Changes) {
	fmt.Fprintln(w, "In "+headerColor.Sprintf("%s:", file))

	if changes.Empty() {
		fmt.Fprintln(w, installColor.Sprint("\t✔ nothing to do"))
		return
	}

	if n := changes.ToInstall.Len(); n > 0 {
		fmt.Fprintln(w, installColor.Sprintf("\tFound %d packages to install: %s",
			n, strings.Join(changes.ToInstall.Sorted(), ", ")))
	} else {
		fmt.Fprintln(w, "\tNothing to install")
	}

	if n := changes.ToDelete.Len(); n > 0 {
		fmt.Fprintln(w, deleteColor.Sprintf("\tFound %d packages to delete: %s",
			n, strings.Join(changes.ToDelete.Sorted(), ", ")))
	} else {
		fmt.Fprintln(w, "\tNothing to delete")
	}
}

// PrintSummary writes one line per manager that did not converge.
func (r Report) PrintSummary(w io.Writer) {
	for _, res := range r.Results {
		switch {
		case res.State == Skipped:
			continue
		case errors.Is(res.Err, executor.ErrDeclined):
			fmt.Fprintf(w, "%s: declined, will be proposed again next run\n", res.Key)
		case res.ExitCode != 0:
			fmt.Fprintln(w, deleteColor.Sprintf("%s: failed (exit status %d): %v", res.Key, res.ExitCode, res.Err))
		}
	}
}
