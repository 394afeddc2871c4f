package main

import (
	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Install and remove packages to match the package lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sync(cmd, a.flags.Managers...)
		},
	}
}

// sync reconciles the selected managers and turns the report into the exit
// status.
func (a *app) sync(cmd *cobra.Command, keys ...string) error {
	configs, err := a.cfg.Select(keys...)
	if err != nil {
		return err
	}

	report := a.reconciler().Run(cmd.Context(), configs)
	report.PrintSummary(a.out)
	if err := report.Err(); err != nil {
		a.log.Error("Synchronization finished with errors", "error", err)
	}
	if code := report.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}
