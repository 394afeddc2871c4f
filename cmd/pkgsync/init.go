package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steelcutops/pkgsync/pkgsync/config"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default settings file and create the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := config.WriteDefault(a.flags.Settings, force)
			if err != nil {
				return err
			}
			if written {
				fmt.Fprintf(a.out, "Wrote settings to %s.\n", a.flags.Settings)
			} else {
				fmt.Fprintf(a.out, "warning: the file %s already exists. Do nothing.\n", a.flags.Settings)
			}

			if err := a.loadConfig(); err != nil {
				return err
			}
			if err := os.MkdirAll(a.cfg.CacheDir, 0o755); err != nil {
				return fmt.Errorf("create cache directory: %w", err)
			}
			a.log.Info("Cache directory ready", "path", a.cfg.CacheDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	return cmd
}
