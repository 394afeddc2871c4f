package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	pm "github.com/steelcutops/pkgsync/pkgsync/packagemanager"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured package managers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.cfg.Registry()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MANAGER\tFILE\tINSTALL\tUNINSTALL")
			for _, m := range registry.All() {
				install, err := registry.Build(m.Key, pm.Install)
				if err != nil {
					return err
				}
				uninstall, err := registry.Build(m.Key, pm.Uninstall)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Key, m.ManifestPath, install, uninstall)
			}
			return w.Flush()
		},
	}
}
