package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/steelcutops/pkgsync/pkgsync/commandmanager"
	"github.com/steelcutops/pkgsync/pkgsync/manifest"
)

const defaultEditor = "vi"

func newAddCmd(a *app) *cobra.Command {
	var message string
	var edit bool

	cmd := &cobra.Command{
		Use:   "add -p <manager> [package...]",
		Short: "Add packages to a package list, then sync it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !edit {
				return fmt.Errorf("no package given")
			}
			m, err := a.manager()
			if err != nil {
				return err
			}
			path := filepath.Join(a.cfg.Root, m.ManifestPath)

			if edit {
				if err := a.runEditor(cmd, path); err != nil {
					return err
				}
			}
			if len(args) > 0 {
				fmt.Fprintf(a.out, "Let's use %s to install packages %s!\n", m.Key, strings.Join(args, " "))
				added, present, err := manifest.Add(path, args, message)
				if err != nil {
					return err
				}
				for _, p := range present {
					fmt.Fprintf(a.out, "'%s' is already present\n", p)
				}
				if len(added) > 0 {
					fmt.Fprintf(a.out, "Added '%s' to %s package list...\n", strings.Join(added, " "), m.ManifestPath)
				}
			}
			return a.sync(cmd, m.Key)
		},
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "Comment written next to the added packages")
	cmd.Flags().BoolVarP(&edit, "edit", "e", false, "Open the package list in $EDITOR first")
	return cmd
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm -p <manager> [package...]",
		Short: "Remove packages from a package list, then sync it",
		Long:  "Remove packages from a package list, then sync it. Without packages the list is opened in $EDITOR.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			path := filepath.Join(a.cfg.Root, m.ManifestPath)

			if len(args) == 0 {
				if err := a.runEditor(cmd, path); err != nil {
					return err
				}
				return a.sync(cmd, m.Key)
			}

			removed, err := manifest.Remove(path, args)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Fprintf(a.out, "None of %s found in %s package list.\n", strings.Join(args, ", "), m.ManifestPath)
			} else {
				fmt.Fprintf(a.out, "Removed %s from %s package list.\n", strings.Join(removed, ", "), m.ManifestPath)
			}
			return a.sync(cmd, m.Key)
		},
	}
}

func newEditCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "edit -p <manager>",
		Short: "Open a package list in $EDITOR, then sync it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			if err := a.runEditor(cmd, filepath.Join(a.cfg.Root, m.ManifestPath)); err != nil {
				return err
			}
			return a.sync(cmd, m.Key)
		},
	}
}

// runEditor opens path in $EDITOR with the terminal attached. EDITOR may
// carry arguments ("code -w").
func (a *app) runEditor(cmd *cobra.Command, path string) error {
	fields := strings.Fields(os.Getenv("EDITOR"))
	if len(fields) == 0 {
		fields = []string{defaultEditor}
	}

	config := commandmanager.CommandConfig{
		Command: fields[0],
		Args:    append(fields[1:], path),
		Stdin:   a.in,
		Stdout:  a.out,
		Stderr:  a.errOut,
	}
	result, err := a.commands.Run(cmd.Context(), config)
	if err != nil {
		return fmt.Errorf("editor %s: %w", config.String(), err)
	}
	if !result.Success() {
		return fmt.Errorf("editor %s exited with status %d", config.String(), result.ExitCode)
	}
	return nil
}
