package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/cobra"
)

func newDiffCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Show what changed in the package lists since the last sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configs, err := a.cfg.Select(a.flags.Managers...)
			if err != nil {
				return err
			}

			seen := make(map[string]bool)
			changed := false
			for _, m := range configs {
				if seen[m.ManifestPath] {
					continue
				}
				seen[m.ManifestPath] = true

				cachePath := a.states.CachePath(m.ManifestPath)
				manifestPath := a.states.ManifestPath(m.ManifestPath)
				cached, err := readOptional(cachePath)
				if err != nil {
					return err
				}
				current, err := readOptional(manifestPath)
				if err != nil {
					return err
				}

				diff := strings.TrimSpace(udiff.Unified(cachePath, manifestPath, cached, current))
				if diff == "" {
					continue
				}
				changed = true
				fmt.Fprintln(a.out, diff)
			}
			if !changed {
				fmt.Fprintln(a.out, "Package lists match the last sync.")
			}
			return nil
		},
	}
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
