// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"rebuildctl/internal/process"
)

// newCleanCommand builds the standalone "rebuildctl clean" command: the
// same garbage-collect/store-optimise machinery the workflow engine runs
// automatically after a successful rebuild (§4.7 step 11), invokable on
// its own.
func newCleanCommand() *cobra.Command {
	var dryRun bool
	var optimise bool

	cleanCmd := &cobra.Command{
		Use:   "clean",
		Short: "Garbage-collect the nix store, optionally optimising it",
		RunE: func(c *cobra.Command, args []string) error {
			runner := process.NewRunner()
			ext := newExternalInterface(runner)
			ctx := c.Context()

			if err := ext.GarbageCollect(ctx, dryRun, verbose); err != nil {
				return fmt.Errorf("garbage-collect failed: %w", err)
			}
			if optimise {
				if err := ext.OptimiseStore(ctx, dryRun, verbose); err != nil {
					return fmt.Errorf("store-optimise failed: %w", err)
				}
			}
			return nil
		},
	}

	cleanCmd.Flags().BoolVarP(&dryRun, "dry", "n", false, "report what would be removed without removing it")
	cleanCmd.Flags().BoolVar(&optimise, "optimise", false, "also run store deduplication")
	return cleanCmd
}
