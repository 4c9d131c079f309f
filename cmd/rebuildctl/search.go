// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/spf13/cobra"

	"rebuildctl/internal/process"
)

// newSearchCommand builds "rebuildctl search", a thin pass-through to
// "nix search" (§6 lists "search" in the CLI surface without further
// detail; it needs no workflow/pre-flight machinery, just the Process
// Runner).
func newSearchCommand() *cobra.Command {
	return &cobra.Command{
		Use:                "search [flake-ref] <query>",
		Short:              "Search available packages/options",
		DisableFlagParsing: true,
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()

			runner := process.NewRunner()
			searchArgs := append([]string{"search"}, args...)
			cmd := process.AppendVerbosity(process.New("nix", searchArgs...), verbose)
			outcome := runner.Inherit(ctx, cmd)
			if !outcome.Ok() {
				return outcome.Error()
			}
			return nil
		},
	}
}
