// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"rebuildctl/internal/process"
	"rebuildctl/internal/target"
)

// newInfoCommand builds "rebuildctl info": a supplemented subcommand
// (§6 names "info" in the CLI surface but leaves its content
// unspecified) that prints the resolved toplevel target, strategy name,
// and loaded NgConfig for a given invocation, without building or
// activating anything.
func newInfoCommand() *cobra.Command {
	var platform, hostname, specialisation string
	var noSpecialisation, asFile, asExpr bool

	infoCmd := &cobra.Command{
		Use:   "info [reference[#attrpath]]",
		Short: "Show what a rebuild would target, without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			ref := "."
			if len(args) > 0 {
				ref = args[0]
			}

			t, err := target.Parse(ref, asFile, asExpr)
			if err != nil {
				return fmt.Errorf("parsing target: %w", err)
			}

			d, err := descriptorFor(platform)
			if err != nil {
				return err
			}
			strategy := d.newStrategy(process.NewRunner(), hostname, specialisation, noSpecialisation)
			toplevel := strategy.ToplevelTarget(t)

			return renderInfo(strategy.Name(), t, toplevel)
		},
	}

	infoCmd.Flags().StringVar(&platform, "platform", "os", "strategy to resolve against: os, home, or darwin")
	infoCmd.Flags().StringVarP(&hostname, "hostname", "H", "", "override the identity used in the toplevel target")
	infoCmd.Flags().StringVarP(&specialisation, "specialisation", "s", "", "select a specialisation branch")
	infoCmd.Flags().BoolVarP(&noSpecialisation, "no-specialisation", "S", false, "disable specialisation")
	infoCmd.Flags().BoolVar(&asFile, "file", false, "treat the target reference as a filesystem path")
	infoCmd.Flags().BoolVar(&asExpr, "expr", false, "treat the target reference as a literal expression")
	return infoCmd
}

func descriptorFor(platform string) (strategyDescriptor, error) {
	switch platform {
	case "os":
		return osStrategyDescriptor, nil
	case "home":
		return homeStrategyDescriptor, nil
	case "darwin":
		return darwinStrategyDescriptor, nil
	default:
		return strategyDescriptor{}, fmt.Errorf("unknown platform %q: expected os, home, or darwin", platform)
	}
}

func renderInfo(strategyName string, in, toplevel *target.Target) error {
	var body strings.Builder
	fmt.Fprintf(&body, "## rebuildctl info\n\n")
	fmt.Fprintf(&body, "| | |\n|---|---|\n")
	fmt.Fprintf(&body, "| strategy | `%s` |\n", strategyName)
	fmt.Fprintf(&body, "| input target | `%s` |\n", target.Serialize(in))
	fmt.Fprintf(&body, "| toplevel target | `%s` |\n", target.Serialize(toplevel))

	if loadedConfig != nil {
		fmt.Fprintf(&body, "| auto-clean enabled | `%v` |\n", loadedConfig.AutoClean.Enabled)
		fmt.Fprintf(&body, "| auto-clean keep-count | `%d` |\n", loadedConfig.AutoClean.KeepCount)
		fmt.Fprintf(&body, "| auto-clean keep-days | `%d` |\n", loadedConfig.AutoClean.KeepDays)
	}

	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		fmt.Print(body.String())
		return nil
	}
	out, err := renderer.Render(body.String())
	if err != nil {
		fmt.Print(body.String())
		return nil
	}
	fmt.Print(out)
	return nil
}
