// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// newCompletionCommand creates the "rebuildctl completions" command.
func newCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completions [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for rebuildctl.

To enable shell completions, run one of the following commands:

` + subtitleStyle.Render("Bash:") + `
  # Add to ~/.bashrc:
  eval "$(rebuildctl completions bash)"

  # Or install system-wide:
  rebuildctl completions bash > /etc/bash_completion.d/rebuildctl

` + subtitleStyle.Render("Zsh:") + `
  # Add to ~/.zshrc:
  eval "$(rebuildctl completions zsh)"

  # Or install to fpath:
  rebuildctl completions zsh > "${fpath[1]}/_rebuildctl"

` + subtitleStyle.Render("Fish:") + `
  rebuildctl completions fish > ~/.config/fish/completions/rebuildctl.fish

` + subtitleStyle.Render("PowerShell:") + `
  rebuildctl completions powershell | Out-String | Invoke-Expression

  # Or add to $PROFILE:
  rebuildctl completions powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(c *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return c.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return c.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return c.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return c.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}
