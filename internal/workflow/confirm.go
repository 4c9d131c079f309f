// SPDX-License-Identifier: MPL-2.0

package workflow

import "github.com/charmbracelet/huh"

// confirmActivation prompts the user before activation, used by engine
// step 8 when ask-confirmation is set (§4.7). Adapted from the teacher's
// internal/tui/confirm.go Confirm helper, trimmed to the single
// yes/no-before-activation use case this engine needs — the broader
// theming/accessibility configuration system in the teacher's tui
// package serves a general-purpose TUI component library, which this
// spec's scope has no other caller for (see DESIGN.md).
func confirmActivation(title, description string) (bool, error) {
	result := true

	confirm := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&result)

	form := huh.NewForm(huh.NewGroup(confirm))
	if err := form.Run(); err != nil {
		return false, err
	}
	return result, nil
}
