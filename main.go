// SPDX-License-Identifier: MPL-2.0

package main

import (
	"rebuildctl/cmd/rebuildctl"
)

func main() {
	cmd.Execute()
}
