// Command agentsync is the CLI front end for the Sync Engine: the desktop
// UI shell is out of scope for this repository, so this is
// the only surface it ships.
package main

import (
	"fmt"
	"os"

	"github.com/barysiuk/agentsync/cmd/agentsync/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
