package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Supported subcommands:
// - detect:       Classify a runtime from its user agent and globals
// - silent-login: Mount the silent-login drivers against a running server
// - whoami:       Resolve the current user for a bearer token

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "bazaarctl",
		Short:        "Inspect bazaar sign-in flows from the command line",
		SilenceUsage: true,
		// main prints the error once.
		SilenceErrors: true,
	}

	root.AddCommand(
		newDetectCmd(),
		newSilentLoginCmd(),
		newWhoamiCmd(),
	)

	return root
}
