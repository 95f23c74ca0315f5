// interminai is a headless terminal proxy: it runs a daemon that owns a
// single child process on a pseudo-terminal and serves a small JSON
// protocol over a Unix socket so an automation client can drive any
// interactive text-mode program.
//
// This file wires the cobra command tree; each subcommand's behavior
// lives in its own file (start.go, client_commands.go).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n\nPANIC: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := &cobra.Command{
		Use:     "interminai",
		Short:   "Headless terminal proxy for automation clients",
		Version: Version,
	}

	rootCmd.AddCommand(
		newStartCmd(),
		newInputCmd(),
		newOutputCmd(),
		newStatusCmd(),
		newWaitCmd(),
		newKillCmd(),
		newResizeCmd(),
		newStopCmd(),
		newDebugCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
