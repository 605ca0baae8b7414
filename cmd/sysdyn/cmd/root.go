// Package cmd implements the sysdyn command-line interface, one
// subcommand per file, grounded on
// CWBudde-go-dws/cmd/dwscript/cmd/root.go's cobra layout.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "0.1.0-dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:     "sysdyn",
	Short:   "Continuous-time system dynamics simulator",
	Version: Version,
	Long: `sysdyn runs continuous-time stock-and-flow simulations defined in a
YAML model file, using one of several numerical integrators (Euler,
Heun, RK4, Backward-Euler, adaptive RK45).`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose run diagnostics")
}

func exitWithError(msg string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
