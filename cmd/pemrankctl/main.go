// Command pemrankctl ranks request files in process or against a running
// pemrank server, and inspects calibrations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pemrank/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pemrankctl",
		Short:         "Rank prior programming-error encounters",
		Long:          "pemrankctl ranks candidate guidance for a programming error message, either in process or through a pemrank server.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRankCmd(), newHealthCmd(), newCalibrationCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
