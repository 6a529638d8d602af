package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/pemrank/internal/domain/rank/calibration"
)

func newCalibrationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "calibration [FILE]",
		Short: "Validate a calibration and print its effective values",
		Long: "Loads FILE over the built-in calibration (or the built-in one alone when FILE is omitted), " +
			"validates it and prints the effective YAML with its fingerprint.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			cal, err := calibration.LoadFile(path)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(&cal)
			if err != nil {
				return fmt.Errorf("encode calibration: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# fingerprint: %s\n", cal.Fingerprint())
			_, err = out.Write(data)
			return err
		},
	}
}
