package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var (
		server  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Query GET /health of a pemrank server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rc := newRemoteClient(server, "", timeout)
			h, err := rc.Health(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(h); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if h.Status != "ok" {
				return fmt.Errorf("server is %s", h.Status)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "http://localhost:8080", "pemrank server URL")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}
