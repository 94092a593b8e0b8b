package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPingCmd(wire func(cmd *cobra.Command) (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to the configured model backend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wire(cmd)
			if err != nil {
				return err
			}
			if err := app.mesh.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("model backend unreachable: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
