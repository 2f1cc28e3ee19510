package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSweepCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Clear reset tokens that are past their expiry",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop, err := c.boot()
			if err != nil {
				return err
			}
			defer stop()

			cleared, err := c.app.PasswordReset().SweepExpired(cmd.Context())
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared %d expired tokens\n", cleared)

			return nil
		},
	}
}
