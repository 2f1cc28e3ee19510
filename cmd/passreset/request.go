package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRequestCmd(c *cli) *cobra.Command {
	var printURL bool

	cmd := &cobra.Command{
		Use:   "request <email>",
		Short: "Send a password reset link to an account",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop, err := c.boot()
			if err != nil {
				return err
			}
			defer stop()

			res, err := c.app.PasswordReset().RequestReset(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if res.Federated {
				_, _ = fmt.Fprintln(out, "reset delegated to the federated provider")
			} else {
				_, _ = fmt.Fprintln(out, "reset link sent")
			}

			if printURL {
				_, _ = fmt.Fprintln(out, res.URL)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&printURL, "print-url", false, "print the reset link")

	return cmd
}
