package main

import (
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background token sweep until signalled",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			stop, err := c.boot()
			if err != nil {
				return err
			}
			defer stop()

			ctx, cancel := trapSignals(cmd.Context(), c.app.Context().Logger().Logger)
			defer cancel()

			return c.app.Serve(ctx)
		},
	}
}
