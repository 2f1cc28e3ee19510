package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.lumeweb.com/passreset"
	"go.lumeweb.com/passreset/config"
	"go.lumeweb.com/passreset/core"
	"go.uber.org/zap"
)

type usageError struct {
	err error
}

func (e *usageError) Error() string {
	return e.err.Error()
}

func (e *usageError) Unwrap() error {
	return e.err
}

type cli struct {
	configFile string
	stdin      io.Reader
	app        passreset.App
}

func newCLI() *cli {
	return &cli{stdin: os.Stdin}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "passreset",
		Short:         "Issue and consume account password reset tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().StringVarP(&c.configFile, "config", "c", "", "config file (default: search the standard locations)")

	root.AddCommand(
		newRequestCmd(c),
		newConsumeCmd(c),
		newSweepCmd(c),
		newServeCmd(c),
	)

	return root
}

// boot loads the config and starts every service. The returned func stops them again.
func (c *cli) boot() (func(), error) {
	cm, err := config.NewManager(c.configFile)
	if err != nil {
		return nil, err
	}

	logger := core.NewLogger(cm)

	if err := cm.Init(); err != nil {
		logger.Error("failed to load config", zap.String("file", cm.ConfigFile()), zap.Error(err))
		return nil, err
	}

	logger.SetLevelFromConfig()

	app, err := passreset.NewApp(cm, logger)
	if err != nil {
		return nil, err
	}

	if err := app.Init(); err != nil {
		return nil, err
	}

	if err := app.Start(); err != nil {
		_ = app.Stop()
		return nil, err
	}

	c.app = app

	return func() {
		if err := app.Stop(); err != nil {
			logger.Error("failed to stop", zap.Error(err))
		}
		_ = logger.Sync()
	}, nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
