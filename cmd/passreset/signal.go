package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// Exit codes. Account errors map to their own codes, see core.ErrorCodeToExitCode.
const (
	exitCodeSuccess = iota
	exitCodeFailedStartup
	exitCodeUsage
	exitCodeForceQuit = 130
)

// trapSignals returns a context that is cancelled on SIGTERM or SIGINT. SIGQUIT exits immediately.
func trapSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigchan)

		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigchan:
				switch sig {
				case syscall.SIGQUIT:
					logger.Info("quitting process immediately", zap.String("signal", "SIGQUIT"))
					os.Exit(exitCodeForceQuit)

				case syscall.SIGTERM, syscall.SIGINT:
					logger.Info("shutting down", zap.String("signal", sig.String()))
					cancel()
					return

				case syscall.SIGHUP:
					// ignore; this signal is sometimes sent outside of the user's control
					logger.Info("not implemented", zap.String("signal", "SIGHUP"))
				}
			}
		}
	}()

	return ctx, cancel
}
