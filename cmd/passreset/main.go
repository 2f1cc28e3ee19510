package main

import (
	"errors"
	"fmt"
	"os"

	"go.lumeweb.com/passreset/core"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCmd(newCLI())
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return exitCodeSuccess
	}

	_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

	return exitCode(err)
}

func exitCode(err error) int {
	if accountErr := core.AsAccountError(err); accountErr != nil {
		return accountErr.ExitCode()
	}

	var usage *usageError
	if errors.As(err, &usage) {
		return exitCodeUsage
	}

	return exitCodeFailedStartup
}
