package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newConsumeCmd(c *cli) *cobra.Command {
	var passwordFile string

	cmd := &cobra.Command{
		Use:   "consume <token>",
		Short: "Set a new password with a reset token",
		Long: `Set a new password with a reset token.

The password is read from the first line of --password-file, or of stdin when no file is given.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := c.readPassword(passwordFile)
			if err != nil {
				return &usageError{err: err}
			}

			stop, err := c.boot()
			if err != nil {
				return err
			}
			defer stop()

			res, err := c.app.PasswordReset().ConsumeReset(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", res.UID)
			if res.HadFederatedLogin {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "federated login was disconnected")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&passwordFile, "password-file", "", "file holding the new password")

	return cmd
}

func (c *cli) readPassword(file string) (string, error) {
	var r io.Reader = c.stdin

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return "", err
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must not be empty")
	}

	return password, nil
}
