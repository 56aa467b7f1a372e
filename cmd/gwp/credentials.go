package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/swellcycle/surfboard-gwp/internal/auth"
)

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password on stdin and print its bcrypt hash",
		Long: `Reads a password from the first line of stdin and prints the bcrypt hash to
set as auth.password_hash or GWP_AUTH_PASSWORD_HASH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := bufio.NewScanner(cmd.InOrStdin())
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				return errors.New("no password given on stdin")
			}

			hash, err := auth.HashPassword(strings.TrimRight(scanner.Text(), "\r"))
			if err != nil {
				return err
			}
			fprintln(cmd, hash)
			return nil
		},
	}
}

func newTokenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print an api token for the configured user",
		Long: `Prints a token to send as "Authorization: Bearer <token>" to the json api.
The token expires after auth.token_ttl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authenticator := auth.New(opts.cfg.Auth)
			token, expiresAt, err := authenticator.IssueToken(opts.cfg.Auth.Username)
			if err != nil {
				return err
			}
			fprintln(cmd, token)
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "expires at", expiresAt.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}
