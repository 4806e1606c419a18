package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iudanet/rockbridge/internal/client/cli"
	"github.com/iudanet/rockbridge/internal/client/iocli"
)

func newLoginCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Long: `Log in with email and password. The password is always prompted.

Logging in again replaces the saved token; the previous token stops working.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withConsole(cmd, console, func(ctx context.Context, c *cli.Cli) error {
				return c.Login(ctx, email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email (prompted when empty)")

	return cmd
}

func newReloginCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	return &cobra.Command{
		Use:   "relogin",
		Short: "Exchange the saved token for a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withConsole(cmd, console, func(ctx context.Context, c *cli.Cli) error {
				return c.Relogin(ctx)
			})
		},
	}
}

func newLogoutCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and delete it locally",
		Long:  "Revoke the session on the server. The local session is deleted even when the server is unreachable.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withConsole(cmd, console, func(ctx context.Context, c *cli.Cli) error {
				return c.Logout(ctx)
			})
		},
	}
}

func newWhoamiCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in administrator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withConsole(cmd, console, func(ctx context.Context, c *cli.Cli) error {
				return c.Whoami(ctx)
			})
		},
	}
}
