package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iudanet/rockbridge/internal/client/cli"
	"github.com/iudanet/rockbridge/internal/client/iocli"
)

func newForgotCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Email a password reset code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withConsole(cmd, console, func(ctx context.Context, c *cli.Cli) error {
				return c.Forgot(ctx, email)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newResetCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	var email, otp string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password using the emailed code",
		Long: `Set a new password using the 6-digit code from the reset email.
The new password is prompted twice. All sessions are revoked on success.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withConsole(cmd, console, func(ctx context.Context, c *cli.Cli) error {
				return c.Reset(ctx, email, otp)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "admin email")
	cmd.Flags().StringVar(&otp, "otp", "", "code from the reset email (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
