package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/iudanet/rockbridge/internal/client/cli"
	"github.com/iudanet/rockbridge/internal/client/iocli"
)

func newQuotesCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quotes",
		Short: "Work with quote requests",
	}

	cmd.AddCommand(newQuotesListCmd(opts, console))

	return cmd
}

func newQuotesListCmd(opts *rootOptions, console iocli.IO) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List quote requests, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withConsole(cmd, console, func(ctx context.Context, c *cli.Cli) error {
				return c.QuotesList(ctx, asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}
