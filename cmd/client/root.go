package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/rockbridge/internal/client/api"
	"github.com/iudanet/rockbridge/internal/client/auth"
	"github.com/iudanet/rockbridge/internal/client/cli"
	"github.com/iudanet/rockbridge/internal/client/iocli"
	"github.com/iudanet/rockbridge/internal/client/storage/boltdb"
)

const (
	defaultServerURL = "http://localhost:8080"
	defaultDBPath    = "rbctl-session.db"

	envServerURL = "RBCTL_SERVER"
	envDBPath    = "RBCTL_DB"
)

// rootOptions флаги, общие для всех подкоманд
type rootOptions struct {
	serverURL string
	dbPath    string
	verbose   bool
}

// NewRootCmd создает корневую команду rbctl
func NewRootCmd(console iocli.IO) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "rbctl",
		Short: "Rockbridge admin console",
		Long: `rbctl talks to the Rockbridge API on behalf of an administrator.

The session token is kept in a local file (--db) between runs.
Defaults for --server and --db can be set with RBCTL_SERVER and RBCTL_DB.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", envOr(envServerURL, defaultServerURL), "API server URL")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", envOr(envDBPath, defaultDBPath), "path to local session file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests and warnings to stderr")

	cmd.AddCommand(newLoginCmd(opts, console))
	cmd.AddCommand(newReloginCmd(opts, console))
	cmd.AddCommand(newLogoutCmd(opts, console))
	cmd.AddCommand(newWhoamiCmd(opts, console))
	cmd.AddCommand(newForgotCmd(opts, console))
	cmd.AddCommand(newResetCmd(opts, console))
	cmd.AddCommand(newQuotesCmd(opts, console))

	return cmd
}

// withConsole открывает файл сессии, собирает консоль и выполняет fn
func (o *rootOptions) withConsole(cmd *cobra.Command, console iocli.IO, fn func(ctx context.Context, c *cli.Cli) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := boltdb.New(ctx, o.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open session file: %w", err)
	}
	logger := o.logger(cmd.ErrOrStderr())
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close session file", slog.Any("error", err))
		}
	}()

	service := auth.NewService(api.NewClient(o.serverURL), store, logger)
	return fn(ctx, cli.New(service, console))
}

// logger пишет предупреждения только с --verbose, чтобы не мешать выводу команд
func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	if !o.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
