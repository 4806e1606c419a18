package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iudanet/rockbridge/internal/server"
)

// versioned хранилище с версией схемы (SQLite)
type versioned interface {
	MigrationVersion(ctx context.Context) (int64, error)
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply storage migrations",
		Long: `Open the configured storage and apply pending schema migrations.
The bolt driver has no schema; its buckets are created on open.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx := runContext(cmd)
			cmd.Printf("Opening %s storage at %s...\n", cfg.Storage.Driver, cfg.Storage.Path)
			store, err := server.OpenStorage(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			if v, ok := store.(versioned); ok {
				version, err := v.MigrationVersion(ctx)
				if err != nil {
					return fmt.Errorf("read schema version: %w", err)
				}
				cmd.Printf("Schema version: %d\n", version)
			}

			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}
