package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/iudanet/rockbridge/internal/client/iocli"
	"github.com/iudanet/rockbridge/internal/server/config"
)

// rootOptions флаги, общие для всех подкоманд
type rootOptions struct {
	configFile string
	envFile    string
}

// NewRootCmd создает корневую команду rockbridge-server
func NewRootCmd(console iocli.IO) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "rockbridge-server",
		Short: "Rockbridge API server",
		Long: `Rockbridge API server: admin sessions, password reset by emailed code,
services catalog, media library and quote requests.

Settings come from defaults, --config YAML file, .env file,
ROCKBRIDGE_* environment variables and flags, in that order.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded when present")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newUserCmd(opts, console))

	return cmd
}

// loadConfig собирает конфигурацию для подкоманды cmd
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(config.LoadOptions{
		Flags:      cmd.Flags(),
		ConfigFile: o.configFile,
		EnvFile:    o.envFile,
	})
}

// setupLogging создает логгер по настройкам log.level и log.format
func setupLogging(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	switch cfg.Format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
