// Package cli wires the radar commands: the continuous detection loop,
// the API server, and one-shot console views.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"chokepoint-radar/internal/config"
	"chokepoint-radar/internal/storage"
	"chokepoint-radar/internal/storage/memory"
	"chokepoint-radar/internal/storage/migrations"
	"chokepoint-radar/internal/storage/postgres"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	useMemory  bool
}

// RootCmd builds the radar command tree.
func RootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "radar",
		Short: "Chokepoint Radar - infrastructure chokepoint intelligence",
		Long: `Chokepoint Radar polls public content sources, flags posts that
resemble infrastructure chokepoint opportunities, scores them and keeps
the qualifying signals for review.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "config.json", "Path to configuration file")
	cmd.PersistentFlags().BoolVar(&flags.useMemory, "use-memory", false, "Use in-memory storage instead of PostgreSQL")

	cmd.AddCommand(RunCmd(flags))
	cmd.AddCommand(ServeCmd(flags))
	cmd.AddCommand(TopCmd(flags))
	cmd.AddCommand(SectorsCmd(flags))
	cmd.AddCommand(WatchlistCmd(flags))

	return cmd
}

// loadConfig loads the configuration, falling back to an empty Config on
// error. With no sources enabled and no thresholds, detection degrades to
// a no-op loop rather than crashing.
func loadConfig(flags *rootFlags, logger *log.Logger) config.Config {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		logger.Printf("Failed to load config: %v (continuing with empty configuration)", err)
		return config.Config{}
	}
	return cfg
}

// openStore creates the signal store per flags and config, running
// migrations for the Postgres backend. The returned cleanup releases the
// connection pool.
func openStore(ctx context.Context, cfg config.Config, flags *rootFlags) (storage.SignalStore, func(), error) {
	if flags.useMemory {
		return memory.NewSignalStore(), func() {}, nil
	}

	dsn := cfg.Database.DSN
	if dsn == "" {
		dsn = os.Getenv("POSTGRES_DSN")
	}
	if dsn == "" {
		return nil, nil, fmt.Errorf("no database DSN configured (set database.dsn or POSTGRES_DSN, or pass --use-memory)")
	}

	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	return postgres.NewSignalStore(pool), pool.Close, nil
}

// newLogger returns a stdout logger with the given component prefix.
func newLogger(prefix string) *log.Logger {
	return log.New(os.Stdout, "["+prefix+"] ", log.LstdFlags)
}
