package cli

import (
	"github.com/spf13/cobra"

	"chokepoint-radar/internal/report"
)

// TopCmd returns the one-shot top-signals view.
func TopCmd(flags *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Show the top signals by score",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("radar")
			cfg := loadConfig(flags, logger)

			store, cleanup, err := openStore(cmd.Context(), cfg, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			signals, err := store.GetActive(cmd.Context(), limit)
			if err != nil {
				return err
			}
			report.NewPrinter().TopSignals(signals)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 15, "Number of signals to show")
	return cmd
}

// SectorsCmd returns the one-shot sector breakdown view.
func SectorsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sectors",
		Short: "Show the sector breakdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("radar")
			cfg := loadConfig(flags, logger)

			store, cleanup, err := openStore(cmd.Context(), cfg, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := store.SectorStats(cmd.Context())
			if err != nil {
				return err
			}
			report.NewPrinter().SectorBreakdown(stats)
			return nil
		},
	}
}

// WatchlistCmd returns the one-shot watchlist view.
func WatchlistCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watchlist",
		Short: "Show watchlisted signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("radar")
			cfg := loadConfig(flags, logger)

			store, cleanup, err := openStore(cmd.Context(), cfg, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			entries, err := store.GetWatchlist(cmd.Context())
			if err != nil {
				return err
			}
			report.NewPrinter().Watchlist(entries)
			return nil
		},
	}
}
