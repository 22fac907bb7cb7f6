package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"chokepoint-radar/internal/detector"
	"chokepoint-radar/internal/engine"
	"chokepoint-radar/internal/httpapi"
	"chokepoint-radar/internal/report"
)

// RunCmd returns the continuous detection command.
func RunCmd(flags *rootFlags) *cobra.Command {
	var listen string
	var staticDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the continuous detection loop",
		Long: `Run detection cycles on the configured interval until interrupted.
An interrupt finishes the in-flight cycle's bookkeeping and prints a
final summary before exiting. With --listen, the REST API and websocket
dashboard feed are served alongside the loop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("engine")
			cfg := loadConfig(flags, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, cleanup, err := openStore(ctx, cfg, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			det := detector.New(detector.Options{
				Config:  cfg,
				Sources: detector.BuildSources(cfg, newLogger("detector")),
				Logger:  newLogger("detector"),
			})

			opts := engine.Options{
				Config:   cfg,
				Detector: det,
				Store:    store,
				Printer:  report.NewPrinter(),
				Logger:   logger,
			}

			if listen != "" {
				api := httpapi.NewServer(httpapi.Options{
					Store:     store,
					Logger:    newLogger("api"),
					StaticDir: staticDir,
				})
				opts.OnCycle = func(result engine.CycleResult) {
					api.Hub().BroadcastCycle(result.Detected, result.Saved, result.Signals)
				}
				go func() {
					if err := api.Run(listen); err != nil {
						logger.Printf("API server error: %v", err)
					}
				}()
			}

			if err := engine.New(opts).Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Serve the REST API on this address (e.g. :8090)")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "Directory of dashboard static files")

	return cmd
}
