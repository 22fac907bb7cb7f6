package cli

import (
	"github.com/spf13/cobra"

	"chokepoint-radar/internal/httpapi"
)

// ServeCmd returns the API-only server command.
func ServeCmd(flags *rootFlags) *cobra.Command {
	var listen string
	var staticDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and dashboard without running detection",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("api")
			cfg := loadConfig(flags, logger)

			store, cleanup, err := openStore(cmd.Context(), cfg, flags)
			if err != nil {
				return err
			}
			defer cleanup()

			api := httpapi.NewServer(httpapi.Options{
				Store:     store,
				Logger:    logger,
				StaticDir: staticDir,
			})
			return api.Run(listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":8090", "Listen address")
	cmd.Flags().StringVar(&staticDir, "static-dir", "", "Directory of dashboard static files")

	return cmd
}
