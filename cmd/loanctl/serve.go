package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/warp/loan-engine/api"
)

// ─── serve ──────────────────────────────────────────────────────────────────

func newServeCmd(g *globals) *cobra.Command {
	var port int
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if dbPath != "" {
				cfg.Database.Path = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return api.Run(ctx, cfg, g.logger(cmd, cfg))
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides [server].port)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides [database].path)")
	return cmd
}
