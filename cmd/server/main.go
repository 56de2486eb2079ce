/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the loan engine HTTP server.
  Handles configuration, logging and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load config.toml over the defaults; flags override it
  3. Configure zerolog
  4. Serve until SIGINT/SIGTERM (api.Run)

COMMAND-LINE FLAGS:
  -config  TOML config file (default: config.toml, optional)
  -port    HTTP server port (overrides [server].port)
  -db      SQLite database path (overrides [database].path)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete ([server].shutdown_timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/loans.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - api/run.go: Server lifecycle
  - config/config.go: Settings and defaults
  - cmd/loanctl: Command-line client for the same engine
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/warp/loan-engine/api"
	"github.com/warp/loan-engine/config"
)

func main() {
	// Flags
	configPath := flag.String("config", "config.toml", "TOML config file")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	logger := cfg.Log.Logger(os.Stdout)
	log.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := api.Run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
