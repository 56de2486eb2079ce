package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/loan-engine/config"
	"github.com/warp/loan-engine/store/sqlite"
)

// =============================================================================
// SERVER LIFECYCLE
// =============================================================================

// Run opens the store, serves the API and shuts down gracefully when ctx
// is cancelled: stop accepting connections, wait for active requests up to
// the shutdown timeout, then close the database.
func Run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return err
		}
	}
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	handler := NewHandler(store)
	handler.Currency = cfg.Engine.DefaultCurrency()

	read, write, shutdown := cfg.Server.Timeouts()
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      NewRouter(handler, logger, cfg.Server.AllowedOrigins...),
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("database", cfg.Database.Path).
			Msg("server starting")
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
