/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the capacity planning server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env and environment configuration
  2. Configure the logger
  3. Initialize SQLite store
  4. Seed plant data when requested
  5. Configure HTTP router
  6. Start server with graceful shutdown

ENVIRONMENT:
  CAPACITY_SERVER_ADDR   Listen address (default: :8080)
  CAPACITY_DB_PATH       SQLite database path (default: capacity.db)
                         Use ":memory:" for an in-memory database
  CAPACITY_LOG_LEVEL     trace|debug|info|warn|error (default: info)
  CAPACITY_LOG_PRETTY    Console log output (default: false)
  CAPACITY_SEED_DEMO     Load the bundled demo plant (default: false)
  CAPACITY_SEED_FILE     Load a JSON plant definition on startup

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run against a file database
  CAPACITY_DB_PATH=./data/plant.db ./server

  # Run in memory with the demo plant
  CAPACITY_DB_PATH=:memory: CAPACITY_SEED_DEMO=true ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - factory/dataset.go: Plant data seeding
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/warp/capacity-engine/api"
	"github.com/warp/capacity-engine/config"
	"github.com/warp/capacity-engine/factory"
	"github.com/warp/capacity-engine/store/sqlite"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := newLogger(cfg.Log)

	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DB.Path).Msg("failed to open database")
	}
	defer store.Close()

	if err := seed(context.Background(), store, cfg.Seed); err != nil {
		log.Fatal().Err(err).Msg("failed to seed plant data")
	}

	handler := api.NewHandler(store, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}

	log.Info().Msg("server stopped")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.IsValidLevel() {
		level, _ = zerolog.ParseLevel(strings.ToLower(cfg.Level))
	}

	log := zerolog.New(os.Stderr)
	if cfg.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return log.Level(level).With().Timestamp().Logger()
}

func seed(ctx context.Context, store *sqlite.Store, cfg config.SeedConfig) error {
	switch {
	case cfg.Demo:
		return factory.LoadDemo(ctx, store)
	case cfg.File != "":
		data, err := os.ReadFile(cfg.File)
		if err != nil {
			return err
		}
		ds, err := factory.ParseDataset(data)
		if err != nil {
			return err
		}
		return factory.Load(ctx, store, ds)
	default:
		return nil
	}
}
