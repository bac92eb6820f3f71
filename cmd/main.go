package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "manguechain/internal/adapter/http"
	"manguechain/internal/adapter/ledger"
	"manguechain/internal/adapter/postgres"
	"manguechain/internal/adapter/usecase"
	"manguechain/internal/config"
	"manguechain/internal/core/port"
	"manguechain/internal/db"
)

// main is the entry point of the coordinator service. It loads
// configuration, optionally runs database migrations, wires the ledger
// gateway and snapshot store into the coordinator, warms the cache and
// starts the HTTP server. On receiving a termination signal it
// gracefully shuts down the server.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		// Initialise structured logger based on configuration.
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Choose the ledger gateway implementation.
	var gateway port.LedgerGateway
	switch cfg.Ledger.Mode {
	case "memory":
		mem := ledger.NewMemory(ledger.WithFeeBps(cfg.Ledger.FeeBps))
		if cfg.Ledger.Seed {
			if err = ledger.Seed(ctx, mem); err != nil {
				logger.Error("seed error", slog.Any("error", err))
				os.Exit(1)
			}
		}
		gateway = mem
		logger.Info("using in-process ledger", slog.Int64("fee_bps", cfg.Ledger.FeeBps))
	default:
		gateway = ledger.NewRPC(cfg.Ledger.URL, cfg.Ledger.PollInterval)
		logger.Info("using rpc ledger gateway", slog.String("url", cfg.Ledger.URL))
	}

	opts := []usecase.Option{usecase.WithConfirmTimeout(cfg.Ledger.ConfirmTimeout)}

	if cfg.Psql.Enabled {
		// Snapshot persistence: migrate the schema if requested, then
		// open the pool for the snapshot store.
		if cfg.Psql.RunMigrations {
			if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
				logger.Error("migration error", slog.Any("error", err))
			} else {
				logger.Info("migrations applied successfully")
			}
		}

		pool, err := db.NewPostgresPool(ctx, cfg.Psql)
		if err != nil {
			logger.Error("database connection error", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		opts = append(opts, usecase.WithSnapshotStore(postgres.NewSnapshotStore(pool)))
	}

	coord := usecase.NewCoordinator(gateway, logger, opts...)
	if err = coord.Warm(ctx); err != nil {
		logger.Error("initial reconciliation failed", slog.Any("error", err))
		os.Exit(1)
	}
	if cfg.Ledger.SyncInterval > 0 {
		go coord.Run(ctx, cfg.Ledger.SyncInterval)
	}

	handler := httpadapter.NewHandler(coord, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	value := <-quit
	exitCode = 128 + int(value.(syscall.Signal))

	ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}
}
