package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/five82/postboard/internal/config"
	"github.com/five82/postboard/internal/httpserver"
	"github.com/five82/postboard/internal/poststore"
	"github.com/five82/postboard/internal/poststore/pgstore"
	"github.com/five82/postboard/internal/poststore/sqlitestore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "override config path (optional)")
	listen := flag.String("listen", "", "listen address (optional, defaults to server.listen)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	logger.Info("post store ready", "driver", cfg.Server.Driver)

	server := httpserver.NewServer(cfg.Server.Listen, store, logger)
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received signal, shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (poststore.Store, func(), error) {
	switch cfg.Server.Driver {
	case config.DriverMemory:
		return poststore.NewMemory(), func() {}, nil
	case config.DriverPostgres:
		store, err := pgstore.New(ctx, cfg.Server.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		db, err := sqlitestore.Open(cfg.SQLitePath())
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		store, err := sqlitestore.New(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}
