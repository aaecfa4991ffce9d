package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devlife/internal/catalog"
	"devlife/internal/config"
	"devlife/internal/handlers"
	"devlife/internal/storage"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:], nil)
	if err != nil {
		return err
	}

	// Structured JSON logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	slog.Info("catalog loaded", "skills", len(cat.Skills), "jobs", len(cat.Jobs), "override", cfg.CatalogPath)

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := handlers.NewHub()
	go hub.Run(ctx)

	app, err := handlers.NewApp(handlers.Config{
		Catalog:     cat,
		Store:       storage.New(cfg.DataDir),
		Hub:         hub,
		Seed:        cfg.Seed,
		IdleTimeout: cfg.IdleTimeout,
	})
	if err != nil {
		return fmt.Errorf("initialize app: %w", err)
	}
	app.StartEviction(ctx)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handlers.LogRequest(app.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr, "data_dir", cfg.DataDir)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	app.CommitAll()

	slog.Info("server stopped")
	return nil
}
