package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"docgate/internal/app"
	"docgate/internal/config"
	"docgate/internal/logger"
)

func main() {
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("gateway exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	slog.SetDefault(log)

	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	// The ragflow client serves both features: document upload/chunking and
	// assistant provisioning.
	a, err := app.New(cfg, deps.DB, deps.ObjectStore, deps.Ragflow, deps.Ragflow, deps.NSQProducer)
	if err != nil {
		return err
	}

	return a.Run(ctx)
}
