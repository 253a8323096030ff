package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nahidhasan98/orgsync/internal/app"
	"github.com/nahidhasan98/orgsync/internal/config"
	"github.com/nahidhasan98/orgsync/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Seeding failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewWithFile(cfg.Log.Level, cfg.Log.Format, logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	log.Infof("Seeding organisations from %s", cfg.Repository.Path)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Pipeline.Seed(ctx, a.Content)
	if err != nil {
		return err
	}

	// per-file failures are already logged; they do not fail the run
	log.With("attempted", report.Attempted()).
		With("failed", report.Failed()).
		Info("Seeding completed.")
	return nil
}
