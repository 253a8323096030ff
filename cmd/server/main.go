package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/nahidhasan98/orgsync/internal/app"
	"github.com/nahidhasan98/orgsync/internal/config"
	"github.com/nahidhasan98/orgsync/internal/handlers"
	"github.com/nahidhasan98/orgsync/internal/logger"
	"github.com/nahidhasan98/orgsync/internal/notify"
	"github.com/nahidhasan98/orgsync/internal/server"
	"github.com/nahidhasan98/orgsync/internal/syncer"
)

// Global variables for configuration and logging
var (
	cfg     *config.Config
	log     *logger.Logger
	errChan = make(chan error, 2)
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	services, waClient, err := initialize(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Initialization error: %v\n", err)
		os.Exit(1)
	}
	defer services.Close()

	worker := syncer.NewWorker(services.Pipeline, services.Content, cfg.Sync.QueueSize, log.With("component", "worker"))

	startWhatsAppClient(ctx, &wg, waClient)
	startSyncWorker(ctx, &wg, worker)
	startWebServer(ctx, &wg, services, worker, waClient)

	waitForShutdown(cancel, &wg)
}

// initialize loads configuration and the logger, then builds the services.
// The WhatsApp client is nil when notifications are disabled.
func initialize(ctx context.Context) (*app.App, *notify.WhatsAppClient, error) {
	var err error

	cfg, err = config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log = logger.NewWithFile(cfg.Log.Level, cfg.Log.Format, logger.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	log.Infof("Starting orgsync for %s (%s)", cfg.Repository.Path, cfg.Repository.Ref())

	services, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}

	if !cfg.WhatsApp.Enabled {
		return services, nil, nil
	}

	waClient, err := notify.NewWhatsAppClient(ctx, cfg.WhatsApp, os.Stdout, log)
	if err != nil {
		services.Close()
		return nil, nil, fmt.Errorf("failed to create WhatsApp client: %w", err)
	}
	services.Pipeline.SetNotifier(notify.NewNotifier(waClient, cfg.WhatsApp.Recipient, cfg.Repository.Path, log))

	return services, waClient, nil
}

func startWhatsAppClient(ctx context.Context, wg *sync.WaitGroup, waClient *notify.WhatsAppClient) {
	if waClient == nil {
		log.Info("WhatsApp notifications disabled")
		return
	}

	wg.Go(func() {
		defer func() {
			waClient.Disconnect()
			log.Info("WhatsApp client shutdown complete")
		}()

		log.Info("Starting WhatsApp client...")
		if err := waClient.Connect(ctx); err != nil {
			// notifications are optional, keep syncing without them
			log.Error("Failed to connect to WhatsApp", err)
		}

		<-ctx.Done()
		log.Info("WhatsApp client shutting down...")
	})
}

func startSyncWorker(ctx context.Context, wg *sync.WaitGroup, worker *syncer.Worker) {
	wg.Go(func() {
		log.Info("Sync worker started")
		worker.Run(ctx)
		log.Info("Sync worker stopped")
	})
}

func startWebServer(ctx context.Context, wg *sync.WaitGroup, services *app.App, worker *syncer.Worker, waClient *notify.WhatsAppClient) {
	wg.Go(func() {
		var status handlers.StatusReporter
		if waClient != nil {
			status = waClient
		}

		httpHandler := handlers.New(worker, services.Store, status, handlers.Options{
			WebhookSecret: cfg.GitHub.WebhookSecret,
			Ref:           cfg.Repository.Ref(),
		}, log)

		httpServer := server.New(cfg, httpHandler, log)
		httpServer.Start(errChan)

		<-ctx.Done()
		log.Info("HTTP server shutting down...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during HTTP server shutdown", err)
		}
	})
}

func waitForShutdown(cancel context.CancelFunc, wg *sync.WaitGroup) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Error("Service failed", err)
	case <-sigChan:
		log.Info("Received shutdown signal")
	}

	cancel()
	wg.Wait()

	log.Info("Application stopped")
}
