// Package app wires the sync components together for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/nahidhasan98/orgsync/internal/config"
	"github.com/nahidhasan98/orgsync/internal/content"
	"github.com/nahidhasan98/orgsync/internal/enrichment"
	"github.com/nahidhasan98/orgsync/internal/logger"
	"github.com/nahidhasan98/orgsync/internal/store"
	"github.com/nahidhasan98/orgsync/internal/syncer"
)

// App holds the long-lived components shared by the server and the seeder
type App struct {
	Store    *store.Store
	Content  *content.Client
	Pipeline *syncer.Pipeline
}

// New opens the store and builds the pipeline on top of it
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	resolver, err := enrichment.New(cfg.Registry, log.With("component", "enrichment"))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create enrichment resolver: %w", err)
	}

	contentClient := content.New(cfg.Repository)

	return &App{
		Store:    st,
		Content:  contentClient,
		Pipeline: syncer.New(contentClient, resolver, st, log.With("component", "syncer")),
	}, nil
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}
