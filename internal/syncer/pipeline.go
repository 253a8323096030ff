// Package syncer turns changed repository files into stored organisation
// records, one file at a time.
package syncer

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/nahidhasan98/orgsync/internal/cleanse"
	"github.com/nahidhasan98/orgsync/internal/diff"
	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/nahidhasan98/orgsync/internal/logger"
	"github.com/nahidhasan98/orgsync/internal/models"
	"github.com/nahidhasan98/orgsync/internal/store"
	"github.com/nahidhasan98/orgsync/internal/validation"
)

// Fetcher downloads a file from the content repository
type Fetcher interface {
	Fetch(ctx context.Context, filename string) ([]byte, error)
}

// Lister lists the synchronizable files of the content repository
type Lister interface {
	ListJSONFiles(ctx context.Context) ([]string, error)
}

// NameResolver resolves a canonical organisation name, falling back on failure
type NameResolver interface {
	ResolveName(ctx context.Context, jurisdiction, number, fallback string) string
}

// Store is the record store; FindByFilename reports store.ErrNotFound for unknown files
type Store interface {
	FindByFilename(ctx context.Context, filename string) (*models.OrganisationRecord, error)
	Create(ctx context.Context, rec *models.OrganisationRecord) error
	Update(ctx context.Context, rec *models.OrganisationRecord) error
	Destroy(ctx context.Context, rec *models.OrganisationRecord) error
	Truncate(ctx context.Context) error
}

// Notifier is told about every finished batch
type Notifier interface {
	NotifyBatch(ctx context.Context, report *BatchReport) error
}

// Pipeline synchronizes files into the store.
// Files are handled strictly one after another and a failing file never stops the batch.
type Pipeline struct {
	fetcher  Fetcher
	resolver NameResolver
	store    Store
	notifier Notifier
	log      *logger.Logger
}

// New creates a pipeline
func New(fetcher Fetcher, resolver NameResolver, store Store, log *logger.Logger) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		resolver: resolver,
		store:    store,
		log:      log,
	}
}

// SetNotifier registers a notifier for finished batches
func (p *Pipeline) SetNotifier(n Notifier) {
	p.notifier = n
}

// Apply processes the modified files, then the removed ones, and reports
// completion once every file has been attempted
func (p *Pipeline) Apply(ctx context.Context, source string, changes *diff.ChangeSet) *BatchReport {
	report := &BatchReport{ID: uuid.NewString(), Source: source, StartedAt: time.Now()}

	p.log.With("batch_id", report.ID).Infof("Syncing %d modified and %d removed files from %s",
		len(changes.Modified), len(changes.Removed), source)

	report.Modified = p.ProcessModified(ctx, changes.Modified)
	report.Removed = p.ProcessRemoved(ctx, changes.Removed)

	p.finish(ctx, report)
	return report
}

// ProcessModified fetches, validates, cleanses, enriches and upserts each file
func (p *Pipeline) ProcessModified(ctx context.Context, files []string) Report {
	var report Report

	for _, file := range files {
		log := p.log.With("file", file)
		log.Info("Processing modified file")

		if err := p.syncFile(ctx, file); err != nil {
			log.With("error_code", errors.CodeOf(err)).Error("Failed to sync file", err)
			report.fail(file, err)
			continue
		}

		log.Info("File synced")
		report.succeed(file)
	}

	return report
}

// ProcessRemoved destroys the record of each file.
// A file without a record is logged and counted as a failure.
func (p *Pipeline) ProcessRemoved(ctx context.Context, files []string) Report {
	var report Report

	for _, file := range files {
		log := p.log.With("file", file)
		log.Info("Processing removed file")

		if err := p.removeFile(ctx, file); err != nil {
			log.With("error_code", errors.CodeOf(err)).Error("Failed to remove entry", err)
			report.fail(file, err)
			continue
		}

		log.Info("Entry removed")
		report.succeed(file)
	}

	return report
}

// Upsert updates the record stored for rec.Filename, or creates it
func (p *Pipeline) Upsert(ctx context.Context, rec *models.OrganisationRecord) error {
	existing, err := p.store.FindByFilename(ctx, rec.Filename)
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		if err := p.store.Create(ctx, rec); err != nil {
			return errors.StoreFailure(err, "create")
		}
		return nil
	case err != nil:
		return errors.StoreFailure(err, "lookup")
	}

	rec.ID = existing.ID
	rec.CreatedAt = existing.CreatedAt
	if err := p.store.Update(ctx, rec); err != nil {
		return errors.StoreFailure(err, "update")
	}
	return nil
}

// Resync treats every listed file as modified. Stored records are never
// removed by a resync.
func (p *Pipeline) Resync(ctx context.Context, lister Lister) (*BatchReport, error) {
	files, err := lister.ListJSONFiles(ctx)
	if err != nil {
		return nil, err
	}

	return p.Apply(ctx, "resync", diff.FromListing(files)), nil
}

// Seed empties the store and loads every listed file from scratch
func (p *Pipeline) Seed(ctx context.Context, lister Lister) (*BatchReport, error) {
	p.log.Info("Removing existing entries")
	if err := p.store.Truncate(ctx); err != nil {
		return nil, errors.StoreFailure(err, "truncate")
	}

	p.log.Info("Getting list of files")
	files, err := lister.ListJSONFiles(ctx)
	if err != nil {
		return nil, err
	}

	return p.Apply(ctx, "seed", diff.FromListing(files)), nil
}

// syncFile runs the modify stages for one file, stopping at the first failure
func (p *Pipeline) syncFile(ctx context.Context, file string) error {
	raw, err := p.fetcher.Fetch(ctx, file)
	if err != nil {
		return err
	}

	payload, appErr := validation.ParsePayload(raw)
	if appErr != nil {
		return appErr
	}

	cleaned := cleanse.Cleanse(payload.Data)
	info := payload.Info
	name := p.resolver.ResolveName(ctx, info.RegistrationCountry, info.Number, info.Name)

	return p.Upsert(ctx, &models.OrganisationRecord{
		Name:                name,
		RegistrationNumber:  info.Number,
		RegistrationCountry: info.RegistrationCountry,
		Payload:             cleaned,
		Filename:            file,
	})
}

func (p *Pipeline) removeFile(ctx context.Context, file string) error {
	rec, err := p.store.FindByFilename(ctx, file)
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.Wrapf(err, errors.ErrCodeNotFound, "Unable to find entry for %s", file)
	}
	if err != nil {
		return errors.StoreFailure(err, "lookup")
	}

	if err := p.store.Destroy(ctx, rec); err != nil {
		return errors.Wrapf(err, errors.ErrCodeStoreFailure, "Unable to destroy entry for %s", file)
	}
	return nil
}

func (p *Pipeline) finish(ctx context.Context, report *BatchReport) {
	report.FinishedAt = time.Now()
	report.Duration = report.FinishedAt.Sub(report.StartedAt)

	p.log.With("batch_id", report.ID).
		With("source", report.Source).
		With("attempted", report.Attempted()).
		With("failed", report.Failed()).
		With("duration", report.Duration.String()).
		Info("Sync completed")

	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyBatch(ctx, report); err != nil {
		p.log.Error("Failed to send batch notification", err)
	}
}
