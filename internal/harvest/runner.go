// Package harvest drives one sequential harvesting run.
package harvest

import (
	"context"
	"errors"
	"fmt"

	"microharvest/internal/checkpoint"
	"microharvest/internal/failures"
	"microharvest/internal/logger"
	"microharvest/internal/models"
	"microharvest/internal/publisher"

	"github.com/google/uuid"
)

// Catalog lists entries and fetches their metadata.
type Catalog interface {
	ListEntries(ctx context.Context) ([]models.EntryDescriptor, error)
	FetchMetadata(ctx context.Context, id string) (*models.MetadataDocument, error)
	MetadataURL(id string) string
}

// Normalizer maps one entry, appending a report to collector when it cannot.
type Normalizer interface {
	Process(entry models.EntryDescriptor, doc *models.MetadataDocument, metadataURL string, collector *failures.Collector) *models.Dataset
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Failures  []models.FailureReport
	Listed    int
	Skipped   int
	Published int
}

// Options configures a Runner.
type Options struct {
	// Store persists progress; nil disables resuming.
	Store *checkpoint.Store
	// RunID identifies the run; a random UUID is used when empty.
	RunID string
}

// Runner lists the catalog and feeds each entry through normalization and publishing.
type Runner struct {
	catalog    Catalog
	normalizer Normalizer
	publisher  publisher.Publisher
	store      *checkpoint.Store
	runID      string
	logger     *logger.Logger
}

// NewRunner creates a runner.
func NewRunner(catalog Catalog, normalizer Normalizer, pub publisher.Publisher, opts Options, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &Runner{
		catalog:    catalog,
		normalizer: normalizer,
		publisher:  pub,
		store:      opts.Store,
		runID:      runID,
		logger:     log.With("run", runID),
	}
}

// RunID returns the identifier of this run.
func (r *Runner) RunID() string {
	return r.runID
}

// Run harvests every pending entry. Per-entry problems end up in Summary.Failures;
// listing, checkpoint and cancellation errors abort the run.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: r.runID}

	entries, err := r.catalog.ListEntries(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to list catalog: %w", err)
	}

	summary.Listed = len(entries)

	pending, err := r.resume(entries)
	if err != nil {
		return summary, err
	}

	summary.Skipped = len(entries) - len(pending)
	r.logger.Info("Harvest started", "listed", summary.Listed, "pending", len(pending))

	collector := failures.NewCollector()

	for i, entry := range pending {
		if err := ctx.Err(); err != nil {
			summary.Failures = collector.Reports()

			return summary, err
		}

		r.logger.Debug("Processing entry", "id", entry.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(pending)))

		published, err := r.harvest(ctx, entry, collector)
		if err != nil {
			summary.Failures = collector.Reports()

			return summary, err
		}

		if published {
			summary.Published++
		}

		if err := r.save(entry.ID); err != nil {
			summary.Failures = collector.Reports()

			return summary, err
		}
	}

	if r.store != nil {
		if err := r.store.Clear(); err != nil {
			return summary, err
		}
	}

	summary.Failures = collector.Reports()

	for _, report := range summary.Failures {
		r.logger.Error(report.String())
	}

	r.logger.Info("Harvest finished",
		"published", summary.Published,
		"failed", len(summary.Failures),
		"skipped", summary.Skipped,
	)

	return summary, nil
}

// harvest handles one entry. Only cancellation is returned as an error.
func (r *Runner) harvest(ctx context.Context, entry models.EntryDescriptor, collector *failures.Collector) (bool, error) {
	metadataURL := r.catalog.MetadataURL(entry.ID)
	report := models.FailureReport{
		EntryID:     entry.ID,
		EntryURL:    entry.SourceURL,
		MetadataURL: metadataURL,
		Title:       entry.Title,
	}

	doc, err := r.catalog.FetchMetadata(ctx, entry.ID)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		report.Reason = models.ReasonMetadataFetch
		report.Detail = err.Error()
		collector.Add(report)

		return false, nil
	}

	dataset := r.normalizer.Process(entry, doc, metadataURL, collector)
	if dataset == nil {
		return false, nil
	}

	if err := r.publisher.Publish(ctx, dataset); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}

		report.Title = dataset.Title
		report.Reason = models.ReasonPublishRejected
		report.Detail = err.Error()

		if errors.Is(err, publisher.ErrInvalidCountry) {
			report.Reason = models.ReasonInvalidCountry
			report.Detail = fmt.Sprintf("%q", dataset.Countries)
		}

		collector.Add(report)

		return false, nil
	}

	return true, nil
}

func (r *Runner) resume(entries []models.EntryDescriptor) ([]models.EntryDescriptor, error) {
	if r.store == nil {
		return entries, nil
	}

	state, err := r.store.Load()
	if err != nil {
		return nil, err
	}

	if state.LastID != "" {
		r.logger.Info("Resuming after checkpoint", "last_id", state.LastID, "previous_run", state.RunID)
	}

	return checkpoint.Resume(entries, state.LastID), nil
}

func (r *Runner) save(lastID string) error {
	if r.store == nil {
		return nil
	}

	return r.store.Save(checkpoint.State{LastID: lastID, RunID: r.runID})
}
