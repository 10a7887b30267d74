// Package normalizer turns upstream metadata documents into catalog datasets.
package normalizer

import (
	"errors"

	"microharvest/internal/config"
	"microharvest/internal/country"
	"microharvest/internal/daterange"
	"microharvest/internal/failures"
	"microharvest/internal/logger"
	"microharvest/internal/models"
)

// Processor validates and transforms documents, reporting abandoned entries.
type Processor struct {
	validator   *Validator
	transformer *Transformer
	logger      *logger.Logger
}

// NewProcessor creates a new processor instance.
func NewProcessor(cfg *config.Config, resolver country.Resolver, dates daterange.Parser, log *logger.Logger) *Processor {
	if log == nil {
		log = logger.Discard()
	}

	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(cfg, resolver, dates, log),
		logger:      log,
	}
}

// Process maps one entry. On failure it appends a report to collector and returns nil.
func (p *Processor) Process(
	entry models.EntryDescriptor,
	doc *models.MetadataDocument,
	metadataURL string,
	collector *failures.Collector,
) *models.Dataset {
	report := models.FailureReport{
		EntryID:     entry.ID,
		EntryURL:    entry.SourceURL,
		MetadataURL: metadataURL,
		Title:       entry.Title,
	}

	// 1. Validate the input data
	if err := p.validator.Validate(doc); err != nil {
		report.Reason = models.ReasonInvalidMetadata
		report.Detail = err.Error()
		p.fail(collector, report)

		return nil
	}

	// 2. Transform the data
	dataset, err := p.transformer.Transform(entry, doc)
	if err != nil {
		var mapErr *MappingError
		if errors.As(err, &mapErr) {
			report.Reason = mapErr.Reason
			report.Title = mapErr.Title
			report.Detail = mapErr.Detail
		} else {
			report.Reason = models.ReasonInvalidMetadata
			report.Detail = err.Error()
		}

		p.fail(collector, report)

		return nil
	}

	return dataset
}

func (p *Processor) fail(collector *failures.Collector, report models.FailureReport) {
	p.logger.Debug("Entry abandoned", "id", report.EntryID, "reason", string(report.Reason))

	if collector != nil {
		collector.Add(report)
	}
}
