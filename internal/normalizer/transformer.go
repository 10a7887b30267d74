package normalizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"microharvest/internal/config"
	"microharvest/internal/country"
	"microharvest/internal/daterange"
	"microharvest/internal/logger"
	"microharvest/internal/models"
	"microharvest/pkg/utils"
)

// Mapping errors.
var (
	ErrCountryResolution = errors.New("no nation could be resolved to a country code")
	ErrNoCountries       = errors.New("metadata lists no nations")
	ErrInvalidDate       = errors.New("invalid collection dates")
)

// Fixed record and resource values.
const (
	MethodologyOther = "Other"

	GatedDescription = `Clicking "Download" leads outside HDX where you can request access to the data in csv, xlsx & dta formats`
	GatedFormat      = "web app"

	CodebookName        = "Codebook"
	CodebookDescription = "Contains information about the dataset's metadata and data"
	CodebookFormat      = "pdf"
)

// MappingError describes why a document could not become a dataset.
type MappingError struct {
	Err    error
	Reason models.FailureReason
	Title  string
	Detail string
}

func (e *MappingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("%s: %v (%s)", e.Reason, e.Err, e.Detail)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}

// Transformer maps metadata documents to datasets.
type Transformer struct {
	cfg      *config.Config
	resolver country.Resolver
	dates    daterange.Parser
	logger   *logger.Logger
}

// NewTransformer creates a new transformer instance.
func NewTransformer(cfg *config.Config, resolver country.Resolver, dates daterange.Parser, log *logger.Logger) *Transformer {
	if log == nil {
		log = logger.Discard()
	}

	return &Transformer{
		cfg:      cfg,
		resolver: resolver,
		dates:    dates,
		logger:   log,
	}
}

// Transform converts one validated document into a dataset with its two resources.
// Failures are returned as *MappingError.
func (t *Transformer) Transform(entry models.EntryDescriptor, doc *models.MetadataDocument) (*models.Dataset, error) {
	study := doc.StudyDesc
	title := utils.NormalizeWhitespace(study.TitleStatement.Title)

	codes, err := t.countries(study.StudyInfo.Nation, title)
	if err != nil {
		return nil, err
	}

	if len(codes) == 1 {
		if name, ok := t.resolver.NameFromISO3(codes[0]); ok {
			title = name + " - " + title
		}
	}

	dates, err := t.dateRange(study.StudyInfo.CollDates)
	if err != nil {
		return nil, &MappingError{Err: err, Reason: models.ReasonInvalidDate, Title: title}
	}

	record := models.Record{
		Name:            Slugify(study.TitleStatement.IDNo),
		Title:           title,
		Notes:           study.StudyInfo.Abstract,
		Source:          authoringNames(study.AuthoringEntity),
		Methodology:     MethodologyOther,
		MethodologyText: methodology(study),
		MaintainerID:    t.cfg.Dataset.MaintainerID,
		OwnerOrgID:      t.cfg.Dataset.OwnerOrgID,
		UpdateFrequency: t.cfg.Dataset.UpdateFrequency,
		Subnational:     t.cfg.Dataset.IsSubnational(),
		Countries:       codes,
		Tags: append(
			DecomposeTags(study.StudyInfo.Topics, TopicText),
			DecomposeTags(study.StudyInfo.Keywords, KeywordText)...,
		),
		DateRange: dates,
	}

	return &models.Dataset{
		Record:    record,
		Resources: t.resources(entry, title),
	}, nil
}

func (t *Transformer) countries(nations []models.Nation, title string) ([]string, error) {
	if len(nations) == 0 {
		return nil, &MappingError{Err: ErrNoCountries, Reason: models.ReasonNoCountries, Title: title}
	}

	seen := make(map[string]bool, len(nations))
	names := make([]string, 0, len(nations))

	for _, nation := range nations {
		names = append(names, nation.Name)

		code := strings.ToUpper(strings.TrimSpace(nation.Abbreviation))
		if code == "" {
			resolved, ok := t.resolver.ISO3FromName(nation.Name)
			if !ok {
				t.logger.Debug("Unresolved nation", "name", nation.Name)

				continue
			}

			code = resolved
		}

		seen[code] = true
	}

	if len(seen) == 0 {
		return nil, &MappingError{
			Err:    ErrCountryResolution,
			Reason: models.ReasonCountryResolution,
			Title:  title,
			Detail: fmt.Sprintf("%q", names),
		}
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}

	slices.Sort(codes)

	return codes, nil
}

func (t *Transformer) dateRange(periods []models.CollDate) (models.DateRange, error) {
	if len(periods) == 0 {
		return models.DateRange{}, fmt.Errorf("%w: no collection dates", ErrInvalidDate)
	}

	start, _, err := t.dates.Parse(periods[0].Start)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("%w: start: %w", ErrInvalidDate, err)
	}

	_, end, err := t.dates.Parse(periods[0].End)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("%w: end: %w", ErrInvalidDate, err)
	}

	return models.DateRange{Start: start, End: end}, nil
}

func (t *Transformer) resources(entry models.EntryDescriptor, title string) []models.Resource {
	return []models.Resource{
		{
			Name:         title,
			Description:  GatedDescription,
			URL:          t.cfg.Upstream.AuthURLFor(entry.ID),
			Format:       GatedFormat,
			IsAPI:        true,
			LastModified: entry.ChangedAt,
		},
		{
			Name:         CodebookName,
			Description:  CodebookDescription,
			URL:          t.cfg.Upstream.DocumentationURLFor(entry.ID),
			Format:       CodebookFormat,
			LastModified: entry.ChangedAt,
		},
	}
}

func authoringNames(entities []models.AuthoringEntity) string {
	names := make([]string, 0, len(entities))

	for _, e := range entities {
		if name := strings.TrimSpace(e.Name); name != "" {
			names = append(names, name)
		}
	}

	return strings.Join(names, ", ")
}

// methodology renders the labelled fragments that are present, in a fixed order.
func methodology(study models.StudyDesc) string {
	fragments := []struct {
		value *string
		label string
	}{
		{label: "Kind of Data", value: study.StudyInfo.DataKind},
		{label: "Unit of Analysis", value: utils.FirstNonNil(study.StudyInfo.Universe, study.StudyInfo.AnalysisUnit)},
		{label: "Sampling Procedure", value: study.Method.DataCollection.SamplingProcedure},
		{label: "Data Collection Mode", value: study.Method.DataCollection.CollMode},
	}

	var b strings.Builder

	for _, f := range fragments {
		if f.value == nil {
			continue
		}

		fmt.Fprintf(&b, "%s: %s  \n", f.label, *f.value)
	}

	return b.String()
}
