package publisher

import (
	"fmt"
	"strings"
	"time"

	"microharvest/internal/config"
	"microharvest/internal/models"
)

// Catalog field formats.
const (
	datasetDateLayout  = "2006-01-02T15:04:05"
	resourceTypeAPI    = "api"
	subnationalTrue    = "1"
	subnationalFalse   = "0"
	datasetDatePattern = "[%s TO %s]"
)

// Package is the catalog representation of a dataset.
type Package struct {
	ID                  string            `json:"id,omitempty"`
	Name                string            `json:"name"`
	Title               string            `json:"title"`
	Notes               string            `json:"notes"`
	DatasetSource       string            `json:"dataset_source"`
	Methodology         string            `json:"methodology"`
	MethodologyOther    string            `json:"methodology_other,omitempty"`
	Maintainer          string            `json:"maintainer"`
	OwnerOrg            string            `json:"owner_org"`
	DataUpdateFrequency string            `json:"data_update_frequency"`
	Subnational         string            `json:"subnational"`
	DatasetDate         string            `json:"dataset_date"`
	Batch               string            `json:"batch,omitempty"`
	UpdatedByScript     string            `json:"updated_by_script,omitempty"`
	Groups              []Group           `json:"groups"`
	Tags                []Tag             `json:"tags"`
	Resources           []PackageResource `json:"resources"`
}

// Group is a location group; its name is the lower-case ISO3 code.
type Group struct {
	Name string `json:"name"`
}

// Tag is a vocabulary tag.
type Tag struct {
	Name         string `json:"name"`
	VocabularyID string `json:"vocabulary_id,omitempty"`
}

// PackageResource is a resource entry of a package.
type PackageResource struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	URL          string `json:"url"`
	Format       string `json:"format"`
	ResourceType string `json:"resource_type,omitempty"`
	URLType      string `json:"url_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

// BuildPackage maps a dataset to its catalog package.
func BuildPackage(ds *models.Dataset, cfg config.PublisherConfig, batchID string) (*Package, error) {
	frequency, err := FrequencyValue(ds.UpdateFrequency)
	if err != nil {
		return nil, err
	}

	pkg := &Package{
		Name:                ds.Name,
		Title:               ds.Title,
		Notes:               ds.Notes,
		DatasetSource:       ds.Source,
		Methodology:         ds.Methodology,
		MethodologyOther:    ds.MethodologyText,
		Maintainer:          ds.MaintainerID,
		OwnerOrg:            ds.OwnerOrgID,
		DataUpdateFrequency: frequency,
		Subnational:         subnationalFalse,
		DatasetDate:         FormatDatasetDate(ds.DateRange),
		Batch:               batchID,
		UpdatedByScript:     cfg.UpdatedBy,
	}

	if ds.Subnational {
		pkg.Subnational = subnationalTrue
	}

	for _, code := range ds.Countries {
		pkg.Groups = append(pkg.Groups, Group{Name: strings.ToLower(code)})
	}

	for _, name := range CleanTags(ds.Tags, cfg.TagMappings) {
		pkg.Tags = append(pkg.Tags, Tag{Name: name, VocabularyID: cfg.TagVocabularyID})
	}

	for _, r := range ds.Resources {
		res := PackageResource{
			Name:        r.Name,
			Description: r.Description,
			URL:         r.URL,
			Format:      r.Format,
		}

		if r.IsAPI {
			res.ResourceType = resourceTypeAPI
			res.URLType = resourceTypeAPI
		}

		if !r.LastModified.IsZero() {
			res.LastModified = r.LastModified.UTC().Format(datasetDateLayout)
		}

		pkg.Resources = append(pkg.Resources, res)
	}

	return pkg, nil
}

// FormatDatasetDate renders a range as "[2017-05-11T00:00:00 TO 2017-05-29T00:00:00]".
func FormatDatasetDate(r models.DateRange) string {
	return fmt.Sprintf(datasetDatePattern, day(r.Start), day(r.End))
}

func day(t time.Time) string {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Format(datasetDateLayout)
}
