package models

import "time"

// DateRange is an inclusive period covered by a dataset.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Record is a normalized dataset ready for the downstream catalog.
type Record struct {
	DateRange       DateRange `json:"dateRange"`
	Name            string    `json:"name"`
	Title           string    `json:"title"`
	Notes           string    `json:"notes"`
	Source          string    `json:"source"`
	Methodology     string    `json:"methodology"`
	MethodologyText string    `json:"methodologyText"`
	MaintainerID    string    `json:"maintainerId"`
	OwnerOrgID      string    `json:"ownerOrgId"`
	UpdateFrequency string    `json:"updateFrequency"`
	Countries       []string  `json:"countries"`
	Tags            []string  `json:"tags"`
	Subnational     bool      `json:"subnational"`
}

// Resource is a downloadable item attached to a dataset.
type Resource struct {
	LastModified time.Time `json:"lastModified"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	URL          string    `json:"url"`
	Format       string    `json:"format"`
	IsAPI        bool      `json:"isApi"`
}

// Dataset bundles a record with its resources.
type Dataset struct {
	Record    `json:"record"`
	Resources []Resource `json:"resources"`
}
