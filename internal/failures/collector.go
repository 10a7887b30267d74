// Package failures accumulates per-entry failure reports during a run.
package failures

import (
	"sync"

	"microharvest/internal/models"
)

// Collector is an append-only list of failure reports owned by one run.
type Collector struct {
	reports []models.FailureReport
	mu      sync.Mutex
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends a report.
func (c *Collector) Add(report models.FailureReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reports = append(c.reports, report)
}

// Reports returns a copy of the reports in insertion order.
func (c *Collector) Reports() []models.FailureReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.FailureReport, len(c.reports))
	copy(out, c.reports)

	return out
}

// Len returns the number of reports.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.reports)
}
