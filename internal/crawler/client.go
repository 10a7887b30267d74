// Package crawler lists upstream catalog entries and fetches their metadata documents.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"microharvest/internal/config"
	"microharvest/internal/daterange"
	"microharvest/internal/logger"
	"microharvest/internal/models"
)

// Crawler errors.
var (
	ErrEmptyCatalog    = errors.New("no datasets found in catalog listing")
	ErrInvalidResponse = errors.New("invalid upstream response")
)

// listingDateLayout is the format of the "changed" field in the listing, e.g. "Dec-05-2019".
const listingDateLayout = "Jan-02-2006"

// Fetcher retrieves raw documents from the upstream API.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Ensure Scraper implements Fetcher.
var _ Fetcher = (*Scraper)(nil)

// Client lists catalog entries and fetches metadata documents.
type Client struct {
	fetcher  Fetcher
	upstream config.UpstreamConfig
	logger   *logger.Logger
}

// NewClient creates a new crawler client.
func NewClient(fetcher Fetcher, upstream config.UpstreamConfig, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Discard()
	}

	return &Client{
		fetcher:  fetcher,
		upstream: upstream,
		logger:   log,
	}
}

// ListEntries fetches the whole catalog in one call and returns the entries owned by the
// configured organization, in upstream order.
func (c *Client) ListEntries(ctx context.Context) ([]models.EntryDescriptor, error) {
	url := c.upstream.ListingURL()

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog listing: %w", err)
	}

	var listing models.CatalogListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("%w: catalog listing: %w", ErrInvalidResponse, err)
	}

	if listing.Found == 0 {
		return nil, ErrEmptyCatalog
	}

	entries := make([]models.EntryDescriptor, 0, len(listing.Result))

	for _, item := range listing.Result {
		if !strings.HasPrefix(item.IDNo, c.upstream.OrgPrefix) {
			c.logger.Info("Ignoring external dataset", "idno", item.IDNo)

			continue
		}

		entries = append(entries, models.EntryDescriptor{
			ID:        item.ID.String(),
			IDNo:      item.IDNo,
			Title:     item.Title,
			SourceURL: item.URL,
			ChangedAt: c.parseChanged(item),
		})
	}

	c.logger.Debug("Catalog listed", "found", listing.Found, "kept", len(entries))

	return entries, nil
}

func (c *Client) parseChanged(item models.CatalogItem) time.Time {
	if item.Changed == "" {
		return time.Time{}
	}

	if t, err := time.Parse(listingDateLayout, item.Changed); err == nil {
		return t
	}

	start, _, err := daterange.NewParser().Parse(item.Changed)
	if err != nil {
		c.logger.Warn("Unparseable change date", "id", item.ID.String(), "changed", item.Changed)

		return time.Time{}
	}

	return start
}

// MetadataURL returns the metadata document URL of an entry.
func (c *Client) MetadataURL(id string) string {
	return c.upstream.MetadataURLFor(id)
}

// FetchMetadata downloads and decodes the metadata document of one entry.
func (c *Client) FetchMetadata(ctx context.Context, id string) (*models.MetadataDocument, error) {
	url := c.MetadataURL(id)

	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata %s: %w", id, err)
	}

	var doc models.MetadataDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: metadata %s: %w", ErrInvalidResponse, id, err)
	}

	return &doc, nil
}
