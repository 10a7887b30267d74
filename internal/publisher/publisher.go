package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"microharvest/internal/config"
	"microharvest/internal/logger"
	"microharvest/internal/models"
)

// Publish errors.
var (
	ErrInvalidCountry = errors.New("country is not a valid catalog location")
	ErrRejected       = errors.New("dataset rejected by catalog")
)

// Publisher hands a dataset to the downstream catalog.
type Publisher interface {
	Publish(ctx context.Context, ds *models.Dataset) error
}

// Ensure both publishers implement Publisher.
var (
	_ Publisher = (*CatalogPublisher)(nil)
	_ Publisher = (*FilePublisher)(nil)
)

// groupsField is the validation error field raised for unknown locations.
const groupsField = "groups"

// CatalogPublisher creates or updates packages through the action API.
type CatalogPublisher struct {
	client    Client
	cfg       config.PublisherConfig
	batchID   string
	logger    *logger.Logger
	locations map[string]bool
	mu        sync.Mutex
}

// NewCatalogPublisher creates a publisher. batchID groups every call of one run.
func NewCatalogPublisher(client Client, cfg config.PublisherConfig, batchID string, log *logger.Logger) *CatalogPublisher {
	if log == nil {
		log = logger.Discard()
	}

	return &CatalogPublisher{
		client:  client,
		cfg:     cfg,
		batchID: batchID,
		logger:  log,
	}
}

// Publish validates the countries of ds against catalog locations, then updates
// the package with the same name or creates it.
func (p *CatalogPublisher) Publish(ctx context.Context, ds *models.Dataset) error {
	if err := p.checkLocations(ctx, ds.Countries); err != nil {
		return err
	}

	pkg, err := BuildPackage(ds, p.cfg, p.batchID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}

	existingID, err := p.findPackageID(ctx, pkg.Name)
	if err != nil {
		return fmt.Errorf("%w: failed to look up %s: %w", ErrRejected, pkg.Name, err)
	}

	action := ActionPackageCreate
	if existingID != "" {
		pkg.ID = existingID
		action = ActionPackageUpdate
	}

	if _, err := p.client.Call(ctx, action, pkg); err != nil {
		return classify(err)
	}

	p.logger.Info("Dataset published", "name", pkg.Name, "action", action)

	return nil
}

func (p *CatalogPublisher) checkLocations(ctx context.Context, countries []string) error {
	locations, err := p.validLocations(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to load locations: %w", ErrRejected, err)
	}

	for _, code := range countries {
		if !locations[strings.ToLower(code)] {
			return fmt.Errorf("%w: %s", ErrInvalidCountry, code)
		}
	}

	return nil
}

// validLocations loads the location groups once per publisher.
func (p *CatalogPublisher) validLocations(ctx context.Context) (map[string]bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.locations != nil {
		return p.locations, nil
	}

	resp, err := p.client.Call(ctx, ActionGroupList, map[string]any{"all_fields": false})
	if err != nil {
		return nil, err
	}

	names, err := DecodeResult[[]string](resp)
	if err != nil {
		return nil, err
	}

	p.locations = make(map[string]bool, len(*names))
	for _, name := range *names {
		p.locations[strings.ToLower(name)] = true
	}

	p.logger.Debug("Catalog locations loaded", "count", len(p.locations))

	return p.locations, nil
}

func (p *CatalogPublisher) findPackageID(ctx context.Context, name string) (string, error) {
	resp, err := p.client.Call(ctx, ActionPackageShow, map[string]string{"id": name})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Type == ErrorTypeNotFound {
			return "", nil
		}

		return "", err
	}

	existing, err := DecodeResult[struct {
		ID string `json:"id"`
	}](resp)
	if err != nil {
		return "", err
	}

	return existing.ID, nil
}

// classify maps a failed create or update to a publish error.
func classify(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.HasField(groupsField) {
		return fmt.Errorf("%w: %w", ErrInvalidCountry, err)
	}

	return fmt.Errorf("%w: %w", ErrRejected, err)
}
