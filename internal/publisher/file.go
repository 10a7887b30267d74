package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"microharvest/internal/config"
	"microharvest/internal/logger"
	"microharvest/internal/models"
)

// FilePublisher writes packages as JSON files instead of calling the catalog.
type FilePublisher struct {
	cfg     config.PublisherConfig
	dir     string
	batchID string
	logger  *logger.Logger
}

// NewFilePublisher creates a dry-run publisher writing into dir.
func NewFilePublisher(dir string, cfg config.PublisherConfig, batchID string, log *logger.Logger) *FilePublisher {
	if log == nil {
		log = logger.Discard()
	}

	return &FilePublisher{
		cfg:     cfg,
		dir:     dir,
		batchID: batchID,
		logger:  log,
	}
}

// Publish writes <dir>/<name>.json.
func (p *FilePublisher) Publish(ctx context.Context, ds *models.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pkg, err := BuildPackage(ds, p.cfg, p.batchID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRejected, err)
	}

	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal package: %w", err)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(p.dir, pkg.Name+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write package: %w", err)
	}

	p.logger.Info("Dataset written", "name", pkg.Name, "path", path)

	return nil
}
