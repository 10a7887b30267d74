package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"microharvest/internal/failures"
	"microharvest/internal/formatter"
	"microharvest/internal/models"
	"microharvest/internal/publisher"

	"github.com/spf13/cobra"
)

type normalizeFlags struct {
	file string
}

func newNormalizeCmd(a *app) *cobra.Command {
	flags := &normalizeFlags{}

	cmd := &cobra.Command{
		Use:   "normalize <id>",
		Short: "Normalize one entry and print the package that would be published",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.normalize(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.file, "file", "", "Read the metadata document from a local JSON file")

	return cmd
}

func (a *app) normalize(ctx context.Context, id string, flags *normalizeFlags) error {
	client := a.client()
	entry := models.EntryDescriptor{ID: id}

	var doc *models.MetadataDocument

	if flags.file != "" {
		data, err := os.ReadFile(flags.file)
		if err != nil {
			return fmt.Errorf("failed to read metadata file: %w", err)
		}

		doc = &models.MetadataDocument{}
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("failed to parse metadata file: %w", err)
		}
	} else {
		entry = a.lookup(ctx, id)

		fetched, err := client.FetchMetadata(ctx, id)
		if err != nil {
			return err
		}

		doc = fetched
	}

	collector := failures.NewCollector()

	dataset := a.processor().Process(entry, doc, client.MetadataURL(id), collector)
	if dataset == nil {
		fmt.Print(formatter.RenderFailures(collector.Reports()))

		return fmt.Errorf("entry %s could not be normalized", id)
	}

	pkg, err := publisher.BuildPackage(dataset, a.cfg.Publisher, "")
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal package: %w", err)
	}

	fmt.Println(string(out))

	return nil
}

// lookup returns the listing descriptor of id, or a bare descriptor when the listing
// cannot be fetched or does not contain it.
func (a *app) lookup(ctx context.Context, id string) models.EntryDescriptor {
	entries, err := a.client().ListEntries(ctx)
	if err != nil {
		a.logger.Warn("Listing unavailable", "error", err)

		return models.EntryDescriptor{ID: id}
	}

	for _, e := range entries {
		if e.ID == id {
			return e
		}
	}

	return models.EntryDescriptor{ID: id}
}
