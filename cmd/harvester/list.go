package main

import (
	"fmt"

	"microharvest/internal/formatter"

	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the catalog entries owned by the configured organization",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.client().ListEntries(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Print(formatter.RenderEntries(entries))
			fmt.Printf("\n📦 %d entries\n", len(entries))

			return nil
		},
	}
}
