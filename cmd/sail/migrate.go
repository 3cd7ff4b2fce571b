package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sail-placements/sail/internal/cli"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply any pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// initStorage migrates on open; this command exists so operators
			// can migrate explicitly before a scheduled import.
			store, err := initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			defer func() { _ = store.Close() }()

			fmt.Println(cli.FormatSuccess("Database schema is up to date"))
			return nil
		},
	}
}
