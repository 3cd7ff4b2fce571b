package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sail-placements/sail/internal/cli"
)

func logsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the import audit log, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			showErrors, err := cmd.Flags().GetBool("errors")
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			logs, err := store.GetImportLogs(ctx, limit)
			if err != nil {
				return err
			}
			if len(logs) == 0 {
				fmt.Println(cli.FormatSubtle("No imports recorded yet"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-17s %-10s %-12s %-9s %-7s %s",
				"WHEN", "KIND", "BY", "IMPORTED", "ERRORS", "FILE")))
			for _, l := range logs {
				fmt.Printf("%-17s %-10s %-12s %-9d %-7d %s\n",
					l.CreatedAt.Local().Format("2006-01-02 15:04"),
					l.Kind, l.ImportedBy, l.SuccessCount, l.ErrorCount, l.FileName)

				if !showErrors {
					continue
				}
				for _, e := range l.Errors {
					if e.RowIndex >= 0 {
						fmt.Println(cli.FormatSubtle(fmt.Sprintf("    row %d: %s", e.RowIndex+2, e.Message)))
					} else {
						fmt.Println(cli.FormatSubtle("    " + e.Message))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum entries to show")
	cmd.Flags().Bool("errors", false, "Show each entry's recorded errors")
	return cmd
}
