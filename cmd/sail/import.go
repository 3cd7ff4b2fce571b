package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sail-placements/sail/internal/cli"
	"github.com/sail-placements/sail/internal/gradedoc"
	"github.com/sail-placements/sail/internal/importer"
	"github.com/sail-placements/sail/internal/runner"
	"github.com/sail-placements/sail/internal/service"
	"github.com/sail-placements/sail/internal/tabular"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import students, organizations, or grade documents",
	}

	cmd.PersistentFlags().IntP("workers", "w", 0, "Concurrent files to process (default 4)")
	_ = viper.BindPFlag("import.workers", cmd.PersistentFlags().Lookup("workers"))

	cmd.AddCommand(importStudentsCmd())
	cmd.AddCommand(importOrganizationsCmd())
	cmd.AddCommand(importGradesCmd())
	return cmd
}

func importStudentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "students <file|glob>...",
		Short: "Import student spreadsheets (CSV)",
		Long: `Import student CSV exports. Columns are matched by name fragments, so
exports with renamed or reordered columns still import. Rows that fail are
reported individually; the rest of the file imports anyway.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTabularImport(cmd.Context(), args, "Importing students", func(store service.Storage) tabularImportFunc {
				imp := importer.NewStudentImporter(store, currentUser())
				return imp.Import
			})
		},
	}
}

func importOrganizationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "organizations <file|glob>...",
		Short: "Import organization spreadsheets (CSV)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTabularImport(cmd.Context(), args, "Importing organizations", func(store service.Storage) tabularImportFunc {
				imp := importer.NewOrganizationImporter(store, currentUser())
				return imp.Import
			})
		},
	}
}

func importGradesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grades <file|glob>...",
		Short: "Extract grades from PDF grade documents",
		Long: `Extract grade fields from supervisor-issued PDF documents. Each document
is resolved to one student by ID, falling back to name lookup. Documents
missing some fields still import the fields they carry.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			paths, err := expandFileArgs(args)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			extractor := gradedoc.NewExtractor(store, currentUser())
			batch := runBatch(ctx, "Extracting grades", paths, extractor.ProcessFile)
			printBatchSummary("Grade Extraction", batch)
			return batchErr(batch)
		},
	}
}

type tabularImportFunc func(ctx context.Context, fileName string, table *tabular.Table) (*service.ImportSummary, error)

// runTabularImport wires a CSV-backed importer into the batch runner.
func runTabularImport(ctx context.Context, args []string, title string, build func(service.Storage) tabularImportFunc) error {
	paths, err := expandFileArgs(args)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	importFn := build(store)
	process := func(ctx context.Context, path string) (*service.ImportSummary, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()

		table, err := tabular.ReadCSV(f)
		if err != nil {
			return nil, err
		}
		return importFn(ctx, filepath.Base(path), table)
	}

	batch := runBatch(ctx, title, paths, process)
	printBatchSummary("Import Complete", batch)
	return batchErr(batch)
}

// runBatch processes the files through the worker pool with a progress bar.
func runBatch(ctx context.Context, title string, paths []string, process runner.ProcessFunc) *runner.Batch {
	fmt.Println(cli.FormatTitle(title))

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(title),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)

	r := runner.New(process, viper.GetInt("import.workers"))
	batch := r.Run(ctx, paths, func(runner.FileResult) {
		_ = bar.Add(1)
	})
	return batch
}

// printBatchSummary renders per-file outcomes and a totals box.
func printBatchSummary(title string, batch *runner.Batch) {
	const maxErrorsShown = 10

	for _, result := range batch.Results {
		name := filepath.Base(result.Path)
		switch {
		case result.Err != nil:
			fmt.Println(cli.FormatError(fmt.Sprintf("%s: %v", name, result.Err)))
		case result.Summary != nil && len(result.Summary.Errors) > 0:
			fmt.Println(cli.FormatWarning(fmt.Sprintf("%s: %d imported, %d errors",
				name, result.Summary.SuccessCount, len(result.Summary.Errors))))
		default:
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s: %d imported",
				name, result.Summary.SuccessCount)))
		}

		if result.Summary == nil {
			continue
		}
		for i, impErr := range result.Summary.Errors {
			if i == maxErrorsShown {
				fmt.Println(cli.FormatSubtle(fmt.Sprintf("    ... and %d more",
					len(result.Summary.Errors)-maxErrorsShown)))
				break
			}
			if impErr.RowIndex >= 0 {
				fmt.Println(cli.FormatSubtle(fmt.Sprintf("    row %d: %s", impErr.RowIndex+2, impErr.Message)))
			} else {
				fmt.Println(cli.FormatSubtle("    " + impErr.Message))
			}
		}
	}

	content := fmt.Sprintf("  • Files processed: %d\n  • Records imported: %d\n  • Errors: %d\n  • Duration: %s",
		len(batch.Results),
		batch.TotalImported(),
		batch.TotalErrors(),
		batch.FinishedAt.Sub(batch.StartedAt).Round(time.Millisecond))
	fmt.Println(cli.RenderBox(title, content))
}

// batchErr converts a batch where every file failed into a command error.
func batchErr(batch *runner.Batch) error {
	var failed int
	for _, r := range batch.Results {
		if r.Err != nil {
			failed++
		}
	}
	if failed == len(batch.Results) && failed > 0 {
		return fmt.Errorf("all %d files failed", failed)
	}
	return nil
}
