// cmd/catalogctl/import.go
package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/biologist/catalog-backend/internal/models"
	"github.com/biologist/catalog-backend/internal/services"
)

type importOptions struct {
	file             string
	fallbackCategory string
	json             bool
	migrate          bool
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a catalog spreadsheet (.xlsx or .csv, local path or s3://bucket/key)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.file) == "" {
				opts.file = a.cfg.Import.DefaultSource
			}
			if strings.TrimSpace(opts.file) == "" {
				return withCode(exitUsage, errors.New("--file is required"))
			}

			if opts.migrate {
				if err := runMigrations(a); err != nil {
					return err
				}
			}

			svc, err := a.importService()
			if err != nil {
				return err
			}

			result, err := svc.ImportSource(cmd.Context(), &services.ImportRequest{
				Source:           opts.file,
				FallbackCategory: opts.fallbackCategory,
			}, models.ImportTriggerCLI)
			if err != nil {
				if result != nil && result.Run != nil {
					return fmt.Errorf("import run %s failed: %w", result.Run.ID, err)
				}
				return err
			}

			return printResult(cmd.OutOrStdout(), result, opts.json)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Source spreadsheet (default: IMPORT_DEFAULT_SOURCE)")
	cmd.Flags().StringVar(&opts.fallbackCategory, "fallback-category", "", "Category for rows without one (default: IMPORT_FALLBACK_CATEGORY)")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the summary as JSON")
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "Run schema migrations before importing")

	return cmd
}
