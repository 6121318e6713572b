// cmd/catalogctl/output.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/biologist/catalog-backend/internal/models"
	"github.com/biologist/catalog-backend/internal/services"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, result *services.ImportResult, asJSON bool) error {
	if asJSON {
		return printJSON(w, result)
	}

	run := result.Run
	fmt.Fprintf(w, "Import run %s (%s) from %s\n\n", run.ID, run.Status, run.Source)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	s := result.Summary
	if s != nil {
		fmt.Fprintf(tw, "Rows read\t%d\n", s.TotalRows)
		fmt.Fprintf(tw, "Rows applied\t%d\n", s.RowsApplied())
		fmt.Fprintf(tw, "Rows skipped\t%d\n", s.RowsSkipped)
		fmt.Fprintf(tw, "Rows failed\t%d\n", s.RowsFailed)
		fmt.Fprintf(tw, "Categories created\t%d\n", s.CategoriesCreated)
		fmt.Fprintf(tw, "Subcategories created\t%d\n", s.SubcategoriesCreated)
		fmt.Fprintf(tw, "Products created\t%d\n", s.ProductsCreated)
		fmt.Fprintf(tw, "Variants created\t%d\n", s.VariantsCreated)
		fmt.Fprintf(tw, "Variants updated\t%d\n", s.VariantsUpdated)
		fmt.Fprintf(tw, "Variants unchanged\t%d\n", s.VariantsUnchanged)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if s == nil {
		return nil
	}

	if len(s.Errors) > 0 {
		fmt.Fprintf(w, "\nRow errors:\n")
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  %s\n", e.Error())
		}
	}
	if len(s.Warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings:\n")
		for _, warning := range s.Warnings {
			fmt.Fprintf(w, "  %s\n", warning.String())
		}
	}
	return nil
}

func printRuns(w io.Writer, runs []models.ImportRun, asJSON bool) error {
	if asJSON {
		return printJSON(w, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No import runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tSTATUS\tTRIGGER\tROWS\tCREATED\tUPDATED\tSKIPPED\tFAILED\tSOURCE")
	for _, run := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			run.StartedAt.Format(time.RFC3339),
			run.Status,
			run.Trigger,
			run.TotalRows,
			run.VariantsCreated,
			run.VariantsUpdated,
			run.RowsSkipped,
			run.RowsFailed,
			run.Source,
		)
	}
	return tw.Flush()
}
