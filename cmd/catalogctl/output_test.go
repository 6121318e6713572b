// cmd/catalogctl/output_test.go
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biologist/catalog-backend/internal/importer"
	"github.com/biologist/catalog-backend/internal/models"
	"github.com/biologist/catalog-backend/internal/services"
)

func sampleResult() *services.ImportResult {
	return &services.ImportResult{
		Run: &models.ImportRun{
			Source: "data/catalog.xlsx",
			Status: models.ImportRunStatusCompleted,
		},
		Summary: &importer.Summary{
			TotalRows:       3,
			ProductsCreated: 1,
			VariantsCreated: 2,
			RowsSkipped:     1,
			Warnings: []importer.Warning{
				{Row: 2, Kind: importer.KindPriceParseFailure, CatalogNumber: "A-2", Message: "price \"ask\" not understood"},
			},
			Errors: []*importer.RowError{
				{Row: 3, Kind: importer.KindMissingRequiredField, Field: importer.FieldCatalogNumber, Message: "missing catalog_number"},
			},
		},
	}
}

func TestPrintResultText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, sampleResult(), false))

	out := buf.String()
	assert.Contains(t, out, "data/catalog.xlsx")
	assert.Regexp(t, `Rows applied\s+2`, out)
	assert.Regexp(t, `Variants created\s+2`, out)
	assert.Contains(t, out, "Row errors:")
	assert.Contains(t, out, "Warnings:")
}

func TestPrintResultJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, sampleResult(), true))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	summary := decoded["summary"].(map[string]interface{})
	assert.Equal(t, float64(3), summary["total_rows"])
	assert.Len(t, summary["errors"], 1)
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printRuns(&buf, nil, false))
	assert.Contains(t, buf.String(), "No import runs recorded.")

	buf.Reset()
	runs := []models.ImportRun{{
		Source:          "s3://bucket/catalog.xlsx",
		Status:          models.ImportRunStatusFailed,
		Trigger:         models.ImportTriggerCLI,
		StartedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		VariantsCreated: 7,
	}}
	require.NoError(t, printRuns(&buf, runs, false))
	assert.Contains(t, buf.String(), "2026-01-02T03:04:05Z")
	assert.Contains(t, buf.String(), "s3://bucket/catalog.xlsx")
}

func TestWithCode(t *testing.T) {
	assert.NoError(t, withCode(exitUsage, nil))

	base := errors.New("bad flag")
	err := withCode(exitUsage, base)
	var coded *exitCodeError
	require.True(t, errors.As(err, &coded))
	assert.Equal(t, exitUsage, coded.code)
	assert.ErrorIs(t, err, base)
}
