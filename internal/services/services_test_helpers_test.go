// internal/services/services_test_helpers_test.go
package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/biologist/catalog-backend/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Email: config.EmailConfig{
			FromEmail:   "noreply@example.com",
			FromName:    "Catalog",
			NotifyEmail: "sales@example.com",
		},
		Import: config.ImportConfig{
			FallbackCategory: "Uncategorized",
			LockBackend:      "local",
			LockName:         "catalog-import",
			LockTTL:          time.Minute,
			UploadDir:        t.TempDir(),
		},
		AWS: config.AWSConfig{
			UploadPrefix: "imports",
		},
	}
}

// writeWorkbook saves rows (header first) to an .xlsx file and returns its path.
func writeWorkbook(t *testing.T, dir string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := dir + "/catalog.xlsx"
	require.NoError(t, f.SaveAs(path))
	return path
}

var catalogHeader = []interface{}{"Product name", "Catalog no", "Category", "Subcategory", "Quantity", "Unit", "Price"}
