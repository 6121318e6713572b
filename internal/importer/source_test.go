// internal/importer/source_test.go
package importer

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheets map[string][][]interface{}) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReadRowsXLSX(t *testing.T) {
	buf := buildWorkbook(t, map[string][][]interface{}{
		"Products": {
			{"Product name", "Catalog no", "Category", "Quantity", "Unit", "Price"},
			{"Kit A", "A-1", "Reagents", 10, "ml", "12.50"},
			{"Kit A", "A-2", "Reagents", 50, "ml", "POR"},
		},
	})

	rows, err := ReadRows("catalog.xlsx", buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kit A", rows[0]["Product name"])
	assert.Equal(t, "A-2", rows[1]["Catalog no"])
	assert.Equal(t, "50", rows[1]["Quantity"])

	row, err := Normalize(1, rows[0], "")
	require.NoError(t, err)
	assert.Equal(t, "A-1", row.CatalogNumber)
	assert.True(t, row.Price.Valid)
}

func TestReadRowsXLSXPrefersProductsSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"notes"}))
	_, err := f.NewSheet("products")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("products", "A1", &[]interface{}{"product_name", "catalog_number"}))
	require.NoError(t, f.SetSheetRow("products", "A2", &[]interface{}{"Kit A", "A-1"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := ReadRows("catalog.xlsx", buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A-1", rows[0]["catalog_number"])
}

func TestReadRowsCSV(t *testing.T) {
	input := "\ufeffproduct_name,catalog_number,price,notes\n" +
		"Kit A,A-1,12.50\n" +
		"\"Kit, B\",B-1,POR,extra\n"

	rows, err := ReadRows("catalog.CSV", strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Kit A", rows[0]["product_name"])
	_, hasNotes := rows[0]["notes"]
	assert.False(t, hasNotes)
	assert.Equal(t, "Kit, B", rows[1]["product_name"])
	assert.Equal(t, "extra", rows[1]["notes"])
}

func TestReadRowsHeaderOnly(t *testing.T) {
	rows, err := ReadRows("catalog.csv", strings.NewReader("product_name,catalog_number\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadRowsUnreadable(t *testing.T) {
	_, err := ReadRows("catalog.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrSourceUnreadable)

	_, err = ReadRows("catalog.csv", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrSourceUnreadable)

	_, err = ReadRows("catalog.xlsx", strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, ErrSourceUnreadable)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorIs(t, err, ErrSourceUnreadable)
}

func TestSupportedExtension(t *testing.T) {
	assert.True(t, SupportedExtension("a.xlsx"))
	assert.True(t, SupportedExtension("A.CSV"))
	assert.False(t, SupportedExtension("a.xls"))
	assert.False(t, SupportedExtension("a"))
}
