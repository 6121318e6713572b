// internal/importer/source.go
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// PreferredSheet is read when a workbook has it; otherwise the first sheet.
const PreferredSheet = "Products"

// SupportedExtension reports whether name has a spreadsheet extension the
// importer can read.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// ReadFile opens a local spreadsheet and returns its data rows.
func ReadFile(path string) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnreadable, err)
	}
	defer f.Close()

	return ReadRows(path, f)
}

// ReadRows parses a spreadsheet, choosing the format by the extension of
// name. The first row is the header; every later row becomes a RawRow keyed
// by header label.
func ReadRows(name string, r io.Reader) ([]RawRow, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		records, err = readXLSX(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrSourceUnreadable, filepath.Ext(name))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, filepath.Base(name), err)
	}

	return recordsToRows(records)
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("no sheets found in Excel file")
	}

	sheetName := sheets[0]
	for _, name := range sheets {
		if strings.EqualFold(name, PreferredSheet) {
			sheetName = name
			break
		}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func recordsToRows(records [][]string) ([]RawRow, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", ErrSourceUnreadable)
	}

	headers := make([]string, len(records[0]))
	hasHeader := false
	for i, label := range records[0] {
		headers[i] = strings.TrimSpace(label)
		if headers[i] != "" {
			hasHeader = true
		}
	}
	if !hasHeader {
		return nil, fmt.Errorf("%w: header row is empty", ErrSourceUnreadable)
	}

	rows := make([]RawRow, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(RawRow, len(headers))
		for i, value := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			if _, seen := row[headers[i]]; seen {
				continue
			}
			row[headers[i]] = value
		}
		rows = append(rows, row)
	}

	return rows, nil
}
