// internal/importer/errors.go
package importer

import (
	"errors"
	"fmt"
)

// ErrSourceUnreadable aborts a whole run: the file is missing, in an
// unsupported format, or has no header row.
var ErrSourceUnreadable = errors.New("import source unreadable")

// Kind classifies row-level problems and warnings.
type Kind string

const (
	KindMissingRequiredField       Kind = "missing_required_field"
	KindPriceParseFailure          Kind = "price_parse_failure"
	KindProductSubcategoryConflict Kind = "product_subcategory_conflict"
	KindVariantProductConflict     Kind = "variant_product_conflict"
	KindUnexpected                 Kind = "unexpected"
)

// RowError is a failure confined to one input row.
type RowError struct {
	Row     int    `json:"row"`
	Kind    Kind   `json:"kind"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s (%s): %s", e.Row, e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Kind, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Skipped reports whether the row was rejected before touching the store.
func (e *RowError) Skipped() bool {
	return e.Kind == KindMissingRequiredField
}

// Warning is a non-fatal anomaly recorded while a row was still applied.
type Warning struct {
	Row           int    `json:"row"`
	Kind          Kind   `json:"kind"`
	CatalogNumber string `json:"catalog_number,omitempty"`
	Message       string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d: %s: %s", w.Row, w.Kind, w.Message)
}

func missingField(row int, field string) *RowError {
	return &RowError{
		Row:     row,
		Kind:    KindMissingRequiredField,
		Field:   field,
		Message: field + " is required",
	}
}
