// internal/importer/normalize.go
package importer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// RawRow maps a source column label to the cell text of one record.
type RawRow map[string]string

// NormalizedRow is a row with canonical field names, defaults applied and
// the price parsed.
type NormalizedRow struct {
	Position      int
	ProductName   string
	CatalogNumber string
	Category      string
	Subcategory   string // empty when absent
	Quantity      string
	Unit          string
	Price         decimal.NullDecimal
	Description   string
	Warnings      []Warning
}

const (
	FieldProductName   = "product_name"
	FieldCatalogNumber = "catalog_number"
	FieldCategory      = "category"
	FieldSubcategory   = "subcategory"
	FieldQuantity      = "quantity"
	FieldUnit          = "unit"
	FieldPrice         = "price"
	FieldDescription   = "description"

	DefaultFallbackCategory = "Uncategorized"
	DefaultQuantity         = "1"
)

// fieldAliases lists accepted labels per field, in canonical label form.
var fieldAliases = map[string][]string{
	FieldProductName:   {"product_name", "product"},
	FieldCatalogNumber: {"catalog_number", "catalog_no", "cat_no"},
	FieldCategory:      {"category", "category_name"},
	FieldSubcategory:   {"subcategory", "sub_category", "subcategory_name"},
	FieldQuantity:      {"quantity", "qty", "pack_size"},
	FieldUnit:          {"unit", "units", "uom"},
	FieldPrice:         {"price", "unit_price"},
	FieldDescription:   {"description"},
}

var absentMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"<na>": true,
	"nat":  true,
	"#n/a": true,
}

var priceSentinels = map[string]bool{
	"por":   true,
	"p.o.r": true,
	"n/a":   true,
	"na":    true,
	"":      true,
}

var (
	priceNoise = regexp.MustCompile(`(?i)\b(usd|eur|gbp|inr|rs)\b\.?|[\s$€£¥₹]`)
	// Commas are accepted only as thousands separators.
	thousandsGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// maxPriceDigits is the integer-part limit of the decimal(12,2) price column.
const maxPriceDigits = 10

// CanonicalLabel lower-cases a column label and folds runs of whitespace,
// underscores, hyphens and dots into a single underscore.
func CanonicalLabel(label string) string {
	parts := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return unicode.IsSpace(r) || r == '_' || r == '-' || r == '.'
	})
	return strings.Join(parts, "_")
}

// Normalize maps a raw record to a NormalizedRow. A missing product name or
// catalog number yields a *RowError of kind KindMissingRequiredField.
func Normalize(position int, raw RawRow, fallbackCategory string) (NormalizedRow, error) {
	if strings.TrimSpace(fallbackCategory) == "" {
		fallbackCategory = DefaultFallbackCategory
	}

	values := canonicalValues(raw)
	lookup := func(field string) string {
		for _, alias := range fieldAliases[field] {
			if v, ok := cleanText(values[alias]); ok {
				return v
			}
		}
		return ""
	}

	row := NormalizedRow{
		Position:      position,
		ProductName:   lookup(FieldProductName),
		CatalogNumber: lookup(FieldCatalogNumber),
		Category:      lookup(FieldCategory),
		Subcategory:   lookup(FieldSubcategory),
		Quantity:      lookup(FieldQuantity),
		Unit:          lookup(FieldUnit),
		Description:   lookup(FieldDescription),
	}

	if row.ProductName == "" {
		return row, missingField(position, FieldProductName)
	}
	if row.CatalogNumber == "" {
		return row, missingField(position, FieldCatalogNumber)
	}

	if row.Category == "" {
		row.Category = strings.Join(strings.Fields(fallbackCategory), " ")
	}
	if row.Quantity == "" {
		row.Quantity = DefaultQuantity
	}

	var rawPrice string
	for _, alias := range fieldAliases[FieldPrice] {
		if v, ok := values[alias]; ok && strings.TrimSpace(v) != "" {
			rawPrice = v
			break
		}
	}
	price, ok := ParsePrice(rawPrice)
	if !ok {
		row.Warnings = append(row.Warnings, Warning{
			Row:           position,
			Kind:          KindPriceParseFailure,
			CatalogNumber: row.CatalogNumber,
			Message:       fmt.Sprintf("unparseable price %q stored as absent", strings.TrimSpace(rawPrice)),
		})
	}
	row.Price = price

	return row, nil
}

// ParsePrice parses a price cell. Sentinels such as "POR" and absent markers
// yield an invalid NullDecimal with ok=true; anything else that is not a
// non-negative decimal that fits the price column yields ok=false.
func ParsePrice(raw string) (decimal.NullDecimal, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if priceSentinels[v] || absentMarkers[v] {
		return decimal.NullDecimal{}, true
	}

	cleaned := priceNoise.ReplaceAllString(v, "")
	if cleaned == "" {
		return decimal.NullDecimal{}, false
	}
	if strings.Contains(cleaned, ",") {
		if !thousandsGrouped.MatchString(cleaned) {
			return decimal.NullDecimal{}, false
		}
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}, false
	}
	d = d.Round(2)
	if len(d.Truncate(0).String()) > maxPriceDigits {
		return decimal.NullDecimal{}, false
	}

	return decimal.NullDecimal{Decimal: d, Valid: true}, true
}

// canonicalValues re-keys a raw row by canonical label. When two labels fold
// to the same key the first non-empty value in label order wins.
func canonicalValues(raw RawRow) map[string]string {
	labels := make([]string, 0, len(raw))
	for label := range raw {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	values := make(map[string]string, len(raw))
	for _, label := range labels {
		key := CanonicalLabel(label)
		if key == "" {
			continue
		}
		if existing, ok := values[key]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		values[key] = raw[label]
	}
	return values
}

// cleanText trims and collapses whitespace, reporting false for absent markers.
func cleanText(v string) (string, bool) {
	v = strings.Join(strings.Fields(v), " ")
	if absentMarkers[strings.ToLower(v)] {
		return "", false
	}
	return v, true
}
