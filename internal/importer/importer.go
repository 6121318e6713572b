// internal/importer/importer.go
package importer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Summary reports the outcome of one import run.
type Summary struct {
	TotalRows            int         `json:"total_rows"`
	CategoriesCreated    int         `json:"categories_created"`
	SubcategoriesCreated int         `json:"subcategories_created"`
	ProductsCreated      int         `json:"products_created"`
	VariantsCreated      int         `json:"variants_created"`
	VariantsUpdated      int         `json:"variants_updated"`
	VariantsUnchanged    int         `json:"variants_unchanged"`
	RowsSkipped          int         `json:"rows_skipped"`
	RowsFailed           int         `json:"rows_failed"`
	Warnings             []Warning   `json:"warnings"`
	Errors               []*RowError `json:"errors"`
}

// RowsApplied counts rows that reached the store.
func (s *Summary) RowsApplied() int {
	return s.TotalRows - s.RowsSkipped - s.RowsFailed
}

func (s *Summary) record(res *Resolution) {
	if res.CategoryCreated {
		s.CategoriesCreated++
	}
	if res.SubcategoryCreated {
		s.SubcategoriesCreated++
	}
	if res.ProductCreated {
		s.ProductsCreated++
	}
	switch res.VariantOutcome {
	case VariantCreated:
		s.VariantsCreated++
	case VariantUpdated:
		s.VariantsUpdated++
	case VariantUnchanged:
		s.VariantsUnchanged++
	}
	s.Warnings = append(s.Warnings, res.Warnings...)
}

type Options struct {
	FallbackCategory string
	Logger           *logrus.Entry
}

// Importer drives rows through normalization and resolution one at a time,
// in source order.
type Importer struct {
	resolver         *Resolver
	fallbackCategory string
	log              *logrus.Entry
}

func New(db *gorm.DB, opts Options) *Importer {
	if opts.FallbackCategory == "" {
		opts.FallbackCategory = DefaultFallbackCategory
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Importer{
		resolver:         NewResolver(db),
		fallbackCategory: opts.FallbackCategory,
		log:              opts.Logger,
	}
}

// Run imports rows in order. Row positions are 1-based. A bad row never
// aborts the run; only a cancelled context does.
func (im *Importer) Run(ctx context.Context, rows []RawRow) (*Summary, error) {
	summary := &Summary{
		TotalRows: len(rows),
		Warnings:  []Warning{},
		Errors:    []*RowError{},
	}

	for i, raw := range rows {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("import aborted at row %d: %w", i+1, context.Cause(ctx))
		}

		position := i + 1
		res, err := im.processRow(ctx, position, raw)
		if err != nil {
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				rowErr = &RowError{Row: position, Kind: KindUnexpected, Message: err.Error(), Err: err}
			}
			if rowErr.Skipped() {
				summary.RowsSkipped++
			} else {
				summary.RowsFailed++
			}
			summary.Errors = append(summary.Errors, rowErr)
			im.log.WithFields(logrus.Fields{
				"row":  position,
				"kind": rowErr.Kind,
			}).Warn(rowErr.Message)
			continue
		}

		summary.record(res)
	}

	im.log.WithFields(logrus.Fields{
		"total_rows":       summary.TotalRows,
		"products_created": summary.ProductsCreated,
		"variants_created": summary.VariantsCreated,
		"variants_updated": summary.VariantsUpdated,
		"rows_skipped":     summary.RowsSkipped,
		"rows_failed":      summary.RowsFailed,
		"warnings":         len(summary.Warnings),
	}).Info("Import finished")

	return summary, nil
}

// processRow normalizes and resolves one row. Normalization warnings are
// recorded only once the row has been applied.
func (im *Importer) processRow(ctx context.Context, position int, raw RawRow) (res *Resolution, err error) {
	defer func() {
		if r := recover(); r != nil {
			im.log.WithField("row", position).Errorf("panic while importing row: %v\n%s", r, debug.Stack())
			res = nil
			err = &RowError{Row: position, Kind: KindUnexpected, Message: fmt.Sprintf("panic: %v", r)}
		}
	}()

	row, err := Normalize(position, raw, im.fallbackCategory)
	if err != nil {
		return nil, err
	}

	res, err = im.resolver.Resolve(ctx, row)
	if err != nil {
		return nil, &RowError{
			Row:     position,
			Kind:    KindUnexpected,
			Message: err.Error(),
			Err:     err,
		}
	}

	res.Warnings = append(row.Warnings, res.Warnings...)
	return res, nil
}
