// internal/importer/resolver.go
package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/biologist/catalog-backend/internal/models"
)

type VariantOutcome string

const (
	VariantCreated   VariantOutcome = "created"
	VariantUpdated   VariantOutcome = "updated"
	VariantUnchanged VariantOutcome = "unchanged"
)

// Resolution describes what resolving one row did to the store.
type Resolution struct {
	Category           *models.Category
	CategoryCreated    bool
	Subcategory        *models.SubCategory
	SubcategoryCreated bool
	Product            *models.Product
	ProductCreated     bool
	Variant            *models.ProductVariant
	VariantOutcome     VariantOutcome
	Warnings           []Warning
}

// Resolver upserts one normalized row into the catalog: category, then
// subcategory, then product, then variant.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve applies row inside a single transaction, so a failing row leaves
// no partial writes behind.
func (r *Resolver) Resolve(ctx context.Context, row NormalizedRow) (*Resolution, error) {
	var res *Resolution

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res = &Resolution{}

		category, created, err := resolveCategory(tx, row.Category)
		if err != nil {
			return err
		}
		res.Category, res.CategoryCreated = category, created

		if row.Subcategory != "" {
			sub, created, err := resolveSubcategory(tx, category.ID, row.Subcategory)
			if err != nil {
				return err
			}
			res.Subcategory, res.SubcategoryCreated = sub, created
		}

		product, created, warning, err := resolveProduct(tx, row, category.ID, res.Subcategory)
		if err != nil {
			return err
		}
		res.Product, res.ProductCreated = product, created
		if warning != nil {
			res.Warnings = append(res.Warnings, *warning)
		}

		variant, outcome, warning, err := resolveVariant(tx, row, product.ID)
		if err != nil {
			return err
		}
		res.Variant, res.VariantOutcome = variant, outcome
		if warning != nil {
			res.Warnings = append(res.Warnings, *warning)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

func resolveCategory(tx *gorm.DB, name string) (*models.Category, bool, error) {
	var category models.Category
	err := tx.Where("name = ?", name).First(&category).Error
	if err == nil {
		return &category, false, nil
	}
	if !isNotFound(err) {
		return nil, false, fmt.Errorf("failed to look up category %q: %w", name, err)
	}

	slug, err := uniqueSlug(tx, &models.Category{}, name, "category")
	if err != nil {
		return nil, false, err
	}

	category = models.Category{Name: name, Slug: slug}
	if err := tx.Omit(clause.Associations).Create(&category).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return &category, true, nil
}

func resolveSubcategory(tx *gorm.DB, categoryID uuid.UUID, name string) (*models.SubCategory, bool, error) {
	var sub models.SubCategory
	err := tx.Where("category_id = ? AND name = ?", categoryID, name).First(&sub).Error
	if err == nil {
		return &sub, false, nil
	}
	if !isNotFound(err) {
		return nil, false, fmt.Errorf("failed to look up subcategory %q: %w", name, err)
	}

	sub = models.SubCategory{CategoryID: categoryID, Name: name}
	if err := tx.Create(&sub).Error; err != nil {
		return nil, false, fmt.Errorf("failed to create subcategory %q: %w", name, err)
	}
	return &sub, true, nil
}

// resolveProduct finds the product by (name, category). Existing products
// only have empty fields filled; a conflicting subcategory is kept and
// reported.
func resolveProduct(tx *gorm.DB, row NormalizedRow, categoryID uuid.UUID, sub *models.SubCategory) (*models.Product, bool, *Warning, error) {
	var product models.Product
	err := tx.Where("name = ? AND category_id = ?", row.ProductName, categoryID).First(&product).Error
	if err != nil && !isNotFound(err) {
		return nil, false, nil, fmt.Errorf("failed to look up product %q: %w", row.ProductName, err)
	}

	if isNotFound(err) {
		slug, err := uniqueSlug(tx, &models.Product{}, row.ProductName, "product")
		if err != nil {
			return nil, false, nil, err
		}

		product = models.Product{
			Name:        row.ProductName,
			Slug:        slug,
			CategoryID:  categoryID,
			Description: row.Description,
		}
		if sub != nil {
			product.SubcategoryID = &sub.ID
		}
		if err := tx.Omit(clause.Associations).Create(&product).Error; err != nil {
			return nil, false, nil, fmt.Errorf("failed to create product %q: %w", row.ProductName, err)
		}
		return &product, true, nil, nil
	}

	updates := map[string]interface{}{}
	var warning *Warning

	if sub != nil {
		switch {
		case product.SubcategoryID == nil:
			updates["subcategory_id"] = sub.ID
			product.SubcategoryID = &sub.ID
		case *product.SubcategoryID != sub.ID:
			warning = &Warning{
				Row:           row.Position,
				Kind:          KindProductSubcategoryConflict,
				CatalogNumber: row.CatalogNumber,
				Message: fmt.Sprintf("product %q already has a different subcategory; %q ignored",
					product.Name, row.Subcategory),
			}
		}
	}

	if product.Description == "" && row.Description != "" {
		updates["description"] = row.Description
		product.Description = row.Description
	}

	if len(updates) > 0 {
		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).Updates(updates).Error; err != nil {
			return nil, false, nil, fmt.Errorf("failed to update product %q: %w", product.Name, err)
		}
	}

	return &product, false, warning, nil
}

// resolveVariant upserts by the global catalog number. The variant's product
// link is never moved; a row that names another product only refreshes
// quantity, unit and price.
func resolveVariant(tx *gorm.DB, row NormalizedRow, productID uuid.UUID) (*models.ProductVariant, VariantOutcome, *Warning, error) {
	var variant models.ProductVariant
	err := tx.Where("catalog_number = ?", row.CatalogNumber).First(&variant).Error
	if err != nil && !isNotFound(err) {
		return nil, "", nil, fmt.Errorf("failed to look up variant %q: %w", row.CatalogNumber, err)
	}

	if isNotFound(err) {
		variant = models.ProductVariant{
			ProductID:     productID,
			CatalogNumber: row.CatalogNumber,
			Quantity:      row.Quantity,
			Unit:          row.Unit,
			Price:         row.Price,
		}
		if err := tx.Create(&variant).Error; err != nil {
			return nil, "", nil, fmt.Errorf("failed to create variant %q: %w", row.CatalogNumber, err)
		}
		return &variant, VariantCreated, nil, nil
	}

	var warning *Warning
	if variant.ProductID != productID {
		warning = &Warning{
			Row:           row.Position,
			Kind:          KindVariantProductConflict,
			CatalogNumber: row.CatalogNumber,
			Message: fmt.Sprintf("catalog number %q belongs to another product; product link kept",
				row.CatalogNumber),
		}
	}

	if variant.Quantity == row.Quantity && variant.Unit == row.Unit && samePrice(variant.Price, row.Price) {
		return &variant, VariantUnchanged, warning, nil
	}

	err = tx.Model(&models.ProductVariant{}).Where("id = ?", variant.ID).Updates(map[string]interface{}{
		"quantity": row.Quantity,
		"unit":     row.Unit,
		"price":    row.Price,
	}).Error
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to update variant %q: %w", row.CatalogNumber, err)
	}

	variant.Quantity, variant.Unit, variant.Price = row.Quantity, row.Unit, row.Price
	return &variant, VariantUpdated, warning, nil
}

func samePrice(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
