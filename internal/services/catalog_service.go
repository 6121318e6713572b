// internal/services/catalog_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/biologist/catalog-backend/internal/database"
	"github.com/biologist/catalog-backend/internal/models"
	"github.com/biologist/catalog-backend/internal/utils"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrSubcategoryNotFound = errors.New("subcategory not found")
	ErrCategoryInUse       = errors.New("category still has products")
)

type CatalogService struct {
	db *gorm.DB
}

type VariantView struct {
	ID            uuid.UUID           `json:"id"`
	CatalogNumber string              `json:"catalog_number"`
	Quantity      string              `json:"quantity"`
	Unit          string              `json:"unit"`
	Price         decimal.NullDecimal `json:"price"`
	IsDefault     bool                `json:"is_default"`
	DisplayLabel  string              `json:"display_label"`
}

type ProductView struct {
	ID              uuid.UUID     `json:"id"`
	Name            string        `json:"name"`
	Slug            string        `json:"slug"`
	Description     string        `json:"description"`
	IsNew           bool          `json:"is_new"`
	CategoryID      uuid.UUID     `json:"category_id"`
	CategoryName    string        `json:"category_name"`
	CategorySlug    string        `json:"category_slug"`
	SubcategoryID   *uuid.UUID    `json:"subcategory_id"`
	SubcategoryName string        `json:"subcategory_name,omitempty"`
	Variants        []VariantView `json:"variants"`
	CreatedAt       time.Time     `json:"created_at"`
}

type SubcategoryView struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CategoryView struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	ProductCount  int64             `json:"product_count"`
	Subcategories []SubcategoryView `json:"subcategories"`
}

type CreateTeamMemberRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Role     string `json:"role" validate:"required,notblank,max=100"`
	ImageURL string `json:"image_url" validate:"omitempty,url,max=500"`
	Order    int    `json:"order" validate:"min=0"`
	IsActive *bool  `json:"is_active"`
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func NewVariantView(v *models.ProductVariant) VariantView {
	return VariantView{
		ID:            v.ID,
		CatalogNumber: v.CatalogNumber,
		Quantity:      v.Quantity,
		Unit:          v.Unit,
		Price:         v.Price,
		IsDefault:     v.IsDefault,
		DisplayLabel:  v.DisplayLabel(),
	}
}

func NewProductView(p *models.Product) ProductView {
	view := ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Description:   p.Description,
		IsNew:         p.IsNew,
		CategoryID:    p.CategoryID,
		SubcategoryID: p.SubcategoryID,
		Variants:      make([]VariantView, 0, len(p.Variants)),
		CreatedAt:     p.CreatedAt,
	}
	if p.Category != nil {
		view.CategoryName = p.Category.Name
		view.CategorySlug = p.Category.Slug
	}
	if p.Subcategory != nil {
		view.SubcategoryName = p.Subcategory.Name
	}
	for i := range p.Variants {
		view.Variants = append(view.Variants, NewVariantView(&p.Variants[i]))
	}
	return view
}

func (s *CatalogService) productQuery() *gorm.DB {
	return s.db.Model(&models.Product{}).
		Preload("Category").
		Preload("Subcategory").
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("quantity ASC")
		})
}

// ListProducts returns one entry per product name that has at least one
// variant, ordered by name. Names shared across categories collapse to the
// oldest product that has variants. Grouping and paging happen in SQL; only
// the products for the current page are loaded.
func (s *CatalogService) ListProducts(params utils.PaginationParams) ([]ProductView, int64, error) {
	withVariants := func() *gorm.DB {
		return s.db.Model(&models.ProductVariant{}).
			Select("1").
			Where("product_variants.product_id = products.id")
	}
	listed := func() *gorm.DB {
		return s.db.Model(&models.Product{}).Where("EXISTS (?)", withVariants())
	}

	var total int64
	if err := listed().Distinct("name").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	var names []string
	err := utils.ApplyPagination(listed().Group("name").Order("name ASC"), params).
		Pluck("name", &names).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list product names: %w", err)
	}
	if len(names) == 0 {
		return []ProductView{}, total, nil
	}

	var products []models.Product
	err = s.productQuery().
		Where("EXISTS (?)", withVariants()).
		Where("name IN ?", names).
		Order("name ASC").Order("created_at ASC").Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	seen := make(map[string]bool, len(names))
	views := make([]ProductView, 0, len(names))
	for i := range products {
		p := &products[i]
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		views = append(views, NewProductView(p))
	}

	return views, total, nil
}

func (s *CatalogService) GetProduct(id uuid.UUID) (*ProductView, error) {
	return s.findProduct("id = ?", id)
}

func (s *CatalogService) GetProductBySlug(slug string) (*ProductView, error) {
	return s.findProduct("slug = ?", slug)
}

func (s *CatalogService) findProduct(query string, arg interface{}) (*ProductView, error) {
	var product models.Product
	if err := s.productQuery().Where(query, arg).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	view := NewProductView(&product)
	return &view, nil
}

func (s *CatalogService) ListCategories() ([]CategoryView, error) {
	var categories []models.Category
	err := s.db.Preload("Subcategories", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	var counts []struct {
		CategoryID uuid.UUID
		Count      int64
	}
	err = s.db.Model(&models.Product{}).
		Select("category_id, COUNT(*) AS count").
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products per category: %w", err)
	}

	productCount := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		productCount[c.CategoryID] = c.Count
	}

	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		view := CategoryView{
			ID:            category.ID,
			Name:          category.Name,
			Slug:          category.Slug,
			ProductCount:  productCount[category.ID],
			Subcategories: make([]SubcategoryView, 0, len(category.Subcategories)),
		}
		for _, sub := range category.Subcategories {
			view.Subcategories = append(view.Subcategories, SubcategoryView{ID: sub.ID, Name: sub.Name})
		}
		views = append(views, view)
	}

	return views, nil
}

func (s *CatalogService) ListTeamMembers() ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := s.db.Where("is_active = ?", true).
		Order("display_order ASC").
		Order("name ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}

func (s *CatalogService) CreateTeamMember(req *CreateTeamMemberRequest) (*models.TeamMember, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	member := &models.TeamMember{
		Name:     req.Name,
		Role:     req.Role,
		ImageURL: req.ImageURL,
		Order:    req.Order,
		IsActive: true,
	}
	if req.IsActive != nil {
		member.IsActive = *req.IsActive
	}

	if err := s.db.Create(member).Error; err != nil {
		return nil, fmt.Errorf("failed to create team member: %w", err)
	}
	return member, nil
}

// DeleteCategory refuses while any product references the category; its
// subcategories go with it.
func (s *CatalogService) DeleteCategory(id uuid.UUID) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return fmt.Errorf("failed to get category: %w", err)
		}

		var products int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		if products > 0 {
			return fmt.Errorf("%w: %d product(s) reference %q", ErrCategoryInUse, products, category.Name)
		}

		if err := tx.Where("category_id = ?", id).Delete(&models.SubCategory{}).Error; err != nil {
			return fmt.Errorf("failed to delete subcategories: %w", err)
		}
		if err := tx.Delete(&category).Error; err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}

// DeleteSubcategory detaches its products before removing it.
func (s *CatalogService) DeleteSubcategory(id uuid.UUID) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var sub models.SubCategory
		if err := tx.First(&sub, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubcategoryNotFound
			}
			return fmt.Errorf("failed to get subcategory: %w", err)
		}

		if err := tx.Model(&models.Product{}).Where("subcategory_id = ?", id).Update("subcategory_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach products: %w", err)
		}
		if err := tx.Delete(&sub).Error; err != nil {
			return fmt.Errorf("failed to delete subcategory: %w", err)
		}
		return nil
	})
}

// DeleteProduct removes the product with its variants and their enquiries.
func (s *CatalogService) DeleteProduct(id uuid.UUID) error {
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to get product: %w", err)
		}

		variantIDs := tx.Model(&models.ProductVariant{}).Select("id").Where("product_id = ?", id)
		if err := tx.Where("product_id = ? OR variant_id IN (?)", id, variantIDs).Delete(&models.Enquiry{}).Error; err != nil {
			return fmt.Errorf("failed to delete enquiries: %w", err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}
		if err := tx.Delete(&product).Error; err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})
}
