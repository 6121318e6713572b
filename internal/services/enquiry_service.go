// internal/services/enquiry_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/biologist/catalog-backend/internal/models"
	"github.com/biologist/catalog-backend/internal/utils"
)

var (
	ErrVariantNotFound = errors.New("variant not found")
	ErrVariantMismatch = errors.New("variant does not belong to product")
)

type EnquiryService struct {
	db                  *gorm.DB
	notificationService *NotificationService
}

type CreateEnquiryRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	VariantID string `json:"variant_id" validate:"required,uuid"`
	Name      string `json:"name" validate:"required,notblank,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"omitempty,max=20,phone"`
	Message   string `json:"message" validate:"max=5000"`
}

func NewEnquiryService(db *gorm.DB, notificationService *NotificationService) *EnquiryService {
	return &EnquiryService{
		db:                  db,
		notificationService: notificationService,
	}
}

// CreateEnquiry validates and stores a visitor enquiry, then notifies staff
// in the background.
func (s *EnquiryService) CreateEnquiry(req *CreateEnquiryRequest) (*models.Enquiry, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	productID := uuid.MustParse(req.ProductID)
	variantID := uuid.MustParse(req.VariantID)

	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	var variant models.ProductVariant
	if err := s.db.First(&variant, "id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVariantNotFound
		}
		return nil, fmt.Errorf("failed to get variant: %w", err)
	}
	if variant.ProductID != product.ID {
		return nil, ErrVariantMismatch
	}

	enquiry := &models.Enquiry{
		ProductID: product.ID,
		VariantID: variant.ID,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Message:   strings.TrimSpace(req.Message),
	}
	if err := s.db.Create(enquiry).Error; err != nil {
		return nil, fmt.Errorf("failed to create enquiry: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"enquiry_id":     enquiry.ID,
		"catalog_number": variant.CatalogNumber,
	}).Info("Enquiry received")

	if s.notificationService != nil {
		go func() {
			if err := s.notificationService.SendEnquiryNotification(enquiry, &product, &variant); err != nil {
				logrus.WithError(err).WithField("enquiry_id", enquiry.ID).Error("Failed to send enquiry notification")
			}
		}()
	}

	return enquiry, nil
}

func (s *EnquiryService) ListEnquiries(params utils.PaginationParams) ([]models.Enquiry, int64, error) {
	var enquiries []models.Enquiry
	var total int64

	query := s.db.Model(&models.Enquiry{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count enquiries: %w", err)
	}

	err := utils.ApplyPagination(query.Preload("Product").Preload("Variant").Order("created_at DESC"), params).
		Find(&enquiries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list enquiries: %w", err)
	}

	return enquiries, total, nil
}
