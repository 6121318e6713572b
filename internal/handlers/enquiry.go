// internal/handlers/enquiry.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/biologist/catalog-backend/internal/services"
	"github.com/biologist/catalog-backend/internal/utils"
)

const enquirySubmittedMessage = "Enquiry submitted successfully"

type EnquiryHandler struct {
	enquiryService *services.EnquiryService
}

func NewEnquiryHandler(enquiryService *services.EnquiryService) *EnquiryHandler {
	return &EnquiryHandler{
		enquiryService: enquiryService,
	}
}

// POST /enquiries
func (h *EnquiryHandler) CreateEnquiry(c *gin.Context) {
	var req services.CreateEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	enquiry, err := h.enquiryService.CreateEnquiry(&req)
	if err != nil {
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		switch {
		case errors.Is(err, services.ErrProductNotFound),
			errors.Is(err, services.ErrVariantNotFound),
			errors.Is(err, services.ErrVariantMismatch):
			utils.BadRequestResponse(c, err.Error(), nil)
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": enquirySubmittedMessage,
		"id":      enquiry.ID,
	})
}

// GET /admin/enquiries
func (h *EnquiryHandler) GetEnquiries(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	enquiries, total, err := h.enquiryService.ListEnquiries(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(enquiries, total, params)
	utils.PaginatedResponse(c, result)
}
