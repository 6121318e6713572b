// internal/handlers/admin.go
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/biologist/catalog-backend/internal/importer"
	"github.com/biologist/catalog-backend/internal/models"
	"github.com/biologist/catalog-backend/internal/services"
	"github.com/biologist/catalog-backend/internal/utils"
)

type AdminHandler struct {
	importService  *services.ImportService
	catalogService *services.CatalogService
	maxUploadBytes int64
}

func NewAdminHandler(importService *services.ImportService, catalogService *services.CatalogService, maxUploadBytes int64) *AdminHandler {
	return &AdminHandler{
		importService:  importService,
		catalogService: catalogService,
		maxUploadBytes: maxUploadBytes,
	}
}

// POST /admin/imports
// Accepts a multipart "file" upload or a JSON body naming a source.
func (h *AdminHandler) CreateImport(c *gin.Context) {
	var (
		result *services.ImportResult
		err    error
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		result, err = h.importUpload(c)
	} else {
		var req services.ImportRequest
		if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
			utils.BadRequestResponse(c, "Invalid request body", bindErr.Error())
			return
		}
		result, err = h.importService.ImportSource(c.Request.Context(), &req, models.ImportTriggerAdmin)
	}

	if err != nil {
		h.respondImportError(c, result, err)
		return
	}

	utils.CreatedResponse(c, result)
}

func (h *AdminHandler) importUpload(c *gin.Context) (*services.ImportResult, error) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return nil, errBadUpload{err}
	}

	file, err := header.Open()
	if err != nil {
		return nil, errBadUpload{err}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errBadUpload{err}
	}

	return h.importService.ImportUpload(c.Request.Context(), header.Filename, data, c.PostForm("fallback_category"))
}

type errBadUpload struct{ err error }

func (e errBadUpload) Error() string { return "invalid upload: " + e.err.Error() }

func (h *AdminHandler) respondImportError(c *gin.Context, result *services.ImportResult, err error) {
	var badUpload errBadUpload
	switch {
	case errors.As(err, &badUpload):
		utils.BadRequestResponse(c, err.Error(), nil)
	case len(utils.GetValidationErrors(err)) > 0:
		utils.ValidationErrorResponse(c, utils.GetValidationErrors(err))
	case errors.Is(err, services.ErrImportInProgress):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, importer.ErrSourceUnreadable):
		var details interface{}
		if result != nil {
			details = result.Run
		}
		utils.ErrorResponse(c, http.StatusUnprocessableEntity, "SOURCE_UNREADABLE", err.Error(), details)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

// GET /admin/imports
func (h *AdminHandler) GetImports(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	if c.Query("sort") == "" {
		params.Sort = "started_at"
	}

	runs, total, err := h.importService.ListRuns(params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(runs, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /admin/imports/:id
func (h *AdminHandler) GetImport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid import run ID", nil)
		return
	}

	run, err := h.importService.GetRun(id)
	if err != nil {
		if errors.Is(err, services.ErrImportRunNotFound) {
			utils.NotFoundResponse(c, "Import run")
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"run": run,
	})
}

// POST /admin/team
func (h *AdminHandler) CreateTeamMember(c *gin.Context) {
	var req services.CreateTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	member, err := h.catalogService.CreateTeamMember(&req)
	if err != nil {
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"member": member,
	})
}

// DELETE /admin/categories/:id
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	h.deleteByID(c, h.catalogService.DeleteCategory)
}

// DELETE /admin/subcategories/:id
func (h *AdminHandler) DeleteSubcategory(c *gin.Context) {
	h.deleteByID(c, h.catalogService.DeleteSubcategory)
}

// DELETE /admin/products/:id
func (h *AdminHandler) DeleteProduct(c *gin.Context) {
	h.deleteByID(c, h.catalogService.DeleteProduct)
}

func (h *AdminHandler) deleteByID(c *gin.Context, del func(uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ID", nil)
		return
	}

	if err := del(id); err != nil {
		switch {
		case errors.Is(err, services.ErrCategoryInUse):
			utils.ConflictResponse(c, err.Error())
		case errors.Is(err, services.ErrCategoryNotFound),
			errors.Is(err, services.ErrSubcategoryNotFound),
			errors.Is(err, services.ErrProductNotFound):
			utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		default:
			utils.InternalErrorResponse(c, err.Error())
		}
		return
	}

	utils.SuccessResponse(c, gin.H{
		"deleted": id,
	})
}
