package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/tirestore_api/internal/service"
	"github.com/GTDGit/tirestore_api/internal/utils"
)

// CatalogHandler handles catalog administration endpoints.
type CatalogHandler struct {
	catalogService *service.CatalogImportService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogImportService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories handles GET /v1/admin/catalog/categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	utils.Success(c, 200, "Categories retrieved", h.catalogService.Categories())
}

// Import handles POST /v1/admin/catalog/import (multipart field "file")
func (h *CatalogHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing file")
		return
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
		utils.Error(c, 400, "INVALID_FILE", "Only .xlsx files are supported")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.Error(c, 400, "INVALID_FILE", "Failed to open file")
		return
	}
	defer file.Close()

	result, err := h.catalogService.ImportXLSX(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidImportFile) {
			utils.Error(c, 400, "INVALID_FILE", err.Error())
			return
		}
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("Catalog import failed")
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to import catalog")
		return
	}

	utils.Success(c, 200, "Catalog imported", result)
}

// GetProduct handles GET /v1/admin/catalog/products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.catalogService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err, "Failed to get catalog product")
		return
	}
	utils.Success(c, 200, "Catalog product retrieved", product)
}

// UpdateStatus handles PUT /v1/admin/catalog/products/:id/status
// Deactivating a product leaves its legacy tire untouched.
func (h *CatalogHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := h.catalogService.SetActive(c.Request.Context(), id, *req.Active); err != nil {
		h.handleError(c, err, "Failed to update catalog product")
		return
	}
	utils.Success(c, 200, "Catalog product updated", gin.H{"id": id, "active": *req.Active})
}

// DeleteProduct handles DELETE /v1/admin/catalog/products/:id
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.catalogService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err, "Failed to delete catalog product")
		return
	}
	utils.Success(c, 200, "Catalog product deleted", nil)
}

func (h *CatalogHandler) handleError(c *gin.Context, err error, message string) {
	if errors.Is(err, utils.ErrCatalogProductNotFound) {
		utils.Error(c, 404, "NOT_FOUND", "Catalog product not found")
		return
	}
	log.Error().Err(err).Msg(message)
	utils.Error(c, 500, "INTERNAL_ERROR", message)
}

func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.Error(c, 400, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}
