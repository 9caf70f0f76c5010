package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/services-backend/internal/dto"
	"github.com/ignatzorin/services-backend/internal/http/handlers/common"
	"github.com/ignatzorin/services-backend/internal/service"
)

// CatalogHandler отдаёт справочники городов и категорий.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler создаёт хэндлер.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCities обрабатывает GET /api/catalog/cities.
func (h *CatalogHandler) ListCities(c *gin.Context) {
	cities, err := h.catalog.ListCities(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, cities)
}

// ListCategories обрабатывает GET /api/catalog/categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		common.RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateCity обрабатывает POST /api/admin/catalog/cities.
func (h *CatalogHandler) CreateCity(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateCatalogEntryRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	city, err := h.catalog.CreateCity(c.Request.Context(), actor, req.Name)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, city)
}

// CreateCategory обрабатывает POST /api/admin/catalog/categories.
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	actor, err := common.CurrentActor(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateCatalogEntryRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), actor, req.Name)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}
