package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/pkg/response"
)

type catalogueService interface {
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	GetVendor(ctx context.Context, id string) (*models.Vendor, error)
	CreateVendor(ctx context.Context, actor *models.JWTClaims, req dto.VendorRequest) (*models.Vendor, error)
	UpdateVendor(ctx context.Context, actor *models.JWTClaims, id string, req dto.VendorRequest) (*models.Vendor, error)
	ListCategories(ctx context.Context, vendorID string) ([]models.Category, error)
	CreateCategory(ctx context.Context, actor *models.JWTClaims, vendorID string, req dto.CategoryRequest) (*models.Category, error)
	ListFoodItems(ctx context.Context, filter models.FoodItemFilter) ([]models.FoodItem, error)
	GetFoodItem(ctx context.Context, id string) (*models.FoodItem, error)
	CreateFoodItem(ctx context.Context, actor *models.JWTClaims, req dto.FoodItemRequest) (*models.FoodItem, error)
	UpdateFoodItem(ctx context.Context, actor *models.JWTClaims, id string, req dto.FoodItemPatch) (*models.FoodItem, error)
	ImportMarketList(ctx context.Context, actor *models.JWTClaims, r io.Reader) (*dto.MarketListResult, error)
}

// CatalogueHandler exposes vendor, category and food item endpoints.
type CatalogueHandler struct {
	service catalogueService
}

// NewCatalogueHandler constructs the handler.
func NewCatalogueHandler(svc catalogueService) *CatalogueHandler {
	return &CatalogueHandler{service: svc}
}

// ListVendors godoc
// @Summary List vendors
// @Tags Catalogue
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /vendors [get]
func (h *CatalogueHandler) ListVendors(c *gin.Context) {
	vendors, err := h.service.ListVendors(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vendors, nil)
}

// GetVendor godoc
// @Summary Get vendor
// @Tags Catalogue
// @Produce json
// @Param id path string true "Vendor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /vendors/{id} [get]
func (h *CatalogueHandler) GetVendor(c *gin.Context) {
	vendor, err := h.service.GetVendor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vendor, nil)
}

// CreateVendor godoc
// @Summary Create vendor
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param payload body dto.VendorRequest true "Vendor"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /vendors [post]
func (h *CatalogueHandler) CreateVendor(c *gin.Context) {
	var req dto.VendorRequest
	if !bindJSON(c, &req, "invalid vendor payload") {
		return
	}
	vendor, err := h.service.CreateVendor(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vendor)
}

// UpdateVendor godoc
// @Summary Update vendor
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param id path string true "Vendor ID"
// @Param payload body dto.VendorRequest true "Vendor"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /vendors/{id} [put]
func (h *CatalogueHandler) UpdateVendor(c *gin.Context) {
	var req dto.VendorRequest
	if !bindJSON(c, &req, "invalid vendor payload") {
		return
	}
	vendor, err := h.service.UpdateVendor(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, vendor, nil)
}

// ListCategories godoc
// @Summary List a vendor's categories
// @Tags Catalogue
// @Produce json
// @Param id path string true "Vendor ID"
// @Success 200 {object} response.Envelope
// @Router /vendors/{id}/categories [get]
func (h *CatalogueHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}

// CreateCategory godoc
// @Summary Create category
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param id path string true "Vendor ID"
// @Param payload body dto.CategoryRequest true "Category"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /vendors/{id}/categories [post]
func (h *CatalogueHandler) CreateCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if !bindJSON(c, &req, "invalid category payload") {
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// ListFoodItems godoc
// @Summary List food items
// @Tags Catalogue
// @Produce json
// @Param vendor query string false "Vendor name"
// @Param categoryId query string false "Category ID"
// @Param includeArchived query bool false "Include archived items"
// @Success 200 {object} response.Envelope
// @Router /food-items [get]
func (h *CatalogueHandler) ListFoodItems(c *gin.Context) {
	includeArchived, _ := strconv.ParseBool(c.Query("includeArchived"))
	items, err := h.service.ListFoodItems(c.Request.Context(), models.FoodItemFilter{
		Vendor:          c.Query("vendor"),
		CategoryID:      c.Query("categoryId"),
		IncludeArchived: includeArchived,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// GetFoodItem godoc
// @Summary Get food item
// @Tags Catalogue
// @Produce json
// @Param id path string true "Food item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /food-items/{id} [get]
func (h *CatalogueHandler) GetFoodItem(c *gin.Context) {
	item, err := h.service.GetFoodItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// CreateFoodItem godoc
// @Summary Create food item
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param payload body dto.FoodItemRequest true "Food item"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /food-items [post]
func (h *CatalogueHandler) CreateFoodItem(c *gin.Context) {
	var req dto.FoodItemRequest
	if !bindJSON(c, &req, "invalid food item payload") {
		return
	}
	item, err := h.service.CreateFoodItem(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateFoodItem godoc
// @Summary Edit or archive a food item
// @Tags Catalogue
// @Accept json
// @Produce json
// @Param id path string true "Food item ID"
// @Param payload body dto.FoodItemPatch true "Changes"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /food-items/{id} [patch]
func (h *CatalogueHandler) UpdateFoodItem(c *gin.Context) {
	var req dto.FoodItemPatch
	if !bindJSON(c, &req, "invalid food item payload") {
		return
	}
	item, err := h.service.UpdateFoodItem(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// ImportMarketList godoc
// @Summary Import a market list
// @Description Create food items from every sheet of a market-list workbook
// @Tags Catalogue
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Market list workbook"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /food-items/import [post]
func (h *CatalogueHandler) ImportMarketList(c *gin.Context) {
	_, data, ok := singleFile(c, "file")
	if !ok {
		return
	}
	result, err := h.service.ImportMarketList(c.Request.Context(), claimsFromContext(c), bytes.NewReader(data))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
