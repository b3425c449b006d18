package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/services"
	"github.com/yeremiapane/qr-restaurant/utils"
)

type MenuController struct {
	Catalog *services.CatalogService
}

func NewMenuController(catalog *services.CatalogService) *MenuController {
	return &MenuController{Catalog: catalog}
}

// GetMenu -> available items grouped by category
func (mc *MenuController) GetMenu(c *gin.Context) {
	menu, err := mc.Catalog.ListAvailable(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", menu)
}

func (mc *MenuController) GetMenuItem(c *gin.Context) {
	id, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	item, err := mc.Catalog.GetItem(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item", item)
}

type createMenuItemRequest struct {
	Name        string           `json:"name" binding:"required"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    models.Category  `json:"category" binding:"required"`
	Available   *bool            `json:"available"`
	ImageURL    *string          `json:"image_url"`
}

// CreateMenuItem -> add an item to the catalog (admin)
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var req createMenuItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item := models.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Category:    req.Category,
		Available:   req.Available == nil || *req.Available,
		ImageURL:    req.ImageURL,
	}
	if err := mc.Catalog.CreateItem(c.Request.Context(), &item); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetAvailability -> show or hide an item on the menu (admin)
func (mc *MenuController) SetAvailability(c *gin.Context) {
	id, ok := paramID(c, "item_id")
	if !ok {
		return
	}
	var req availabilityRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := mc.Catalog.SetAvailability(c.Request.Context(), id, *req.Available)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}
