package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/qr-restaurant/services"
	"github.com/yeremiapane/qr-restaurant/utils"
)

type AdminController struct {
	Admin    *services.AdminService
	Sessions *services.SessionService
}

func NewAdminController(admin *services.AdminService, sessions *services.SessionService) *AdminController {
	return &AdminController{Admin: admin, Sessions: sessions}
}

// GetDashboardStats -> table counts per status and today's orders
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := ac.Admin.Stats(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// GetTables -> every table with its running order
func (ac *AdminController) GetTables(c *gin.Context) {
	views, err := ac.Admin.ListTablesWithActiveOrder(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Tables with active order", views)
}

func (ac *AdminController) GetTableDetails(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	detail, err := ac.Admin.TableDetails(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", detail)
}

// ConfirmPayment -> mark the bill paid and free the table
func (ac *AdminController) ConfirmPayment(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	table, order, err := ac.Sessions.ConfirmPayment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment confirmed", billResponse{Order: order, Table: table})
}

// ResetTable -> administrative reset from any state
func (ac *AdminController) ResetTable(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	table, err := ac.Sessions.ResetTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table reset", table)
}
