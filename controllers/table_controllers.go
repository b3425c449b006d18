package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/services"
	"github.com/yeremiapane/qr-restaurant/utils"
)

type TableController struct {
	Sessions *services.SessionService
}

func NewTableController(sessions *services.SessionService) *TableController {
	return &TableController{Sessions: sessions}
}

// GetAllTables -> every table ordered by number
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Sessions.ListTables(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	table, err := tc.Sessions.GetTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// GetTableByNumber is hit by the menu page opened from a QR code.
func (tc *TableController) GetTableByNumber(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, &services.ValidationError{Field: "number", Message: "must be an integer"})
		return
	}
	table, err := tc.Sessions.GetTableByNumber(c.Request.Context(), number)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

type startSessionRequest struct {
	OccupantName string `json:"occupant_name"`
}

type sessionResponse struct {
	Table *models.Table `json:"table"`
	Order *models.Order `json:"order"`
}

// StartSession -> diner opens a free table
func (tc *TableController) StartSession(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var req startSessionRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	table, order, err := tc.Sessions.StartSession(c.Request.Context(), id, req.OccupantName)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table opened", sessionResponse{Table: table, Order: order})
}

// ResetTable -> free the table and discard its orders
func (tc *TableController) ResetTable(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	table, err := tc.Sessions.ResetTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table reset", table)
}
