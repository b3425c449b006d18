package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/services"
	"github.com/yeremiapane/qr-restaurant/utils"
)

type OrderController struct {
	Orders   *services.OrderService
	Sessions *services.SessionService
}

func NewOrderController(orders *services.OrderService, sessions *services.SessionService) *OrderController {
	return &OrderController{Orders: orders, Sessions: sessions}
}

type lineRequest struct {
	MenuItemID uint   `json:"menu_item_id" binding:"required"`
	Quantity   *int   `json:"quantity"`
	Notes      string `json:"notes"`
}

// quantity defaults to 1 when the field is omitted.
func (l lineRequest) quantity() int {
	if l.Quantity == nil {
		return 1
	}
	return *l.Quantity
}

type createOrderRequest struct {
	TableID      uint          `json:"table_id" binding:"required"`
	OccupantName string        `json:"occupant_name"`
	Lines        []lineRequest `json:"lines" binding:"dive"`
	Notes        string        `json:"notes"`
}

// CreateOrder -> order with its lines in one go. Unknown menu items are skipped.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	in := services.CreateOrderInput{
		TableID:      req.TableID,
		OccupantName: req.OccupantName,
		Notes:        req.Notes,
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, services.LineInput{MenuItemID: l.MenuItemID, Quantity: l.quantity(), Notes: l.Notes})
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetOrderByID -> one order with its lines
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (oc *OrderController) UpdateNotes(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var req notesRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := oc.Orders.UpdateNotes(c.Request.Context(), id, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order updated", order)
}

// AddLine -> append an item to an open order
func (oc *OrderController) AddLine(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var req lineRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := oc.Orders.AddLine(c.Request.Context(), id, req.MenuItemID, req.quantity(), req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Item added", order)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (oc *OrderController) UpdateLine(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	lineID, ok := paramID(c, "line_id")
	if !ok {
		return
	}
	var req quantityRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := oc.Orders.UpdateLineQuantity(c.Request.Context(), orderID, lineID, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item updated", order)
}

type billResponse struct {
	Order *models.Order `json:"order"`
	Table *models.Table `json:"table"`
}

// CloseOrder -> diner asks for the bill
func (oc *OrderController) CloseOrder(c *gin.Context) {
	id, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, table, err := oc.Sessions.RequestBill(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill requested", billResponse{Order: order, Table: table})
}

// GetOrdersByTable -> order history of a table, newest first
func (oc *OrderController) GetOrdersByTable(c *gin.Context) {
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	orders, err := oc.Orders.ListOrdersForTable(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Orders of table", orders)
}
