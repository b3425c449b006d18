package models

import (
	"github.com/shopspring/decimal"
)

type OrderLine struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"column:pedido_id;not null;index" json:"order_id"`
	// Non-owning reference; UnitPrice is the snapshot, not a live link.
	MenuItemID uint            `gorm:"column:item_cardapio_id;not null" json:"menu_item_id"`
	MenuItem   *MenuItem       `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item,omitempty"`
	Quantity   int             `gorm:"column:quantidade;not null;default:1" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"column:preco_unitario;type:decimal(10,2);not null" json:"unit_price"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Notes      string          `gorm:"column:observacoes;type:text" json:"notes"`
}

// NewOrderLine snapshots the item's current price.
func NewOrderLine(orderID uint, item MenuItem, quantity int, notes string) OrderLine {
	line := OrderLine{
		OrderID:    orderID,
		MenuItemID: item.ID,
		Quantity:   quantity,
		UnitPrice:  item.Price,
		Notes:      notes,
	}
	line.RecomputeSubtotal()
	return line
}

func (l *OrderLine) RecomputeSubtotal() decimal.Decimal {
	l.Subtotal = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
	return l.Subtotal
}
