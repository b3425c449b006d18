package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	TableID      uint            `gorm:"column:mesa_id;not null;index" json:"table_id"`
	OccupantName string          `gorm:"column:cliente_nome;type:varchar(100);not null" json:"occupant_name"`
	Status       OrderStatus     `gorm:"type:varchar(20);not null;default:'open';index" json:"status"`
	Total        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	Notes        string          `gorm:"column:observacoes;type:text" json:"notes"`
	CreatedAt    time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
	Lines        []OrderLine     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"lines"`
}

// RecomputeTotal sets Total to the sum of the line subtotals. It must run
// after every line insert or update; the persisted total is authoritative.
func (o *Order) RecomputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Subtotal)
	}
	o.Total = total
	return total
}

// IsActive reports whether the order still belongs to a running table session.
func (o Order) IsActive() bool {
	return o.Status == OrderOpen || o.Status == OrderClosed
}
