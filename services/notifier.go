package services

import "github.com/yeremiapane/qr-restaurant/models"

// Notifier receives committed table and order changes. Implementations must
// not block the caller for long; the live websocket hub is the main one.
type Notifier interface {
	TableChanged(table models.Table)
	OrderChanged(order models.Order)
}

type nopNotifier struct{}

func (nopNotifier) TableChanged(models.Table) {}
func (nopNotifier) OrderChanged(models.Order) {}

func orNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
