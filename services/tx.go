package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/qr-restaurant/models"
)

// forUpdate adds SELECT ... FOR UPDATE. SQLite has no row locks; its writers
// are already serialized by the database lock.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

func lockTable(tx *gorm.DB, id uint) (*models.Table, error) {
	var table models.Table
	if err := forUpdate(tx).First(&table, id).Error; err != nil {
		return nil, lookupErr("table", id, err)
	}
	return &table, nil
}

func lockOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := forUpdate(tx).First(&order, id).Error; err != nil {
		return nil, lookupErr("order", id, err)
	}
	return &order, nil
}

// withLines preloads order lines in insertion order together with the
// referenced menu item.
func withLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("Lines.MenuItem")
}

func loadOrder(db *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := withLines(db).First(&order, id).Error; err != nil {
		return nil, lookupErr("order", id, err)
	}
	return &order, nil
}

// storeTotal reloads the lines of an order, recomputes its total and writes it.
func storeTotal(tx *gorm.DB, order *models.Order) error {
	var lines []models.OrderLine
	if err := tx.Where("pedido_id = ?", order.ID).Order("id").Find(&lines).Error; err != nil {
		return err
	}
	order.Lines = lines
	order.RecomputeTotal()
	return tx.Model(&models.Order{ID: order.ID}).Update("total", order.Total).Error
}
