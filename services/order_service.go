package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/utils"
)

type LineInput struct {
	MenuItemID uint
	Quantity   int
	Notes      string
}

type CreateOrderInput struct {
	TableID      uint
	OccupantName string
	Lines        []LineInput
	Notes        string
}

type OrderService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewOrderService(db *gorm.DB, notifier Notifier) *OrderService {
	return &OrderService{db: db, notifier: orNop(notifier)}
}

func validateQuantity(field string, q int) error {
	if q < 1 {
		return &ValidationError{Field: field, Message: fmt.Sprintf("must be a positive integer, got %d", q)}
	}
	return nil
}

// CreateOrder opens an order with the requested lines in one transaction.
//
// Lines that reference an unknown menu item are skipped without failing the
// order. The table may hold only one active order; a free table is opened for
// the occupant so the table and its order never disagree.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	for i, l := range in.Lines {
		if err := validateQuantity(fmt.Sprintf("lines[%d].quantity", i), l.Quantity); err != nil {
			return nil, err
		}
	}
	name := occupantOrDefault(in.OccupantName)

	var order *models.Order
	var table *models.Table
	skipped := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if table, err = lockTable(tx, in.TableID); err != nil {
			return err
		}

		var active int64
		if err := tx.Model(&models.Order{}).
			Where("mesa_id = ? AND status IN ?", table.ID, models.ActiveOrderStatuses).
			Count(&active).Error; err != nil {
			return fmt.Errorf("count active orders: %w", err)
		}
		if active > 0 {
			return &InvalidStateError{Message: fmt.Sprintf("table %d already has an active order", table.Number)}
		}

		if table.Status == models.TableFree {
			if err := tx.Model(&models.Table{ID: table.ID}).
				Updates(map[string]any{"status": models.TableOpen, "cliente_nome": name}).Error; err != nil {
				return fmt.Errorf("open table %d: %w", table.ID, err)
			}
			table.Occupy(name)
		}

		created := models.Order{
			TableID:      table.ID,
			OccupantName: name,
			Status:       models.OrderOpen,
			Total:        decimal.Zero,
			Notes:        in.Notes,
		}
		if err := tx.Create(&created).Error; err != nil {
			return writeErr("create order", err)
		}

		for _, l := range in.Lines {
			var item models.MenuItem
			err := tx.First(&item, l.MenuItemID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				skipped++
				continue
			}
			if err != nil {
				return fmt.Errorf("load menu item %d: %w", l.MenuItemID, err)
			}
			line := models.NewOrderLine(created.ID, item, l.Quantity, l.Notes)
			if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
				return fmt.Errorf("create order line: %w", err)
			}
		}

		if err := storeTotal(tx, &created); err != nil {
			return fmt.Errorf("store order total: %w", err)
		}
		order, err = loadOrder(tx, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":         table.Number,
		"order_id":      order.ID,
		"lines":         len(order.Lines),
		"lines_skipped": skipped,
		"total":         order.Total.StringFixed(2),
	}).Info("order created")

	s.notifier.TableChanged(*table)
	s.notifier.OrderChanged(*order)
	return order, nil
}

// AddLine appends one catalog item to an open order and recomputes its total.
func (s *OrderService) AddLine(ctx context.Context, orderID, itemID uint, quantity int, notes string) (*models.Order, error) {
	if err := validateQuantity("quantity", quantity); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if current.Status != models.OrderOpen {
			return &InvalidStateError{Message: fmt.Sprintf("order %d is %s; items can only be added to an open order", orderID, current.Status)}
		}

		var item models.MenuItem
		if err := tx.First(&item, itemID).Error; err != nil {
			return lookupErr("menu item", itemID, err)
		}

		line := models.NewOrderLine(current.ID, item, quantity, notes)
		if err := tx.Omit(clause.Associations).Create(&line).Error; err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
		if err := storeTotal(tx, current); err != nil {
			return fmt.Errorf("store order total: %w", err)
		}
		order, err = loadOrder(tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"order_id": order.ID,
		"item_id":  itemID,
		"quantity": quantity,
		"total":    order.Total.StringFixed(2),
	}).Info("order line added")

	s.notifier.OrderChanged(*order)
	return order, nil
}

// UpdateLineQuantity changes the quantity of one line of an open order. The
// unit price captured when the line was added does not change.
func (s *OrderService) UpdateLineQuantity(ctx context.Context, orderID, lineID uint, quantity int) (*models.Order, error) {
	if err := validateQuantity("quantity", quantity); err != nil {
		return nil, err
	}

	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if current.Status != models.OrderOpen {
			return &InvalidStateError{Message: fmt.Sprintf("order %d is %s; lines can only change on an open order", orderID, current.Status)}
		}

		var line models.OrderLine
		if err := tx.Where("pedido_id = ?", orderID).First(&line, lineID).Error; err != nil {
			return lookupErr("order line", lineID, err)
		}
		line.Quantity = quantity
		line.RecomputeSubtotal()
		if err := tx.Model(&models.OrderLine{ID: line.ID}).
			Updates(map[string]any{"quantidade": line.Quantity, "subtotal": line.Subtotal}).Error; err != nil {
			return fmt.Errorf("update order line %d: %w", lineID, err)
		}
		if err := storeTotal(tx, current); err != nil {
			return fmt.Errorf("store order total: %w", err)
		}
		order, err = loadOrder(tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifier.OrderChanged(*order)
	return order, nil
}

// UpdateNotes replaces the free-text notes of an order.
func (s *OrderService) UpdateNotes(ctx context.Context, orderID uint, notes string) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockOrder(tx, orderID); err != nil {
			return err
		}
		if err := tx.Model(&models.Order{ID: orderID}).Update("observacoes", notes).Error; err != nil {
			return fmt.Errorf("update notes of order %d: %w", orderID, err)
		}
		var err error
		order, err = loadOrder(tx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.notifier.OrderChanged(*order)
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	return loadOrder(s.db.WithContext(ctx), orderID)
}

// ListOrdersForTable returns every order of the table, newest first.
func (s *OrderService) ListOrdersForTable(ctx context.Context, tableID uint) ([]models.Order, error) {
	db := s.db.WithContext(ctx)
	var table models.Table
	if err := db.First(&table, tableID).Error; err != nil {
		return nil, lookupErr("table", tableID, err)
	}
	var orders []models.Order
	if err := withLines(db).Where("mesa_id = ?", tableID).Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders of table %d: %w", tableID, err)
	}
	return orders, nil
}
