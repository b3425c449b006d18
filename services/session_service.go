package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/utils"
)

// DefaultOccupantName is used when a diner opens a table without a name.
const DefaultOccupantName = "Customer"

// SessionService drives the table session state machine:
// free -> open -> awaiting_payment -> free, plus the administrative reset.
type SessionService struct {
	db       *gorm.DB
	notifier Notifier
}

func NewSessionService(db *gorm.DB, notifier Notifier) *SessionService {
	return &SessionService{db: db, notifier: orNop(notifier)}
}

func occupantOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultOccupantName
	}
	return name
}

// StartSession opens a free table for the occupant and creates its open order.
// Two diners racing for the same table are settled by the conditional update:
// only one of them sees the row change.
func (s *SessionService) StartSession(ctx context.Context, tableID uint, occupantName string) (*models.Table, *models.Order, error) {
	name := occupantOrDefault(occupantName)

	var table models.Table
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&table, tableID).Error; err != nil {
			return lookupErr("table", tableID, err)
		}

		res := tx.Model(&models.Table{}).
			Where("id = ? AND status = ?", tableID, models.TableFree).
			Updates(map[string]any{"status": models.TableOpen, "cliente_nome": name})
		if res.Error != nil {
			return fmt.Errorf("open table %d: %w", tableID, res.Error)
		}
		if res.RowsAffected == 0 {
			return &InvalidStateError{Message: fmt.Sprintf(
				"table %d is not available; wait until an administrator releases it", table.Number)}
		}

		order = models.Order{
			TableID:      table.ID,
			OccupantName: name,
			Status:       models.OrderOpen,
			Total:        decimal.Zero,
		}
		if err := tx.Create(&order).Error; err != nil {
			return writeErr("create order", err)
		}
		return tx.First(&table, tableID).Error
	})
	if err != nil {
		return nil, nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":    table.Number,
		"order_id": order.ID,
		"occupant": name,
	}).Info("table session started")

	s.notifier.TableChanged(table)
	s.notifier.OrderChanged(order)
	return &table, &order, nil
}

// RequestBill closes an order and moves its table to awaiting payment.
// Repeating it on a closed order re-applies the same state.
func (s *SessionService) RequestBill(ctx context.Context, orderID uint) (*models.Order, *models.Table, error) {
	var order *models.Order
	var table *models.Table
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if current.Status == models.OrderPaid {
			return &InvalidStateError{Message: fmt.Sprintf("order %d is already paid", orderID)}
		}
		if table, err = lockTable(tx, current.TableID); err != nil {
			return err
		}

		if err := tx.Model(&models.Order{ID: current.ID}).Update("status", models.OrderClosed).Error; err != nil {
			return fmt.Errorf("close order %d: %w", orderID, err)
		}
		if err := tx.Model(&models.Table{ID: table.ID}).Update("status", models.TableAwaitingPayment).Error; err != nil {
			return fmt.Errorf("update table %d: %w", table.ID, err)
		}

		if order, err = loadOrder(tx, orderID); err != nil {
			return err
		}
		return tx.First(table, table.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":    table.Number,
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
	}).Info("bill requested")

	s.notifier.OrderChanged(*order)
	s.notifier.TableChanged(*table)
	return order, table, nil
}

// ConfirmPayment marks the table's closed order as paid and frees the table.
// Both rows change in one transaction or neither does.
func (s *SessionService) ConfirmPayment(ctx context.Context, tableID uint) (*models.Table, *models.Order, error) {
	var table *models.Table
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if table, err = lockTable(tx, tableID); err != nil {
			return err
		}

		err = forUpdate(tx).
			Where("mesa_id = ? AND status = ?", table.ID, models.OrderClosed).
			Order("created_at desc, id desc").
			First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Message: "no closed order for this table", Err: err}
		}
		if err != nil {
			return fmt.Errorf("find closed order for table %d: %w", tableID, err)
		}

		if err := tx.Model(&models.Order{ID: order.ID}).Update("status", models.OrderPaid).Error; err != nil {
			return fmt.Errorf("mark order %d paid: %w", order.ID, err)
		}
		if err := releaseTable(tx, table); err != nil {
			return err
		}
		return withLines(tx).First(&order, order.ID).Error
	})
	if err != nil {
		return nil, nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":    table.Number,
		"order_id": order.ID,
		"total":    order.Total.StringFixed(2),
	}).Info("payment confirmed")

	s.notifier.OrderChanged(order)
	s.notifier.TableChanged(*table)
	return table, &order, nil
}

// ResetTable is the administrative override: from any state the table becomes
// free and every order it ever had is deleted with its lines. There is no undo.
func (s *SessionService) ResetTable(ctx context.Context, tableID uint) (*models.Table, error) {
	var table *models.Table
	var removed int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if table, err = lockTable(tx, tableID); err != nil {
			return err
		}

		var orderIDs []uint
		if err := tx.Model(&models.Order{}).Where("mesa_id = ?", table.ID).Pluck("id", &orderIDs).Error; err != nil {
			return fmt.Errorf("list orders of table %d: %w", tableID, err)
		}
		if len(orderIDs) > 0 {
			if err := tx.Where("pedido_id IN ?", orderIDs).Delete(&models.OrderLine{}).Error; err != nil {
				return fmt.Errorf("delete order lines: %w", err)
			}
			if err := tx.Where("id IN ?", orderIDs).Delete(&models.Order{}).Error; err != nil {
				return fmt.Errorf("delete orders: %w", err)
			}
		}
		removed = len(orderIDs)
		return releaseTable(tx, table)
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"table":          table.Number,
		"orders_removed": removed,
	}).Warn("table reset")

	s.notifier.TableChanged(*table)
	return table, nil
}

func releaseTable(tx *gorm.DB, table *models.Table) error {
	table.Release()
	err := tx.Model(&models.Table{ID: table.ID}).
		Updates(map[string]any{"status": table.Status, "cliente_nome": nil}).Error
	if err != nil {
		return fmt.Errorf("release table %d: %w", table.ID, err)
	}
	return tx.First(table, table.ID).Error
}

func (s *SessionService) ListTables(ctx context.Context) ([]models.Table, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).Order("numero").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

func (s *SessionService) GetTable(ctx context.Context, tableID uint) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).First(&table, tableID).Error; err != nil {
		return nil, lookupErr("table", tableID, err)
	}
	return &table, nil
}

// GetTableByNumber resolves the number printed on the table's QR code.
func (s *SessionService) GetTableByNumber(ctx context.Context, number int) (*models.Table, error) {
	var table models.Table
	err := s.db.WithContext(ctx).Where("numero = ?", number).First(&table).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Message: fmt.Sprintf("table number %d not found", number), Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("load table number %d: %w", number, err)
	}
	return &table, nil
}
