package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/qr-restaurant/models"
)

// TableView is a table together with its running order, if any.
type TableView struct {
	models.Table
	ActiveOrder *models.Order `json:"active_order"`
}

// TableDetail is a table with its full order history, newest first.
type TableDetail struct {
	models.Table
	Orders []models.Order `json:"orders"`
}

type Stats struct {
	TotalTables     int64 `json:"total_tables"`
	FreeTables      int64 `json:"free_tables"`
	OpenTables      int64 `json:"open_tables"`
	AwaitingPayment int64 `json:"awaiting_payment_tables"`
	OrdersToday     int64 `json:"orders_today"`
}

type AdminService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{db: db, now: time.Now}
}

// WithClock replaces the clock used to decide what "today" is.
func (s *AdminService) WithClock(now func() time.Time) *AdminService {
	s.now = now
	return s
}

// ListTablesWithActiveOrder attaches to every table its newest open or closed
// order (ties on created_at go to the higher id).
func (s *AdminService) ListTablesWithActiveOrder(ctx context.Context) ([]TableView, error) {
	db := s.db.WithContext(ctx)

	var tables []models.Table
	if err := db.Order("numero").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	var active []models.Order
	if err := withLines(db).
		Where("status IN ?", models.ActiveOrderStatuses).
		Order("created_at desc, id desc").
		Find(&active).Error; err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}

	newest := make(map[uint]*models.Order, len(active))
	for i := range active {
		if !active[i].IsActive() {
			continue
		}
		if _, seen := newest[active[i].TableID]; !seen {
			newest[active[i].TableID] = &active[i]
		}
	}

	views := make([]TableView, 0, len(tables))
	for _, t := range tables {
		views = append(views, TableView{Table: t, ActiveOrder: newest[t.ID]})
	}
	return views, nil
}

// DailyOrderCount counts orders created on the current server-local day.
func (s *AdminService) DailyOrderCount(ctx context.Context) (int64, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count orders of %s: %w", start.Format("2006-01-02"), err)
	}
	return count, nil
}

func (s *AdminService) Stats(ctx context.Context) (Stats, error) {
	db := s.db.WithContext(ctx)
	var stats Stats

	var rows []struct {
		Status models.TableStatus
		Count  int64
	}
	if err := db.Model(&models.Table{}).Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
		return stats, fmt.Errorf("count tables by status: %w", err)
	}
	for _, r := range rows {
		stats.TotalTables += r.Count
		switch r.Status {
		case models.TableFree:
			stats.FreeTables = r.Count
		case models.TableOpen:
			stats.OpenTables = r.Count
		case models.TableAwaitingPayment:
			stats.AwaitingPayment = r.Count
		}
	}

	today, err := s.DailyOrderCount(ctx)
	if err != nil {
		return stats, err
	}
	stats.OrdersToday = today
	return stats, nil
}

func (s *AdminService) TableDetails(ctx context.Context, tableID uint) (*TableDetail, error) {
	db := s.db.WithContext(ctx)
	var table models.Table
	if err := db.First(&table, tableID).Error; err != nil {
		return nil, lookupErr("table", tableID, err)
	}
	var orders []models.Order
	if err := withLines(db).Where("mesa_id = ?", tableID).Order("created_at desc, id desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list orders of table %d: %w", tableID, err)
	}
	return &TableDetail{Table: table, Orders: orders}, nil
}
