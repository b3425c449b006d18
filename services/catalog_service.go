package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/utils"
)

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// ListAvailable returns the available items grouped by category. Groups and
// the items inside them follow catalog order (ascending id).
func (s *CatalogService) ListAvailable(ctx context.Context) (*models.Menu, error) {
	var items []models.MenuItem
	if err := s.db.WithContext(ctx).Where("disponivel = ?", true).Order("id").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	menu := &models.Menu{}
	for _, item := range items {
		menu.Add(item)
	}
	return menu, nil
}

func (s *CatalogService) GetItem(ctx context.Context, itemID uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		return nil, lookupErr("menu item", itemID, err)
	}
	return &item, nil
}

// SetAvailability is the only change allowed on an existing item.
func (s *CatalogService) SetAvailability(ctx context.Context, itemID uint, available bool) (*models.MenuItem, error) {
	db := s.db.WithContext(ctx)
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(&models.MenuItem{ID: item.ID}).Update("disponivel", available).Error; err != nil {
		return nil, fmt.Errorf("update availability of item %d: %w", itemID, err)
	}
	item.Available = available

	utils.InfoLogger.Printf("Menu item %d (%s) availability set to %t", item.ID, item.Name, available)
	return item, nil
}

func (s *CatalogService) CreateItem(ctx context.Context, item *models.MenuItem) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if item.Price.IsNegative() {
		return &ValidationError{Field: "price", Message: "must not be negative"}
	}
	if _, err := models.ParseCategory(string(item.Category)); err != nil {
		return &ValidationError{Field: "category", Message: err.Error()}
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	utils.InfoLogger.Printf("Menu item created: %s (%s, %s)", item.Name, item.Category, item.Price.StringFixed(2))
	return nil
}
