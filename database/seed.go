package database

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/utils"
)

// DefaultMenu is the house menu loaded into an empty catalog.
func DefaultMenu() []models.MenuItem {
	item := func(name, desc, price string, cat models.Category) models.MenuItem {
		return models.MenuItem{
			Name:        name,
			Description: desc,
			Price:       decimal.RequireFromString(price),
			Category:    cat,
			Available:   true,
		}
	}
	return []models.MenuItem{
		item("Bruschetta", "Italian bread with tomato, basil and olive oil", "15.90", models.CategoryStarter),
		item("Codfish Fritters", "Traditional Portuguese fritters (4 pieces)", "18.50", models.CategoryStarter),
		item("Salmon Carpaccio", "Thin salmon slices with capers", "22.90", models.CategoryStarter),

		item("Shrimp Risotto", "Creamy risotto with fresh shrimp", "45.90", models.CategoryMain),
		item("Grilled Filet Mignon", "Filet mignon with rustic potatoes and vegetables", "52.90", models.CategoryMain),
		item("Grilled Salmon", "Grilled salmon with quinoa and asparagus", "48.90", models.CategoryMain),
		item("Spaghetti Carbonara", "Spaghetti with bacon, eggs and parmesan", "35.90", models.CategoryMain),

		item("Mineral Water", "Still mineral water 500ml", "4.50", models.CategoryBeverage),
		item("Soft Drink", "Cola, guarana or orange soda 350ml", "6.90", models.CategoryBeverage),
		item("Fresh Juice", "Orange, lime or passion fruit", "8.90", models.CategoryBeverage),
		item("Red Wine", "Glass of house red wine", "15.90", models.CategoryBeverage),
		item("Beer", "Cold long neck beer", "7.90", models.CategoryBeverage),

		item("Tiramisu", "Classic Italian dessert", "16.90", models.CategoryDessert),
		item("Petit Gateau", "Chocolate cake with ice cream", "18.90", models.CategoryDessert),
		item("Cheesecake", "Red berry cheesecake", "14.90", models.CategoryDessert),
	}
}

// Seed provisions tables 1..tableCount when there are none and, if withMenu is
// set, loads DefaultMenu into an empty catalog. Existing data is never touched.
func Seed(ctx context.Context, db *gorm.DB, tableCount int, withMenu bool) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tables int64
		if err := tx.Model(&models.Table{}).Count(&tables).Error; err != nil {
			return fmt.Errorf("count tables: %w", err)
		}
		if tables == 0 {
			rows := make([]models.Table, 0, tableCount)
			for n := 1; n <= tableCount; n++ {
				rows = append(rows, models.Table{Number: n, Status: models.TableFree})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("provision tables: %w", err)
			}
			utils.InfoLogger.Printf("Provisioned %d tables", tableCount)
		}

		if !withMenu {
			return nil
		}
		var items int64
		if err := tx.Model(&models.MenuItem{}).Count(&items).Error; err != nil {
			return fmt.Errorf("count menu items: %w", err)
		}
		if items == 0 {
			menu := DefaultMenu()
			if err := tx.Create(&menu).Error; err != nil {
				return fmt.Errorf("seed menu: %w", err)
			}
			utils.InfoLogger.Printf("Seeded %d menu items", len(menu))
		}
		return nil
	})
}
