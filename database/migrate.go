package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/utils"
)

const activeOrderIndex = "uniq_orders_active_per_table"

// Migrate creates or updates the schema and the one-active-order index.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Table{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderLine{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	return ensureActiveOrderIndex(db)
}

// ensureActiveOrderIndex allows at most one open or closed order per table.
// MySQL has no partial indexes; there the row locks taken by the services are
// the only guard.
func ensureActiveOrderIndex(db *gorm.DB) error {
	switch name := db.Dialector.Name(); name {
	case "sqlite", "postgres":
		stmt := fmt.Sprintf(
			"CREATE UNIQUE INDEX IF NOT EXISTS %s ON orders (mesa_id) WHERE status IN ('%s', '%s')",
			activeOrderIndex, models.OrderOpen, models.OrderClosed)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create %s: %w", activeOrderIndex, err)
		}
		utils.InfoLogger.Printf("Index %s verified", activeOrderIndex)
	default:
		utils.InfoLogger.Warnf("Dialect %s has no partial indexes; %s not created", name, activeOrderIndex)
	}
	return nil
}
