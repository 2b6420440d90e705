package database

import (
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/utils"
)

// Migrate menjalankan AutoMigrate untuk semua model.
// Unique index komposit (nomor meja per restoran, idempotency key per
// restoran, rate limit key) ikut terbentuk dari tag gorm di model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Restaurant{},
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.Customer{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.Modifier{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemModifier{},
		&models.RateLimitRecord{},
	)
	if err != nil {
		return err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}
