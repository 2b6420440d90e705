package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/utils"
)

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Restaurant{},
		&models.Table{},
		&models.TableSession{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.Modifier{},
		&models.Customer{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemModifier{},
		&models.RateLimitRecord{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// seedDiningRoom membuat satu restoran dengan satu meja dan dua menu.
func seedDiningRoom(t *testing.T, db *gorm.DB) (models.Restaurant, models.Table, models.MenuItem, models.MenuItem) {
	t.Helper()

	restaurant := models.Restaurant{
		Name:                  "Warung Tes",
		Slug:                  "warung-tes",
		AcceptingOrders:       true,
		SessionTimeoutMinutes: 20,
		Currency:              "USD",
	}
	if err := db.Create(&restaurant).Error; err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}

	table := models.Table{
		RestaurantID: restaurant.ID,
		TableNumber:  "5",
		Status:       TableStatusFree,
	}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("seed table: %v", err)
	}

	category := models.MenuCategory{RestaurantID: restaurant.ID, Name: "Main"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	burger := models.MenuItem{
		RestaurantID: restaurant.ID,
		CategoryID:   category.ID,
		Name:         "Burger",
		Price:        decimal.RequireFromString("10.00"),
		Available:    true,
	}
	fries := models.MenuItem{
		RestaurantID: restaurant.ID,
		CategoryID:   category.ID,
		Name:         "Fries",
		Price:        decimal.RequireFromString("3.50"),
		Available:    true,
	}
	if err := db.Create(&burger).Error; err != nil {
		t.Fatalf("seed menu: %v", err)
	}
	if err := db.Create(&fries).Error; err != nil {
		t.Fatalf("seed menu: %v", err)
	}
	return restaurant, table, burger, fries
}

// seedActiveSession menanam sesi aktif untuk meja dengan token tertentu.
func seedActiveSession(t *testing.T, db *gorm.DB, restaurantID, tableID uint, token string) models.TableSession {
	t.Helper()
	session := models.TableSession{
		RestaurantID:   restaurantID,
		TableID:        tableID,
		SessionToken:   token,
		Status:         SessionStatusActive,
		LastActivityAt: time.Now(),
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session
}

// backdateSession memundurkan last_activity_at supaya sesi dianggap basi.
func backdateSession(t *testing.T, db *gorm.DB, sessionID uint, age time.Duration) {
	t.Helper()
	if err := db.Model(&models.TableSession{}).Where("id = ?", sessionID).
		Update("last_activity_at", time.Now().Add(-age)).Error; err != nil {
		t.Fatalf("backdate session: %v", err)
	}
}
