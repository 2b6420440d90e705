package Controllers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/services"
	"github.com/yeremiapane/qr-order-app/utils"
)

// setupTestDB membuka sqlite in-memory terpisah per test
func setupTestDB(t *testing.T) *gorm.DB {
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
		&models.User{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// seedRestaurant menanam restoran + meja "5" + satu menu seharga 10.00
func seedRestaurant(t *testing.T, db *gorm.DB) (models.Restaurant, models.Table, models.MenuItem) {
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
		Status:       services.TableStatusFree,
	}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("seed table: %v", err)
	}

	category := models.MenuCategory{RestaurantID: restaurant.ID, Name: "Main"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	menu := models.MenuItem{
		RestaurantID: restaurant.ID,
		CategoryID:   category.ID,
		Name:         "Burger",
		Price:        decimal.RequireFromString("10.00"),
		Available:    true,
	}
	if err := db.Create(&menu).Error; err != nil {
		t.Fatalf("seed menu: %v", err)
	}
	return restaurant, table, menu
}

func seedSession(t *testing.T, db *gorm.DB, restaurantID, tableID uint, token string) models.TableSession {
	t.Helper()
	session := models.TableSession{
		RestaurantID:   restaurantID,
		TableID:        tableID,
		SessionToken:   token,
		Status:         services.SessionStatusActive,
		LastActivityAt: time.Now(),
	}
	if err := db.Create(&session).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return session
}

func patchJSON(t *testing.T, router *gin.Engine, url string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	req, err := http.NewRequest("PATCH", url, bytes.NewBuffer(body))
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func timeNowPlusMinute() time.Time {
	return time.Now().Add(time.Minute)
}
