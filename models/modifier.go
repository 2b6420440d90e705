package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Modifier adalah tambahan untuk menu item (extra topping, level pedas, dll)
type Modifier struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	RestaurantID uint            `gorm:"not null;index" json:"restaurant_id"`
	MenuItemID   *uint           `gorm:"index" json:"menu_item_id,omitempty"`
	Name         string          `gorm:"type:varchar(100);not null" json:"name"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0.00" json:"price"`
	Available    bool            `gorm:"not null;default:true" json:"available"`
	CreatedAt    time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"not null" json:"updated_at"`
}
