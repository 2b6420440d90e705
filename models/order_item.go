package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	OrderID uint `gorm:"not null" json:"order_id"`
	// Omitting Order field from JSON to avoid recursive nesting
	Order      Order               `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID uint                `gorm:"not null" json:"menu_item_id"`
	MenuItem   MenuItem            `gorm:"foreignKey:MenuItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"menu_item"`
	Quantity   int                 `gorm:"not null" json:"quantity"`
	UnitPrice  decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal  decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"line_total"`
	Notes      string              `gorm:"type:text" json:"notes"`
	Modifiers  []OrderItemModifier `gorm:"foreignKey:OrderItemID" json:"modifiers"`
	CreatedAt  time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time           `gorm:"not null" json:"updated_at"`
}

type OrderItemModifier struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderItemID uint            `gorm:"not null" json:"order_item_id"`
	OrderItem   OrderItem       `gorm:"foreignKey:OrderItemID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	ModifierID  uint            `gorm:"not null" json:"modifier_id"`
	Modifier    Modifier        `gorm:"foreignKey:ModifierID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"modifier"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}
