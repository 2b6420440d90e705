package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	RestaurantID uint            `gorm:"not null;index;uniqueIndex:idx_order_idempotency" json:"restaurant_id"`
	TableID      uint            `gorm:"not null;index" json:"table_id"`
	Table        Table           `gorm:"foreignKey:TableID" json:"table"`
	CustomerID   *uint           `gorm:"index" json:"customer_id,omitempty"`
	Customer     *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Status       string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0.00" json:"total_amount"`
	// IdempotencyKey unik per restoran; NULL boleh duplikat
	IdempotencyKey *string     `gorm:"type:varchar(100);uniqueIndex:idx_order_idempotency" json:"idempotency_key,omitempty"`
	Archived       bool        `gorm:"not null;default:false;index" json:"archived"`
	OrderItems     []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
	CreatedAt      time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null" json:"updated_at"`
}
