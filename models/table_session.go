package models

import "time"

// TableSession merepresentasikan satu kunjungan makan di satu meja.
// Invariant: maksimal satu sesi berstatus 'active' per meja.
type TableSession struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RestaurantID   uint      `gorm:"not null;index" json:"restaurant_id"`
	TableID        uint      `gorm:"not null;index:idx_session_table_status" json:"table_id"`
	Table          Table     `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	SessionToken   string    `gorm:"type:varchar(255);not null;index" json:"session_token"`
	Status         string    `gorm:"type:varchar(20);not null;default:'active';index:idx_session_table_status" json:"status"`
	LastActivityAt time.Time `gorm:"not null" json:"last_activity_at"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`
}
