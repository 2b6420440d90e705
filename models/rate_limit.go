package models

import "time"

// RateLimitRecord adalah counter fixed-window yang dipersist di database
// supaya konsisten antar instance (bukan counter in-memory per proses).
type RateLimitRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Identifier string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_rate_limit_key" json:"identifier"`
	Action     string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_rate_limit_key" json:"action"`
	Count      int       `gorm:"not null;default:1" json:"count"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}
