package models

import "time"

type Restaurant struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	Name                  string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug                  string    `gorm:"type:varchar(100);uniqueIndex" json:"slug"`
	AcceptingOrders       bool      `gorm:"not null;default:true" json:"accepting_orders"`
	SessionTimeoutMinutes int       `gorm:"not null;default:20" json:"session_timeout_minutes"`
	Currency              string    `gorm:"type:varchar(10);not null;default:'IDR'" json:"currency"`
	RequireOrderApproval  bool      `gorm:"not null;default:false" json:"require_order_approval"`
	CreatedAt             time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time `gorm:"not null" json:"updated_at"`
}

// SessionTimeout mengembalikan timeout sesi restoran (default 20 menit)
func (r *Restaurant) SessionTimeout() time.Duration {
	if r.SessionTimeoutMinutes <= 0 {
		return 20 * time.Minute
	}
	return time.Duration(r.SessionTimeoutMinutes) * time.Minute
}
