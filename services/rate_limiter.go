package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/models"
)

// Action names untuk rate limiting
const (
	ActionCreateOrder = "create_order"
	ActionSessionScan = "session_scan"
)

// Default limit untuk pembuatan order per sesi
const (
	CreateOrderLimit  = 20
	CreateOrderWindow = time.Minute
)

// RateLimiter adalah fixed-window counter yang dipersist sebagai
// RateLimitRecord. Tidak ada sliding window: burst tepat di batas window
// bisa meloloskan sampai 2x limit, itu limitasi yang diterima.
type RateLimiter struct {
	db *gorm.DB
}

func NewRateLimiter(db *gorm.DB) *RateLimiter {
	return &RateLimiter{db: db}
}

// Check menambah counter untuk (identifier, action) di dalam transaksi tx.
// Pemakaian pertama insert count=1; window habis reset count=1;
// count >= limit ditolak dengan ErrRateLimited.
func (rl *RateLimiter) Check(tx *gorm.DB, identifier, action string, limit int, window time.Duration) error {
	now := time.Now()

	var record models.RateLimitRecord
	err := tx.Where("identifier = ? AND action = ?", identifier, action).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.RateLimitRecord{
			Identifier: identifier,
			Action:     action,
			Count:      1,
			ExpiresAt:  now.Add(window),
		}
		return tx.Create(&record).Error
	}
	if err != nil {
		return err
	}

	if now.After(record.ExpiresAt) {
		// Window lama sudah habis, mulai window baru
		record.Count = 1
		record.ExpiresAt = now.Add(window)
		return tx.Save(&record).Error
	}

	if record.Count >= limit {
		return fmt.Errorf("action %s: %w", action, ErrRateLimited)
	}

	record.Count++
	return tx.Save(&record).Error
}

// CheckDefault menjalankan Check di luar transaksi caller (dipakai middleware).
func (rl *RateLimiter) CheckDefault(identifier, action string, limit int, window time.Duration) error {
	return rl.db.Transaction(func(tx *gorm.DB) error {
		return rl.Check(tx, identifier, action, limit, window)
	})
}
