package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/kds"
	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/utils"
)

// Status sesi meja
const (
	SessionStatusActive  = "active"
	SessionStatusExpired = "expired"
)

// SessionService memegang relasi Table<->TableSession beserta expiry-nya.
// Semua device yang scan meja yang sama berbagi satu sesi aktif.
type SessionService struct {
	db *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// SessionResult adalah hasil scan/create sesi untuk client diner.
type SessionResult struct {
	SessionToken string `json:"session_token"`
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
}

// SessionCheck adalah hasil refresh/heartbeat (soft failure, bukan error).
type SessionCheck struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SessionStatusInfo adalah laporan read-only untuk getSessionStatus.
type SessionStatusInfo struct {
	Status         string     `json:"status"`
	SessionToken   string     `json:"session_token,omitempty"`
	TableID        uint       `json:"table_id,omitempty"`
	RestaurantID   uint       `json:"restaurant_id,omitempty"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// CreateTableSession dipanggil saat diner scan QR meja.
//   - Belum ada sesi aktif: insert sesi baru, meja jadi occupied.
//   - Token sama: keep-alive, refresh last_activity_at.
//   - Token beda + sesi lama sudah lewat timeout: sesi lama di-expire dan
//     sesi baru milik caller dibuat dalam panggilan yang sama.
//   - Token beda + sesi lama masih hidup: kembalikan token sesi yang ada
//     supaya device baru join ke sesi meja yang sama.
func (s *SessionService) CreateTableSession(restaurantID uint, tableNumber, sessionToken string, lat, lng *float64) (*SessionResult, error) {
	if sessionToken == "" {
		sessionToken = uuid.NewString()
	}

	var result *SessionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var restaurant models.Restaurant
		if err := tx.First(&restaurant, restaurantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("restaurant %d: %w", restaurantID, ErrNotFound)
			}
			return err
		}

		var table models.Table
		if err := tx.Where("restaurant_id = ? AND table_number = ?", restaurantID, tableNumber).
			First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("table %s: %w", tableNumber, ErrNotFound)
			}
			return err
		}

		now := time.Now()

		var current models.TableSession
		err := tx.Where("table_id = ? AND status = ?", table.ID, SessionStatusActive).
			First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Scan pertama untuk meja ini
			if err := s.insertSession(tx, &restaurant, &table, sessionToken, lat, lng, now); err != nil {
				return err
			}
			result = &SessionResult{SessionToken: sessionToken, Status: SessionStatusActive, Message: "session created"}
			return nil
		}
		if err != nil {
			return err
		}

		if current.SessionToken == sessionToken {
			// Keep-alive dari device yang sama
			if err := tx.Model(&current).Update("last_activity_at", now).Error; err != nil {
				return err
			}
			result = &SessionResult{SessionToken: sessionToken, Status: SessionStatusActive, Message: "session refreshed"}
			return nil
		}

		if now.Sub(current.LastActivityAt) > restaurant.SessionTimeout() {
			// Sesi lama sudah basi: expire lalu buat sesi baru milik caller
			if err := tx.Model(&current).Update("status", SessionStatusExpired).Error; err != nil {
				return err
			}
			if err := s.insertSession(tx, &restaurant, &table, sessionToken, lat, lng, now); err != nil {
				return err
			}
			result = &SessionResult{SessionToken: sessionToken, Status: SessionStatusActive, Message: "previous session expired, session created"}
			return nil
		}

		// Meja dipakai bersama: device baru join ke sesi yang sudah ada
		result = &SessionResult{SessionToken: current.SessionToken, Status: SessionStatusActive, Message: "joined existing table session"}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Dashboard staff ikut melihat pergerakan sesi meja
	var session models.TableSession
	if s.db.Where("session_token = ? AND status = ?", result.SessionToken, SessionStatusActive).
		First(&session).Error == nil {
		kds.BroadcastSessionUpdate(session)
	}
	return result, nil
}

func (s *SessionService) insertSession(tx *gorm.DB, restaurant *models.Restaurant, table *models.Table, token string, lat, lng *float64, now time.Time) error {
	session := models.TableSession{
		RestaurantID:   restaurant.ID,
		TableID:        table.ID,
		SessionToken:   token,
		Status:         SessionStatusActive,
		LastActivityAt: now,
		Latitude:       lat,
		Longitude:      lng,
	}
	if err := tx.Create(&session).Error; err != nil {
		return err
	}
	if table.Status == TableStatusFree {
		if err := tx.Model(table).Update("status", TableStatusOccupied).Error; err != nil {
			return err
		}
	}
	utils.InfoLogger.Printf("New table session (table_id=%d, restaurant_id=%d)", table.ID, restaurant.ID)
	return nil
}

// RefreshSession memperpanjang sesi dari client. Gagal soft (success=false)
// kalau sesi tidak ada, sudah expired, restoran tutup, atau timeout terlewati.
func (s *SessionService) RefreshSession(sessionToken string) *SessionCheck {
	var session models.TableSession
	if err := s.db.Where("session_token = ?", sessionToken).
		Order("created_at desc").First(&session).Error; err != nil {
		return &SessionCheck{Success: false, Error: "session not found"}
	}
	if session.Status != SessionStatusActive {
		return &SessionCheck{Success: false, Error: "session expired"}
	}

	var restaurant models.Restaurant
	if err := s.db.First(&restaurant, session.RestaurantID).Error; err != nil {
		return &SessionCheck{Success: false, Error: "restaurant not found"}
	}
	if !restaurant.AcceptingOrders {
		return &SessionCheck{Success: false, Error: "restaurant is not accepting orders"}
	}

	if time.Since(session.LastActivityAt) > restaurant.SessionTimeout() {
		s.db.Model(&session).Update("status", SessionStatusExpired)
		return &SessionCheck{Success: false, Error: "session expired"}
	}

	if err := s.db.Model(&session).Update("last_activity_at", time.Now()).Error; err != nil {
		return &SessionCheck{Success: false, Error: "failed to refresh session"}
	}
	return &SessionCheck{Success: true}
}

// HeartbeatSession hanya butuh status active dan selalu bump last_activity_at.
func (s *SessionService) HeartbeatSession(sessionToken string) *SessionCheck {
	res := s.db.Model(&models.TableSession{}).
		Where("session_token = ? AND status = ?", sessionToken, SessionStatusActive).
		Update("last_activity_at", time.Now())
	if res.Error != nil || res.RowsAffected == 0 {
		return &SessionCheck{Success: false, Error: "no active session"}
	}
	return &SessionCheck{Success: true}
}

// GetSessionStatus melaporkan status sesi tanpa memutasi apapun.
// Expiry dihitung lazy dari last_activity_at vs timeout restoran.
func (s *SessionService) GetSessionStatus(sessionToken string) *SessionStatusInfo {
	var session models.TableSession
	if err := s.db.Where("session_token = ?", sessionToken).
		Order("created_at desc").First(&session).Error; err != nil {
		return &SessionStatusInfo{Status: "not_found"}
	}

	status := session.Status
	if status == SessionStatusActive {
		var restaurant models.Restaurant
		if err := s.db.First(&restaurant, session.RestaurantID).Error; err == nil {
			if time.Since(session.LastActivityAt) > restaurant.SessionTimeout() {
				status = SessionStatusExpired
			}
		}
	}

	last := session.LastActivityAt
	return &SessionStatusInfo{
		Status:         status,
		SessionToken:   session.SessionToken,
		TableID:        session.TableID,
		RestaurantID:   session.RestaurantID,
		LastActivityAt: &last,
	}
}

// ValidateSessionInternal adalah otoritas sesi untuk pembuatan order.
// Lookup dilakukan per-meja dulu (bukan per-token) supaya token basi dari
// meja lain tidak bisa nyasar. Berjalan di dalam transaksi caller.
func (s *SessionService) ValidateSessionInternal(tx *gorm.DB, restaurant *models.Restaurant, table *models.Table, sessionToken string) (*models.TableSession, error) {
	var session models.TableSession
	err := tx.Where("table_id = ? AND status = ?", table.ID, SessionStatusActive).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no active session for table %d: %w", table.ID, ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if session.SessionToken != sessionToken {
		return nil, fmt.Errorf("session token mismatch: %w", ErrUnauthorized)
	}

	if !restaurant.AcceptingOrders {
		return nil, fmt.Errorf("restaurant is not accepting orders: %w", ErrConflict)
	}

	if time.Since(session.LastActivityAt) > restaurant.SessionTimeout() {
		if err := tx.Model(&session).Update("status", SessionStatusExpired).Error; err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("session past timeout: %w", ErrSessionExpired)
	}

	if err := tx.Model(&session).Update("last_activity_at", time.Now()).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// CleanupExpiredSessions adalah sweep periodik: semua sesi active yang sudah
// lewat timeout restorannya ditransisikan ke expired. Idempotent, dan lookup
// restoran yang gagal di-skip tanpa menghentikan sweep.
func (s *SessionService) CleanupExpiredSessions() (int, error) {
	var sessions []models.TableSession
	if err := s.db.Where("status = ?", SessionStatusActive).Find(&sessions).Error; err != nil {
		return 0, err
	}

	restaurants := make(map[uint]*models.Restaurant)
	expired := 0
	now := time.Now()

	for _, session := range sessions {
		restaurant, ok := restaurants[session.RestaurantID]
		if !ok {
			var r models.Restaurant
			if err := s.db.First(&r, session.RestaurantID).Error; err != nil {
				utils.ErrorLogger.Printf("Cleanup: skip session %d, restaurant %d lookup failed: %v",
					session.ID, session.RestaurantID, err)
				continue
			}
			restaurant = &r
			restaurants[session.RestaurantID] = restaurant
		}

		if now.Sub(session.LastActivityAt) <= restaurant.SessionTimeout() {
			continue
		}

		// Re-check status di dalam UPDATE supaya aman terhadap sweep/foreground
		// lain yang sudah meng-expire duluan.
		res := s.db.Model(&models.TableSession{}).
			Where("id = ? AND status = ?", session.ID, SessionStatusActive).
			Update("status", SessionStatusExpired)
		if res.Error != nil {
			utils.ErrorLogger.Printf("Cleanup: failed to expire session %d: %v", session.ID, res.Error)
			continue
		}
		if res.RowsAffected > 0 {
			expired++
		}
	}

	if expired > 0 {
		utils.InfoLogger.Printf("Session cleanup: expired %d stale sessions", expired)
	}
	return expired, nil
}
