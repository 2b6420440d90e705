package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/utils"
)

// CleanupMonitor menjalankan dua background sweep yang idempotent:
// expiry sesi (interval pendek) dan arsip order selesai (interval panjang).
// Keduanya boleh jalan bersamaan dengan traffic foreground.
type CleanupMonitor struct {
	Sessions        *SessionService
	Orders          *OrderService
	StopChan        chan struct{}
	SessionInterval time.Duration
	ArchiveInterval time.Duration
}

func NewCleanupMonitor(db *gorm.DB) *CleanupMonitor {
	return &CleanupMonitor{
		Sessions:        NewSessionService(db),
		Orders:          NewOrderService(db),
		StopChan:        make(chan struct{}),
		SessionInterval: 1 * time.Minute,
		ArchiveInterval: 15 * time.Minute,
	}
}

func (cm *CleanupMonitor) Start() {
	go func() {
		sessionTicker := time.NewTicker(cm.SessionInterval)
		archiveTicker := time.NewTicker(cm.ArchiveInterval)
		defer sessionTicker.Stop()
		defer archiveTicker.Stop()

		for {
			select {
			case <-sessionTicker.C:
				if _, err := cm.Sessions.CleanupExpiredSessions(); err != nil {
					utils.ErrorLogger.Printf("Session cleanup sweep failed: %v", err)
				}
			case <-archiveTicker.C:
				if _, err := cm.Orders.ArchiveAllCompletedOrders(); err != nil {
					utils.ErrorLogger.Printf("Order archive sweep failed: %v", err)
				}
			case <-cm.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Println("Cleanup monitor started")
}

func (cm *CleanupMonitor) Stop() {
	close(cm.StopChan)
}
