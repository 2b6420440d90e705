package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/kds"
	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/utils"
)

// Status order
const (
	OrderStatusNeedsApproval = "needs_approval"
	OrderStatusPending       = "pending"
	OrderStatusPreparing     = "preparing"
	OrderStatusReady         = "ready"
	OrderStatusServed        = "served"
	OrderStatusPaid          = "paid"
	OrderStatusCancelled     = "cancelled"
)

// Status meja
const (
	TableStatusFree           = "free"
	TableStatusOccupied       = "occupied"
	TableStatusPaymentPending = "payment_pending"
	TableStatusDirty          = "dirty"
)

// FreeTableOnCancel adalah satu-satunya titik kebijakan untuk perilaku
// "cancel/complete satu order membebaskan meja walau masih ada order lain".
// Perilaku sumber dipertahankan (true); jangan diubah diam-diam.
var FreeTableOnCancel = true

// updatableStatuses: target yang sah untuk updateOrderStatus (staff).
var updatableStatuses = map[string]bool{
	OrderStatusPending:   true,
	OrderStatusPreparing: true,
	OrderStatusReady:     true,
	OrderStatusServed:    true,
	OrderStatusPaid:      true,
	OrderStatusCancelled: true,
}

var tableStatuses = map[string]bool{
	TableStatusFree:           true,
	TableStatusOccupied:       true,
	TableStatusPaymentPending: true,
	TableStatusDirty:          true,
}

// OrderService membuat order, menjaga idempotency, menggabungkan item ke
// satu bill terbuka per meja, dan menjalankan state machine status order.
type OrderService struct {
	db       *gorm.DB
	sessions *SessionService
	limiter  *RateLimiter
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{
		db:       db,
		sessions: NewSessionService(db),
		limiter:  NewRateLimiter(db),
	}
}

type OrderModifierRequest struct {
	ModifierID uint `json:"modifier_id" binding:"required"`
	Quantity   int  `json:"quantity"`
}

type OrderItemRequest struct {
	MenuItemID uint                   `json:"menu_item_id" binding:"required"`
	Quantity   int                    `json:"quantity" binding:"required"`
	Notes      string                 `json:"notes"`
	Modifiers  []OrderModifierRequest `json:"modifiers"`
}

type CreateOrderInput struct {
	RestaurantID   uint
	TableNumber    string
	SessionToken   string
	Items          []OrderItemRequest
	IdempotencyKey string
	CustomerID     *uint
}

// CreateOrder menjalankan seluruh algoritma pembuatan order dalam SATU
// transaksi: resolve meja -> idempotency short-circuit -> validasi sesi ->
// rate limit -> append-or-create -> insert item -> patch total.
// Gagal di langkah manapun berarti rollback total, tanpa partial write.
func (s *OrderService) CreateOrder(in CreateOrderInput) (uint, error) {
	var orderID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 1. Resolve meja berdasarkan (restaurant, number)
		var table models.Table
		if err := tx.Where("restaurant_id = ? AND table_number = ?", in.RestaurantID, in.TableNumber).
			First(&table).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("table %s: %w", in.TableNumber, ErrNotFound)
			}
			return err
		}

		// 2. Idempotency short-circuit, SEBELUM sesi & rate limit: retry dari
		// sesi yang keburu expired tetap harus sukses kalau aslinya sukses.
		if in.IdempotencyKey != "" {
			var existing models.Order
			err := tx.Where("restaurant_id = ? AND idempotency_key = ?", in.RestaurantID, in.IdempotencyKey).
				First(&existing).Error
			if err == nil {
				orderID = existing.ID
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		var restaurant models.Restaurant
		if err := tx.First(&restaurant, in.RestaurantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("restaurant %d: %w", in.RestaurantID, ErrNotFound)
			}
			return err
		}

		// 3. Validasi sesi (hard gate)
		if _, err := s.sessions.ValidateSessionInternal(tx, &restaurant, &table, in.SessionToken); err != nil {
			return err
		}

		// 4. Rate limit per session token
		if err := s.limiter.Check(tx, in.SessionToken, ActionCreateOrder, CreateOrderLimit, CreateOrderWindow); err != nil {
			return err
		}

		// 5. Cart kosong ditolak
		if len(in.Items) == 0 {
			return fmt.Errorf("cart is empty: %w", ErrValidation)
		}

		// 6. Pastikan meja occupied (patch idempotent)
		if table.Status != TableStatusOccupied {
			if err := tx.Model(&table).Update("status", TableStatusOccupied).Error; err != nil {
				return err
			}
		}

		// 7. Append-or-create: item baru bergabung ke order pending yang ada
		var order models.Order
		err := tx.Where("table_id = ? AND status = ? AND archived = ?", table.ID, OrderStatusPending, false).
			First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			status := OrderStatusPending
			if restaurant.RequireOrderApproval {
				status = OrderStatusNeedsApproval
			}
			order = models.Order{
				RestaurantID: in.RestaurantID,
				TableID:      table.ID,
				CustomerID:   in.CustomerID,
				Status:       status,
				TotalAmount:  decimal.Zero,
			}
			if in.IdempotencyKey != "" {
				key := in.IdempotencyKey
				order.IdempotencyKey = &key
			}
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		// 8. Validasi & insert tiap item, hitung line total
		added := decimal.Zero
		for _, item := range in.Items {
			lineTotal, err := s.insertOrderItem(tx, &restaurant, order.ID, item)
			if err != nil {
				return err
			}
			added = added.Add(lineTotal)
		}

		// 9. Patch total = prior total + jumlah line total baru
		if err := tx.Model(&order).Update("total_amount", order.TotalAmount.Add(added)).Error; err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.broadcastOrder(orderID)
	return orderID, nil
}

// insertOrderItem memvalidasi satu item request dan menulis baris
// OrderItem + modifier-nya. Mengembalikan line total.
func (s *OrderService) insertOrderItem(tx *gorm.DB, restaurant *models.Restaurant, orderID uint, item OrderItemRequest) (decimal.Decimal, error) {
	if item.Quantity < 1 || item.Quantity > 99 {
		return decimal.Zero, fmt.Errorf("quantity must be between 1 and 99: %w", ErrValidation)
	}

	var menuItem models.MenuItem
	if err := tx.First(&menuItem, item.MenuItemID).Error; err != nil {
		return decimal.Zero, fmt.Errorf("menu item %d not found: %w", item.MenuItemID, ErrValidation)
	}
	if menuItem.RestaurantID != restaurant.ID || !menuItem.Available {
		return decimal.Zero, fmt.Errorf("menu item %d not available: %w", item.MenuItemID, ErrValidation)
	}

	lineTotal := menuItem.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))

	type resolvedModifier struct {
		modifier models.Modifier
		quantity int
	}
	resolved := make([]resolvedModifier, 0, len(item.Modifiers))
	for _, mod := range item.Modifiers {
		qty := mod.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 1 || qty > 99 {
			return decimal.Zero, fmt.Errorf("modifier quantity must be between 1 and 99: %w", ErrValidation)
		}
		var modifier models.Modifier
		if err := tx.First(&modifier, mod.ModifierID).Error; err != nil {
			return decimal.Zero, fmt.Errorf("modifier %d not found: %w", mod.ModifierID, ErrValidation)
		}
		if modifier.RestaurantID != restaurant.ID || !modifier.Available {
			return decimal.Zero, fmt.Errorf("modifier %d not available: %w", mod.ModifierID, ErrValidation)
		}
		lineTotal = lineTotal.Add(modifier.Price.Mul(decimal.NewFromInt(int64(qty))))
		resolved = append(resolved, resolvedModifier{modifier: modifier, quantity: qty})
	}

	orderItem := models.OrderItem{
		OrderID:    orderID,
		MenuItemID: menuItem.ID,
		Quantity:   item.Quantity,
		UnitPrice:  menuItem.Price,
		LineTotal:  lineTotal,
		Notes:      item.Notes,
	}
	if err := tx.Create(&orderItem).Error; err != nil {
		return decimal.Zero, err
	}

	for _, rm := range resolved {
		row := models.OrderItemModifier{
			OrderItemID: orderItem.ID,
			ModifierID:  rm.modifier.ID,
			Quantity:    rm.quantity,
			Price:       rm.modifier.Price,
		}
		if err := tx.Create(&row).Error; err != nil {
			return decimal.Zero, err
		}
	}

	return lineTotal, nil
}

// ApproveOrder: needs_approval -> pending. Status lain = Conflict.
func (s *OrderService) ApproveOrder(orderID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
			}
			return err
		}
		if order.Status != OrderStatusNeedsApproval {
			return fmt.Errorf("order %d is %s, not needs_approval: %w", orderID, order.Status, ErrConflict)
		}
		return tx.Model(&order).Update("status", OrderStatusPending).Error
	})
	if err != nil {
		return err
	}
	s.broadcastOrder(orderID)
	return nil
}

// RejectOrder: needs_approval -> cancelled, dan meja dibebaskan karena
// dapur belum mulai kerja sama sekali.
func (s *OrderService) RejectOrder(orderID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
			}
			return err
		}
		if order.Status != OrderStatusNeedsApproval {
			return fmt.Errorf("order %d is %s, not needs_approval: %w", orderID, order.Status, ErrConflict)
		}
		if err := tx.Model(&order).Update("status", OrderStatusCancelled).Error; err != nil {
			return err
		}
		return s.setTableStatusTx(tx, order.TableID, TableStatusFree)
	})
	if err != nil {
		return err
	}
	s.broadcastOrder(orderID)
	return nil
}

// UpdateOrderStatus mentransisikan order ke salah satu status staff-driven.
// Side effect: paid -> meja dirty (perlu dibersihkan); cancelled -> meja free.
func (s *OrderService) UpdateOrderStatus(orderID uint, status string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.applyStatus(tx, orderID, status)
	})
	if err != nil {
		return err
	}
	s.broadcastOrder(orderID)
	return nil
}

// UpdateBatchOrderStatus menerapkan satu status ke banyak order dalam satu
// transaksi; satu order gagal berarti seluruh batch batal.
func (s *OrderService) UpdateBatchOrderStatus(orderIDs []uint, status string) error {
	if len(orderIDs) == 0 {
		return fmt.Errorf("no order ids: %w", ErrValidation)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, id := range orderIDs {
			if err := s.applyStatus(tx, id, status); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, id := range orderIDs {
		s.broadcastOrder(id)
	}
	return nil
}

func (s *OrderService) applyStatus(tx *gorm.DB, orderID uint, status string) error {
	if !updatableStatuses[status] {
		return fmt.Errorf("unknown order status %q: %w", status, ErrValidation)
	}

	// Re-fetch di dalam transaksi, jangan percaya nilai yang dibaca di luar
	var order models.Order
	if err := tx.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		return err
	}

	if err := tx.Model(&order).Update("status", status).Error; err != nil {
		return err
	}

	switch status {
	case OrderStatusPaid:
		return s.setTableStatusTx(tx, order.TableID, TableStatusDirty)
	case OrderStatusCancelled:
		if FreeTableOnCancel {
			return s.setTableStatusTx(tx, order.TableID, TableStatusFree)
		}
	}
	return nil
}

// CancelOrder memaksa cancelled dari status apapun dan membebaskan meja.
func (s *OrderService) CancelOrder(orderID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
			}
			return err
		}
		if err := tx.Model(&order).Update("status", OrderStatusCancelled).Error; err != nil {
			return err
		}
		if FreeTableOnCancel {
			return s.setTableStatusTx(tx, order.TableID, TableStatusFree)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.broadcastOrder(orderID)
	return nil
}

// ArchiveAndClearTable: arsipkan order paid/cancelled meja, expire sesi
// aktifnya, reset meja ke free. Dipanggil staff setelah bussing.
func (s *OrderService) ArchiveAndClearTable(tableID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, tableID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("table %d: %w", tableID, ErrNotFound)
			}
			return err
		}

		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status IN ? AND archived = ?",
				tableID, []string{OrderStatusPaid, OrderStatusCancelled}, false).
			Update("archived", true).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.TableSession{}).
			Where("table_id = ? AND status = ?", tableID, SessionStatusActive).
			Update("status", SessionStatusExpired).Error; err != nil {
			return err
		}

		return tx.Model(&table).Update("status", TableStatusFree).Error
	})
	if err != nil {
		return err
	}
	s.broadcastTable(tableID)
	return nil
}

// SetTableStatus adalah reset manual oleh staff. Men-set free mengarsipkan
// SEMUA order meja yang belum diarsip, apapun statusnya (aksi konsistensi
// bulk), dan meng-expire sesi aktifnya.
func (s *OrderService) SetTableStatus(tableID uint, status string) error {
	if !tableStatuses[status] {
		return fmt.Errorf("unknown table status %q: %w", status, ErrValidation)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var table models.Table
		if err := tx.First(&table, tableID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("table %d: %w", tableID, ErrNotFound)
			}
			return err
		}

		if status == TableStatusFree {
			if err := tx.Model(&models.Order{}).
				Where("table_id = ? AND archived = ?", tableID, false).
				Update("archived", true).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.TableSession{}).
				Where("table_id = ? AND status = ?", tableID, SessionStatusActive).
				Update("status", SessionStatusExpired).Error; err != nil {
				return err
			}
		}

		return tx.Model(&table).Update("status", status).Error
	})
	if err != nil {
		return err
	}
	s.broadcastTable(tableID)
	return nil
}

// ArchiveAllCompletedOrders adalah sweep global (cron): semua order
// paid/cancelled yang belum diarsip diarsipkan, lalu meja yang sudah tidak
// punya order terbuka di-reset (sesi expired, meja free). Gagal per-entity
// hanya di-log dan di-skip.
func (s *OrderService) ArchiveAllCompletedOrders() (int, error) {
	var orders []models.Order
	if err := s.db.Where("status IN ? AND archived = ?",
		[]string{OrderStatusPaid, OrderStatusCancelled}, false).
		Find(&orders).Error; err != nil {
		return 0, err
	}

	archived := 0
	tables := make(map[uint]bool)
	for _, order := range orders {
		// Re-check kondisi di dalam UPDATE: order bisa saja sudah berubah
		// sejak dibaca di atas.
		res := s.db.Model(&models.Order{}).
			Where("id = ? AND status IN ? AND archived = ?",
				order.ID, []string{OrderStatusPaid, OrderStatusCancelled}, false).
			Update("archived", true)
		if res.Error != nil {
			utils.ErrorLogger.Printf("Archive sweep: failed to archive order %d: %v", order.ID, res.Error)
			continue
		}
		if res.RowsAffected > 0 {
			archived++
			tables[order.TableID] = true
		}
	}

	for tableID := range tables {
		if err := s.clearTableIfIdle(tableID); err != nil {
			utils.ErrorLogger.Printf("Archive sweep: failed to clear table %d: %v", tableID, err)
		}
	}

	if archived > 0 {
		utils.InfoLogger.Printf("Archive sweep: archived %d completed orders", archived)
	}
	return archived, nil
}

// clearTableIfIdle membebaskan meja hanya kalau tidak ada lagi order terbuka.
func (s *OrderService) clearTableIfIdle(tableID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND archived = ?", tableID, false).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return nil
		}
		if err := tx.Model(&models.TableSession{}).
			Where("table_id = ? AND status = ?", tableID, SessionStatusActive).
			Update("status", SessionStatusExpired).Error; err != nil {
			return err
		}
		return tx.Model(&models.Table{}).
			Where("id = ?", tableID).
			Update("status", TableStatusFree).Error
	})
}

func (s *OrderService) setTableStatusTx(tx *gorm.DB, tableID uint, status string) error {
	var table models.Table
	if err := tx.First(&table, tableID).Error; err != nil {
		return err
	}
	return tx.Model(&table).Update("status", status).Error
}

// broadcastOrder menyiarkan snapshot order ke dashboard staff via kds hub.
// Best effort, tidak pernah menggagalkan request path.
func (s *OrderService) broadcastOrder(orderID uint) {
	var order models.Order
	if err := s.db.Preload("OrderItems").Preload("OrderItems.Modifiers").First(&order, orderID).Error; err != nil {
		return
	}
	kds.BroadcastOrderUpdate(order)

	if order.Status == OrderStatusNeedsApproval {
		var restaurant models.Restaurant
		if err := s.db.First(&restaurant, order.RestaurantID).Error; err == nil {
			kds.BroadcastStaffNotification(fmt.Sprintf("Order %d awaiting approval (%s)",
				order.ID, utils.FormatAmount(order.TotalAmount, restaurant.Currency)))
		}
	}
}

func (s *OrderService) broadcastTable(tableID uint) {
	var table models.Table
	if err := s.db.First(&table, tableID).Error; err != nil {
		return
	}
	kds.BroadcastTableUpdate(table)
}
