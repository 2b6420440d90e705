package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/models"
)

func orderInput(restaurant models.Restaurant, table models.Table, token string, items []OrderItemRequest) CreateOrderInput {
	return CreateOrderInput{
		RestaurantID: restaurant.ID,
		TableNumber:  table.TableNumber,
		SessionToken: token,
		Items:        items,
	}
}

func TestCreateOrderHappyPath(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, burger, fries := seedDiningRoom(t, db)
	seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	svc := NewOrderService(db)

	orderID, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
		{MenuItemID: burger.ID, Quantity: 2},
		{MenuItemID: fries.ID, Quantity: 1, Notes: "no salt"},
	}))
	assert.NoError(t, err)
	assert.NotZero(t, orderID)

	var order models.Order
	assert.NoError(t, db.Preload("OrderItems").First(&order, orderID).Error)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("23.50")),
		"expected 23.50, got %s", order.TotalAmount)
	assert.Len(t, order.OrderItems, 2)

	var reloaded models.Table
	assert.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.Equal(t, TableStatusOccupied, reloaded.Status)
}

func TestCreateOrderAppendsToOpenBill(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, burger, fries := seedDiningRoom(t, db)
	seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	svc := NewOrderService(db)

	firstID, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
		{MenuItemID: burger.ID, Quantity: 2},
		{MenuItemID: fries.ID, Quantity: 1},
	}))
	assert.NoError(t, err)

	// Pesanan susulan dari meja yang sama bergabung ke bill yang sama
	secondID, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
		{MenuItemID: fries.ID, Quantity: 2},
	}))
	assert.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	var order models.Order
	assert.NoError(t, db.Preload("OrderItems").First(&order, firstID).Error)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("30.50")),
		"expected 30.50, got %s", order.TotalAmount)
	assert.Len(t, order.OrderItems, 3)

	var count int64
	db.Model(&models.Order{}).Where("table_id = ?", table.ID).Count(&count)
	assert.Equal(t, int64(1), count, "follow-up items must not open a second order")
}

func TestCreateOrderIdempotencyKeyShortCircuits(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, burger, _ := seedDiningRoom(t, db)
	session := seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	svc := NewOrderService(db)

	in := orderInput(restaurant, table, "tok-1", []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}})
	in.IdempotencyKey = "retry-abc"

	firstID, err := svc.CreateOrder(in)
	assert.NoError(t, err)

	// Retry dengan key sama mengembalikan order yang sama tanpa item ganda,
	// bahkan setelah sesinya keburu expired
	backdateSession(t, db, session.ID, restaurant.SessionTimeout()+time.Minute)
	retryID, err := svc.CreateOrder(in)
	assert.NoError(t, err)
	assert.Equal(t, firstID, retryID)

	var items int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", firstID).Count(&items)
	assert.Equal(t, int64(1), items)

	var order models.Order
	assert.NoError(t, db.First(&order, firstID).Error)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("10.00")))
}

func TestCreateOrderRejectsEmptyCart(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, _, _ := seedDiningRoom(t, db)
	seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	svc := NewOrderService(db)

	_, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", nil))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderRejectsBadQuantityAndRollsBack(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, burger, _ := seedDiningRoom(t, db)
	seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	svc := NewOrderService(db)

	for _, qty := range []int{0, -1, 100} {
		_, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
			{MenuItemID: burger.ID, Quantity: qty},
		}))
		assert.ErrorIs(t, err, ErrValidation, "quantity %d must be rejected", qty)
	}

	// Item valid + item invalid dalam satu cart: seluruh transaksi rollback
	_, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
		{MenuItemID: burger.ID, Quantity: 1},
		{MenuItemID: burger.ID, Quantity: 100},
	}))
	assert.ErrorIs(t, err, ErrValidation)

	var orders int64
	db.Model(&models.Order{}).Count(&orders)
	assert.Equal(t, int64(0), orders, "failed create must leave no partial rows")
}

func TestCreateOrderRejectsUnavailableMenu(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, burger, _ := seedDiningRoom(t, db)
	seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	svc := NewOrderService(db)

	assert.NoError(t, db.Model(&models.MenuItem{}).Where("id = ?", burger.ID).
		Update("available", false).Error)

	_, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
		{MenuItemID: burger.ID, Quantity: 1},
	}))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
		{MenuItemID: 9999, Quantity: 1},
	}))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateOrderSessionGate(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, burger, _ := seedDiningRoom(t, db)
	svc := NewOrderService(db)

	items := []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}}

	// Tidak ada sesi aktif sama sekali
	_, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", items))
	assert.ErrorIs(t, err, ErrUnauthorized)

	session := seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")

	// Token milik device lain
	_, err = svc.CreateOrder(orderInput(restaurant, table, "tok-other", items))
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Sesi melewati timeout restoran
	backdateSession(t, db, session.ID, restaurant.SessionTimeout()+time.Minute)
	_, err = svc.CreateOrder(orderInput(restaurant, table, "tok-1", items))
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestCreateOrderRateLimited(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, burger, _ := seedDiningRoom(t, db)
	seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	svc := NewOrderService(db)

	// Counter sudah berada di limit
	record := models.RateLimitRecord{
		Identifier: "tok-1",
		Action:     ActionCreateOrder,
		Count:      CreateOrderLimit,
		ExpiresAt:  time.Now().Add(time.Minute),
	}
	assert.NoError(t, db.Create(&record).Error)

	_, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
		{MenuItemID: burger.ID, Quantity: 1},
	}))
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestCreateOrderWithModifiers(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, burger, _ := seedDiningRoom(t, db)
	seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	svc := NewOrderService(db)

	cheese := models.Modifier{
		RestaurantID: restaurant.ID,
		MenuItemID:   &burger.ID,
		Name:         "Extra Cheese",
		Price:        decimal.RequireFromString("1.50"),
		Available:    true,
	}
	assert.NoError(t, db.Create(&cheese).Error)

	orderID, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
		{
			MenuItemID: burger.ID,
			Quantity:   2,
			Modifiers:  []OrderModifierRequest{{ModifierID: cheese.ID}},
		},
	}))
	assert.NoError(t, err)

	// 2 x 10.00 + 1 x 1.50
	var order models.Order
	assert.NoError(t, db.First(&order, orderID).Error)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("21.50")),
		"expected 21.50, got %s", order.TotalAmount)

	var rows int64
	db.Model(&models.OrderItemModifier{}).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestCreateOrderNeedsApprovalFlow(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, burger, _ := seedDiningRoom(t, db)
	assert.NoError(t, db.Model(&models.Restaurant{}).Where("id = ?", restaurant.ID).
		Update("require_order_approval", true).Error)
	restaurant.RequireOrderApproval = true
	seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	svc := NewOrderService(db)

	orderID, err := svc.CreateOrder(orderInput(restaurant, table, "tok-1", []OrderItemRequest{
		{MenuItemID: burger.ID, Quantity: 1},
	}))
	assert.NoError(t, err)

	var order models.Order
	assert.NoError(t, db.First(&order, orderID).Error)
	assert.Equal(t, OrderStatusNeedsApproval, order.Status)

	assert.NoError(t, svc.ApproveOrder(orderID))
	assert.NoError(t, db.First(&order, orderID).Error)
	assert.Equal(t, OrderStatusPending, order.Status)

	// Approve kedua kali: status sudah bukan needs_approval
	assert.ErrorIs(t, svc.ApproveOrder(orderID), ErrConflict)
	assert.ErrorIs(t, svc.ApproveOrder(9999), ErrNotFound)
}

func TestRejectOrderFreesTable(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, _, _ := seedDiningRoom(t, db)
	svc := NewOrderService(db)

	order := models.Order{
		RestaurantID: restaurant.ID,
		TableID:      table.ID,
		Status:       OrderStatusNeedsApproval,
		TotalAmount:  decimal.RequireFromString("10.00"),
	}
	assert.NoError(t, db.Create(&order).Error)
	assert.NoError(t, db.Model(&models.Table{}).Where("id = ?", table.ID).
		Update("status", TableStatusOccupied).Error)

	assert.NoError(t, svc.RejectOrder(order.ID))

	var reloadedOrder models.Order
	var reloadedTable models.Table
	assert.NoError(t, db.First(&reloadedOrder, order.ID).Error)
	assert.NoError(t, db.First(&reloadedTable, table.ID).Error)
	assert.Equal(t, OrderStatusCancelled, reloadedOrder.Status)
	assert.Equal(t, TableStatusFree, reloadedTable.Status)

	// Reject hanya sah dari needs_approval
	assert.ErrorIs(t, svc.RejectOrder(order.ID), ErrConflict)
}

func TestUpdateOrderStatusSideEffects(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, _, _ := seedDiningRoom(t, db)
	svc := NewOrderService(db)

	order := models.Order{
		RestaurantID: restaurant.ID,
		TableID:      table.ID,
		Status:       OrderStatusPending,
		TotalAmount:  decimal.RequireFromString("10.00"),
	}
	assert.NoError(t, db.Create(&order).Error)
	assert.NoError(t, db.Model(&models.Table{}).Where("id = ?", table.ID).
		Update("status", TableStatusOccupied).Error)

	// Workflow dapur tanpa side effect meja
	for _, status := range []string{OrderStatusPreparing, OrderStatusReady, OrderStatusServed} {
		assert.NoError(t, svc.UpdateOrderStatus(order.ID, status))
		var reloaded models.Table
		assert.NoError(t, db.First(&reloaded, table.ID).Error)
		assert.Equal(t, TableStatusOccupied, reloaded.Status)
	}

	// paid -> meja dirty
	assert.NoError(t, svc.UpdateOrderStatus(order.ID, OrderStatusPaid))
	var dirty models.Table
	assert.NoError(t, db.First(&dirty, table.ID).Error)
	assert.Equal(t, TableStatusDirty, dirty.Status)

	// cancelled -> meja free
	assert.NoError(t, svc.UpdateOrderStatus(order.ID, OrderStatusCancelled))
	var free models.Table
	assert.NoError(t, db.First(&free, table.ID).Error)
	assert.Equal(t, TableStatusFree, free.Status)

	// Status tidak dikenal dan target yang tidak bisa di-set staff
	assert.ErrorIs(t, svc.UpdateOrderStatus(order.ID, "cooked"), ErrValidation)
	assert.ErrorIs(t, svc.UpdateOrderStatus(order.ID, OrderStatusNeedsApproval), ErrValidation)
	assert.ErrorIs(t, svc.UpdateOrderStatus(9999, OrderStatusPaid), ErrNotFound)
}

func TestUpdateBatchOrderStatusAllOrNothing(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, _, _ := seedDiningRoom(t, db)
	svc := NewOrderService(db)

	order := models.Order{
		RestaurantID: restaurant.ID,
		TableID:      table.ID,
		Status:       OrderStatusPending,
		TotalAmount:  decimal.Zero,
	}
	assert.NoError(t, db.Create(&order).Error)

	// Satu ID tidak ada: seluruh batch rollback
	err := svc.UpdateBatchOrderStatus([]uint{order.ID, 9999}, OrderStatusPreparing)
	assert.ErrorIs(t, err, ErrNotFound)

	var reloaded models.Order
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, OrderStatusPending, reloaded.Status, "partial batch must not stick")

	assert.ErrorIs(t, svc.UpdateBatchOrderStatus(nil, OrderStatusPreparing), ErrValidation)

	assert.NoError(t, svc.UpdateBatchOrderStatus([]uint{order.ID}, OrderStatusPreparing))
	assert.NoError(t, db.First(&reloaded, order.ID).Error)
	assert.Equal(t, OrderStatusPreparing, reloaded.Status)
}

func TestArchiveAndClearTable(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, _, _ := seedDiningRoom(t, db)
	svc := NewOrderService(db)

	paid := models.Order{RestaurantID: restaurant.ID, TableID: table.ID, Status: OrderStatusPaid, TotalAmount: decimal.Zero}
	pending := models.Order{RestaurantID: restaurant.ID, TableID: table.ID, Status: OrderStatusPending, TotalAmount: decimal.Zero}
	assert.NoError(t, db.Create(&paid).Error)
	assert.NoError(t, db.Create(&pending).Error)
	session := seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	assert.NoError(t, db.Model(&models.Table{}).Where("id = ?", table.ID).
		Update("status", TableStatusDirty).Error)

	assert.NoError(t, svc.ArchiveAndClearTable(table.ID))

	var reloadedPaid, reloadedPending models.Order
	assert.NoError(t, db.First(&reloadedPaid, paid.ID).Error)
	assert.NoError(t, db.First(&reloadedPending, pending.ID).Error)
	assert.True(t, reloadedPaid.Archived)
	assert.False(t, reloadedPending.Archived, "open orders stay visible on bussing")

	var reloadedSession models.TableSession
	assert.NoError(t, db.First(&reloadedSession, session.ID).Error)
	assert.Equal(t, SessionStatusExpired, reloadedSession.Status)

	var reloadedTable models.Table
	assert.NoError(t, db.First(&reloadedTable, table.ID).Error)
	assert.Equal(t, TableStatusFree, reloadedTable.Status)

	assert.ErrorIs(t, svc.ArchiveAndClearTable(9999), ErrNotFound)
}

func TestSetTableStatusFreeArchivesEverything(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, _, _ := seedDiningRoom(t, db)
	svc := NewOrderService(db)

	pending := models.Order{RestaurantID: restaurant.ID, TableID: table.ID, Status: OrderStatusPending, TotalAmount: decimal.Zero}
	preparing := models.Order{RestaurantID: restaurant.ID, TableID: table.ID, Status: OrderStatusPreparing, TotalAmount: decimal.Zero}
	assert.NoError(t, db.Create(&pending).Error)
	assert.NoError(t, db.Create(&preparing).Error)
	session := seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")

	// Reset manual ke free mengarsipkan SEMUA order meja, apapun statusnya
	assert.NoError(t, svc.SetTableStatus(table.ID, TableStatusFree))

	var open int64
	db.Model(&models.Order{}).Where("table_id = ? AND archived = ?", table.ID, false).Count(&open)
	assert.Equal(t, int64(0), open)

	var reloadedSession models.TableSession
	assert.NoError(t, db.First(&reloadedSession, session.ID).Error)
	assert.Equal(t, SessionStatusExpired, reloadedSession.Status)

	assert.ErrorIs(t, svc.SetTableStatus(table.ID, "sparkling"), ErrValidation)

	// Status selain free tidak menyentuh order
	other := models.Order{RestaurantID: restaurant.ID, TableID: table.ID, Status: OrderStatusPending, TotalAmount: decimal.Zero}
	assert.NoError(t, db.Create(&other).Error)
	assert.NoError(t, svc.SetTableStatus(table.ID, TableStatusDirty))
	var stillOpen models.Order
	assert.NoError(t, db.First(&stillOpen, other.ID).Error)
	assert.False(t, stillOpen.Archived)
}

func TestArchiveAllCompletedOrdersSweep(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, _, _ := seedDiningRoom(t, db)
	svc := NewOrderService(db)

	tableBusy := models.Table{RestaurantID: restaurant.ID, TableNumber: "6", Status: TableStatusOccupied}
	assert.NoError(t, db.Create(&tableBusy).Error)

	// Meja 5: hanya order paid, harus bersih total setelah sweep
	paid := models.Order{RestaurantID: restaurant.ID, TableID: table.ID, Status: OrderStatusPaid, TotalAmount: decimal.Zero}
	assert.NoError(t, db.Create(&paid).Error)
	session := seedActiveSession(t, db, restaurant.ID, table.ID, "tok-1")
	assert.NoError(t, db.Model(&models.Table{}).Where("id = ?", table.ID).
		Update("status", TableStatusDirty).Error)

	// Meja 6: order cancelled + order pending, meja tetap occupied
	cancelled := models.Order{RestaurantID: restaurant.ID, TableID: tableBusy.ID, Status: OrderStatusCancelled, TotalAmount: decimal.Zero}
	stillPending := models.Order{RestaurantID: restaurant.ID, TableID: tableBusy.ID, Status: OrderStatusPending, TotalAmount: decimal.Zero}
	assert.NoError(t, db.Create(&cancelled).Error)
	assert.NoError(t, db.Create(&stillPending).Error)

	archived, err := svc.ArchiveAllCompletedOrders()
	assert.NoError(t, err)
	assert.Equal(t, 2, archived)

	var reloadedTable models.Table
	assert.NoError(t, db.First(&reloadedTable, table.ID).Error)
	assert.Equal(t, TableStatusFree, reloadedTable.Status)

	var reloadedSession models.TableSession
	assert.NoError(t, db.First(&reloadedSession, session.ID).Error)
	assert.Equal(t, SessionStatusExpired, reloadedSession.Status)

	var busy models.Table
	assert.NoError(t, db.First(&busy, tableBusy.ID).Error)
	assert.Equal(t, TableStatusOccupied, busy.Status, "table with open orders must not be cleared")

	var openOrder models.Order
	assert.NoError(t, db.First(&openOrder, stillPending.ID).Error)
	assert.False(t, openOrder.Archived)
}

func TestCancelOrderForcesCancelAndFreesTable(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, table, _, _ := seedDiningRoom(t, db)
	svc := NewOrderService(db)

	order := models.Order{RestaurantID: restaurant.ID, TableID: table.ID, Status: OrderStatusPreparing, TotalAmount: decimal.Zero}
	assert.NoError(t, db.Create(&order).Error)
	assert.NoError(t, db.Model(&models.Table{}).Where("id = ?", table.ID).
		Update("status", TableStatusOccupied).Error)

	assert.NoError(t, svc.CancelOrder(order.ID))

	var reloadedOrder models.Order
	assert.NoError(t, db.First(&reloadedOrder, order.ID).Error)
	assert.Equal(t, OrderStatusCancelled, reloadedOrder.Status)

	var reloadedTable models.Table
	assert.NoError(t, db.First(&reloadedTable, table.ID).Error)
	assert.Equal(t, TableStatusFree, reloadedTable.Status)
}

func TestCreateOrderUnknownTable(t *testing.T) {
	db := newServiceTestDB(t)
	restaurant, _, burger, _ := seedDiningRoom(t, db)
	svc := NewOrderService(db)

	_, err := svc.CreateOrder(CreateOrderInput{
		RestaurantID: restaurant.ID,
		TableNumber:  "nope",
		SessionToken: "tok-1",
		Items:        []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, gorm.ErrRecordNotFound, "service errors must not leak gorm internals")
}
