package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/services"
	"github.com/yeremiapane/qr-order-app/utils"
)

type OrderController struct {
	DB      *gorm.DB
	service *services.OrderService
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{DB: db, service: services.NewOrderService(db)}
}

// CreateOrder -> diner membuat order dari sesi meja yang valid.
// Idempotency key opsional supaya retry dari jaringan jelek aman.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		RestaurantID   uint                        `json:"restaurant_id" binding:"required"`
		TableNumber    string                      `json:"table_number" binding:"required"`
		SessionToken   string                      `json:"session_token" binding:"required"`
		Items          []services.OrderItemRequest `json:"items"`
		IdempotencyKey string                      `json:"idempotency_key"`
		CustomerID     *uint                       `json:"customer_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	orderID, err := oc.service.CreateOrder(services.CreateOrderInput{
		RestaurantID:   req.RestaurantID,
		TableNumber:    req.TableNumber,
		SessionToken:   req.SessionToken,
		Items:          req.Items,
		IdempotencyKey: req.IdempotencyKey,
		CustomerID:     req.CustomerID,
	})
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", gin.H{"order_id": orderID})
}

// GetAllOrders -> list order aktif (arsip tidak ikut)
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	var orders []models.Order
	if err := oc.DB.Preload("OrderItems").Preload("OrderItems.Modifiers").
		Where("archived = ?", false).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetOrderByID -> detail 1 order
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	idStr := c.Param("order_id")
	id, _ := strconv.Atoi(idStr)

	var order models.Order
	if err := oc.DB.Preload("OrderItems").Preload("OrderItems.Modifiers").
		First(&order, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// ApproveOrder -> needs_approval => pending
func (oc *OrderController) ApproveOrder(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))
	if err := oc.service.ApproveOrder(uint(id)); err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order approved", gin.H{"order_id": id})
}

// RejectOrder -> needs_approval => cancelled, meja dibebaskan
func (oc *OrderController) RejectOrder(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))
	if err := oc.service.RejectOrder(uint(id)); err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order rejected", gin.H{"order_id": id})
}

// UpdateOrderStatus -> staff menggeser order di workflow dapur/servis
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := oc.service.UpdateOrderStatus(uint(id), req.Status); err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", gin.H{"order_id": id, "status": req.Status})
}

// UpdateBatchOrderStatus -> satu status untuk banyak order sekaligus
func (oc *OrderController) UpdateBatchOrderStatus(c *gin.Context) {
	var req struct {
		OrderIDs []uint `json:"order_ids" binding:"required"`
		Status   string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := oc.service.UpdateBatchOrderStatus(req.OrderIDs, req.Status); err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Batch order status updated", gin.H{
		"order_ids": req.OrderIDs,
		"status":    req.Status,
	})
}

// CancelOrder -> paksa cancelled dari status apapun
func (oc *OrderController) CancelOrder(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("order_id"))
	if err := oc.service.CancelOrder(uint(id)); err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", gin.H{"order_id": id})
}

// GetKitchenDisplay khusus untuk Chef & Staff - overview dapur
func (oc *OrderController) GetKitchenDisplay(c *gin.Context) {
	role, _ := c.Get("role")
	if role != "chef" && role != "staff" && role != "admin" {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var orders []models.Order
	if err := oc.DB.Preload("OrderItems").
		Preload("OrderItems.MenuItem").
		Where("status IN ? AND archived = ?",
			[]string{services.OrderStatusPending, services.OrderStatusPreparing, services.OrderStatusReady}, false).
		Order("created_at asc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Kitchen display orders", orders)
}
