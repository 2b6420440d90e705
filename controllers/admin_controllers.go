package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/services"
	"github.com/yeremiapane/qr-order-app/utils"
)

type AdminController struct {
	DB *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{DB: db}
}

// GetDashboardStats -> ringkasan okupansi meja, sesi aktif, dan order terbuka
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	roleInterface, _ := c.Get("role")
	if roleInterface != "admin" && roleInterface != "staff" {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	var freeCount, occupiedCount, paymentCount, dirtyCount int64
	ac.DB.Model(&models.Table{}).Where("status = ?", services.TableStatusFree).Count(&freeCount)
	ac.DB.Model(&models.Table{}).Where("status = ?", services.TableStatusOccupied).Count(&occupiedCount)
	ac.DB.Model(&models.Table{}).Where("status = ?", services.TableStatusPaymentPending).Count(&paymentCount)
	ac.DB.Model(&models.Table{}).Where("status = ?", services.TableStatusDirty).Count(&dirtyCount)

	var activeSessions int64
	ac.DB.Model(&models.TableSession{}).Where("status = ?", services.SessionStatusActive).Count(&activeSessions)

	var openOrders int64
	ac.DB.Model(&models.Order{}).Where("archived = ? AND status NOT IN ?",
		false, []string{services.OrderStatusPaid, services.OrderStatusCancelled}).Count(&openOrders)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", gin.H{
		"tables": gin.H{
			"free":            freeCount,
			"occupied":        occupiedCount,
			"payment_pending": paymentCount,
			"dirty":           dirtyCount,
			"total":           freeCount + occupiedCount + paymentCount + dirtyCount,
		},
		"active_sessions": activeSessions,
		"open_orders":     openOrders,
	})
}
