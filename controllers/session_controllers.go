package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/services"
	"github.com/yeremiapane/qr-order-app/utils"
)

type SessionController struct {
	DB      *gorm.DB
	service *services.SessionService
}

func NewSessionController(db *gorm.DB) *SessionController {
	return &SessionController{DB: db, service: services.NewSessionService(db)}
}

// ScanTable -> diner scan QR meja, buat/join sesi
func (sc *SessionController) ScanTable(c *gin.Context) {
	var req struct {
		RestaurantID uint     `json:"restaurant_id" binding:"required"`
		TableNumber  string   `json:"table_number" binding:"required"`
		SessionToken string   `json:"session_token"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	result, err := sc.service.CreateTableSession(req.RestaurantID, req.TableNumber, req.SessionToken, req.Latitude, req.Longitude)
	if err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table session", result)
}

// RefreshSession -> perpanjang sesi; gagal soft, bukan error HTTP
func (sc *SessionController) RefreshSession(c *gin.Context) {
	var req struct {
		SessionToken string `json:"session_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	check := sc.service.RefreshSession(req.SessionToken)
	utils.RespondJSON(c, http.StatusOK, "Session refresh", check)
}

// HeartbeatSession -> bump last_activity_at saja
func (sc *SessionController) HeartbeatSession(c *gin.Context) {
	var req struct {
		SessionToken string `json:"session_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	check := sc.service.HeartbeatSession(req.SessionToken)
	utils.RespondJSON(c, http.StatusOK, "Session heartbeat", check)
}

// GetSessionStatus -> status sesi read-only (expiry dihitung lazy)
func (sc *SessionController) GetSessionStatus(c *gin.Context) {
	token := c.Param("token")
	info := sc.service.GetSessionStatus(token)
	utils.RespondJSON(c, http.StatusOK, "Session status", info)
}
