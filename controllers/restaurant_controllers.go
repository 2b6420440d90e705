package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/utils"
)

type RestaurantController struct {
	DB *gorm.DB
}

func NewRestaurantController(db *gorm.DB) *RestaurantController {
	return &RestaurantController{DB: db}
}

// CreateRestaurant -> provisioning restoran baru (admin)
func (rc *RestaurantController) CreateRestaurant(c *gin.Context) {
	var req struct {
		Name                  string `json:"name" binding:"required"`
		Slug                  string `json:"slug" binding:"required"`
		Currency              string `json:"currency"`
		SessionTimeoutMinutes int    `json:"session_timeout_minutes"`
		RequireOrderApproval  bool   `json:"require_order_approval"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	restaurant := models.Restaurant{
		Name:                  req.Name,
		Slug:                  req.Slug,
		AcceptingOrders:       true,
		SessionTimeoutMinutes: req.SessionTimeoutMinutes,
		Currency:              req.Currency,
		RequireOrderApproval:  req.RequireOrderApproval,
	}
	if restaurant.SessionTimeoutMinutes <= 0 {
		restaurant.SessionTimeoutMinutes = 20
	}
	if restaurant.Currency == "" {
		restaurant.Currency = "IDR"
	}

	if err := rc.DB.Create(&restaurant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Restaurant created", restaurant)
}

// GetRestaurant -> konfigurasi publik (accepting_orders, currency)
func (rc *RestaurantController) GetRestaurant(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("restaurant_id"))

	var restaurant models.Restaurant
	if err := rc.DB.First(&restaurant, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant detail", restaurant)
}

// UpdateRestaurant -> ubah flag accepting_orders, timeout sesi, dll
func (rc *RestaurantController) UpdateRestaurant(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("restaurant_id"))

	var restaurant models.Restaurant
	if err := rc.DB.First(&restaurant, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		Name                  *string `json:"name"`
		AcceptingOrders       *bool   `json:"accepting_orders"`
		SessionTimeoutMinutes *int    `json:"session_timeout_minutes"`
		Currency              *string `json:"currency"`
		RequireOrderApproval  *bool   `json:"require_order_approval"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		restaurant.Name = *req.Name
	}
	if req.AcceptingOrders != nil {
		restaurant.AcceptingOrders = *req.AcceptingOrders
	}
	if req.SessionTimeoutMinutes != nil {
		restaurant.SessionTimeoutMinutes = *req.SessionTimeoutMinutes
	}
	if req.Currency != nil {
		restaurant.Currency = *req.Currency
	}
	if req.RequireOrderApproval != nil {
		restaurant.RequireOrderApproval = *req.RequireOrderApproval
	}

	if err := rc.DB.Save(&restaurant).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant updated", restaurant)
}
