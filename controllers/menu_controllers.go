package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetAllMenus -> katalog untuk diner (hanya yang available)
func (mc *MenuController) GetAllMenus(c *gin.Context) {
	var items []models.MenuItem
	query := mc.DB.Preload("Category")
	if rid := c.Query("restaurant_id"); rid != "" {
		query = query.Where("restaurant_id = ?", rid)
	}
	if cat := c.Query("category_id"); cat != "" {
		query = query.Where("category_id = ?", cat)
	}
	if err := query.Where("available = ?", true).Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menus", items)
}

// GetMenuByID -> detail 1 menu beserta modifier-nya
func (mc *MenuController) GetMenuByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("menu_id"))

	var item models.MenuItem
	if err := mc.DB.Preload("Category").First(&item, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var modifiers []models.Modifier
	mc.DB.Where("menu_item_id = ? AND available = ?", item.ID, true).Find(&modifiers)

	utils.RespondJSON(c, http.StatusOK, "Menu detail", gin.H{
		"menu":      item,
		"modifiers": modifiers,
	})
}

// CreateMenu -> staff menambahkan menu item
func (mc *MenuController) CreateMenu(c *gin.Context) {
	var req struct {
		RestaurantID uint            `json:"restaurant_id" binding:"required"`
		CategoryID   uint            `json:"category_id" binding:"required"`
		Name         string          `json:"name" binding:"required"`
		Price        decimal.Decimal `json:"price"`
		Description  string          `json:"description"`
		ImageUrl     *string         `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item := models.MenuItem{
		RestaurantID: req.RestaurantID,
		CategoryID:   req.CategoryID,
		Name:         req.Name,
		Price:        req.Price,
		Available:    true,
		Description:  req.Description,
		ImageUrl:     req.ImageUrl,
	}
	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New menu item created: %s (restaurant_id=%d)", item.Name, item.RestaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Menu created", item)
}

// UpdateMenu -> update harga/availability/deskripsi
func (mc *MenuController) UpdateMenu(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("menu_id"))

	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var req struct {
		Name        *string          `json:"name"`
		Price       *decimal.Decimal `json:"price"`
		Available   *bool            `json:"available"`
		Description *string          `json:"description"`
		CategoryID  *uint            `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.CategoryID != nil {
		item.CategoryID = *req.CategoryID
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu updated", item)
}

// DeleteMenu -> soft: tandai tidak available supaya order lama tetap valid
func (mc *MenuController) DeleteMenu(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("menu_id"))

	if err := mc.DB.Model(&models.MenuItem{}).Where("id = ?", id).
		Update("available", false).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu disabled", gin.H{"menu_id": id})
}

// CreateModifier -> staff menambahkan modifier untuk menu item
func (mc *MenuController) CreateModifier(c *gin.Context) {
	var req struct {
		RestaurantID uint            `json:"restaurant_id" binding:"required"`
		MenuItemID   *uint           `json:"menu_item_id"`
		Name         string          `json:"name" binding:"required"`
		Price        decimal.Decimal `json:"price"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	modifier := models.Modifier{
		RestaurantID: req.RestaurantID,
		MenuItemID:   req.MenuItemID,
		Name:         req.Name,
		Price:        req.Price,
		Available:    true,
	}
	if err := mc.DB.Create(&modifier).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Modifier created", modifier)
}
