package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/kds"
	"github.com/yeremiapane/qr-order-app/models"
	"github.com/yeremiapane/qr-order-app/services"
	"github.com/yeremiapane/qr-order-app/utils"
)

type TableController struct {
	DB      *gorm.DB
	service *services.OrderService
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db, service: services.NewOrderService(db)}
}

// CreateTable -> staff menambahkan meja baru untuk restorannya
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		RestaurantID uint   `json:"restaurant_id" binding:"required"`
		TableNumber  string `json:"table_number" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		RestaurantID: req.RestaurantID,
		TableNumber:  req.TableNumber,
		Status:       services.TableStatusFree,
	}
	if err := tc.DB.Create(&table).Error; err != nil {
		// Nomor meja duplikat dalam satu restoran
		if strings.Contains(strings.ToLower(err.Error()), "unique") ||
			strings.Contains(strings.ToLower(err.Error()), "duplicate") {
			utils.RespondError(c, http.StatusConflict, fmt.Errorf("table number %s already exists", req.TableNumber))
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	kds.BroadcastTableCreate(table)
	utils.InfoLogger.Printf("New table created: %s (restaurant_id=%d)", table.TableNumber, table.RestaurantID)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> menampilkan seluruh meja
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	query := tc.DB
	if rid := c.Query("restaurant_id"); rid != "" {
		query = query.Where("restaurant_id = ?", rid)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID -> detail satu meja
func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID := c.Param("table_id")
	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// UpdateTableStatus -> reset manual oleh staff. Set "free" mengarsipkan
// semua order meja dan meng-expire sesinya (bulk consistency action).
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := tc.service.SetTableStatus(uint(id), body.Status); err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}

	utils.InfoLogger.Printf("Table %d status changed to %s", id, body.Status)
	utils.RespondJSON(c, http.StatusOK, "Table status updated", gin.H{"table_id": id, "status": body.Status})
}

// ArchiveAndClearTable -> arsip order selesai, expire sesi, meja => free
func (tc *TableController) ArchiveAndClearTable(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))
	if err := tc.service.ArchiveAndClearTable(uint(id)); err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table archived and cleared", gin.H{"table_id": id})
}

// DeleteTable -> hapus meja yang sudah tidak dipakai. Hanya meja free
// yang boleh dihapus supaya tidak ada order/sesi yang kehilangan induk.
func (tc *TableController) DeleteTable(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("table_id"))

	var table models.Table
	if err := tc.DB.First(&table, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if table.Status != services.TableStatusFree {
		utils.RespondError(c, http.StatusConflict, fmt.Errorf("table %s is %s, only free tables can be deleted", table.TableNumber, table.Status))
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	kds.BroadcastTableDelete(table)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"table_id": table.ID})
}

// MarkTableClean untuk Cleaner menandai meja siap digunakan
func (tc *TableController) MarkTableClean(c *gin.Context) {
	roleInterface, _ := c.Get("role")
	if roleInterface != "cleaner" && roleInterface != "staff" && roleInterface != "admin" {
		utils.RespondError(c, http.StatusForbidden, ErrNoPermission)
		return
	}

	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if table.Status != services.TableStatusDirty {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("table is not dirty"))
		return
	}

	if err := tc.service.SetTableStatus(table.ID, services.TableStatusFree); err != nil {
		utils.RespondError(c, statusForError(err), err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table marked as clean", gin.H{"table_id": table.ID})
}
