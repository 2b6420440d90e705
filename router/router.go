package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-order-app/controllers"
	"github.com/yeremiapane/qr-order-app/middlewares"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	// Apply security middlewares
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(db)
	restaurantCtrl := controllers.NewRestaurantController(db)
	tableCtrl := controllers.NewTableController(db)
	sessionCtrl := controllers.NewSessionController(db)
	customerCtrl := controllers.NewCustomerController(db)
	categoryCtrl := controllers.NewMenuCategoryController(db)
	menuCtrl := controllers.NewMenuController(db)
	orderCtrl := controllers.NewOrderController(db)
	adminCtrl := controllers.NewAdminController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Rate limiter untuk login/register
	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// -- DINER (tanpa auth, hanya butuh sesi meja) --
	r.GET("/restaurants/:restaurant_id", restaurantCtrl.GetRestaurant)
	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/menus", menuCtrl.GetAllMenus)
	r.GET("/menus/:menu_id", menuCtrl.GetMenuByID)

	// Sesi meja: scan QR, refresh, heartbeat, status
	r.POST("/sessions", sessionCtrl.ScanTable)
	r.POST("/sessions/refresh", sessionCtrl.RefreshSession)
	r.POST("/sessions/heartbeat", sessionCtrl.HeartbeatSession)
	r.GET("/sessions/:token", sessionCtrl.GetSessionStatus)

	// Membuat order (diner, divalidasi lewat session token + rate limit
	// persisted per sesi; limiter IP di sini untuk burst anonim)
	diner := r.Group("/")
	diner.Use(middlewares.PersistedRateLimiter(db, "public_api", 120, time.Minute))
	{
		diner.POST("/orders", orderCtrl.CreateOrder)
		diner.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/users", userCtrl.GetAllUsers)

	// RESTAURANTS (admin)
	auth.POST("/restaurants", middlewares.RequireRoles(), restaurantCtrl.CreateRestaurant)
	auth.PATCH("/restaurants/:restaurant_id", middlewares.RequireRoles(), restaurantCtrl.UpdateRestaurant)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.PATCH("/tables/:table_id", tableCtrl.UpdateTableStatus)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
	auth.POST("/tables/:table_id/archive", tableCtrl.ArchiveAndClearTable)
	auth.PATCH("/tables/:table_id/clean", tableCtrl.MarkTableClean)

	// CUSTOMERS (staff/admin)
	auth.GET("/customers", customerCtrl.GetAllCustomers)
	auth.POST("/customers", customerCtrl.CreateCustomer)
	auth.GET("/customers/:customer_id", customerCtrl.GetCustomerByID)

	// MENU CATEGORIES (staff/admin)
	auth.POST("/categories", categoryCtrl.CreateCategory)
	auth.PATCH("/categories/:cat_id", categoryCtrl.UpdateCategory)
	auth.DELETE("/categories/:cat_id", categoryCtrl.DeleteCategory)

	// MENUS (staff/admin)
	auth.GET("/menus", menuCtrl.GetAllMenus)
	auth.POST("/menus", menuCtrl.CreateMenu)
	auth.GET("/menus/:menu_id", menuCtrl.GetMenuByID)
	auth.PATCH("/menus/:menu_id", menuCtrl.UpdateMenu)
	auth.DELETE("/menus/:menu_id", menuCtrl.DeleteMenu)
	auth.POST("/modifiers", menuCtrl.CreateModifier)

	// ORDERS (staff/admin): approval sub-flow + workflow dapur
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.POST("/orders/:order_id/approve", orderCtrl.ApproveOrder)
	auth.POST("/orders/:order_id/reject", orderCtrl.RejectOrder)
	auth.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	auth.PATCH("/batch/orders/status", orderCtrl.UpdateBatchOrderStatus)
	auth.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)

	// Routes untuk Chef
	auth.GET("/kitchen/display", orderCtrl.GetKitchenDisplay)

	// Routes untuk Admin
	auth.GET("/dashboard/stats", adminCtrl.GetDashboardStats)

	// WebSocket endpoint dengan middleware khusus
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/:role", controllers.KDSHandler)
	}

	return r
}
