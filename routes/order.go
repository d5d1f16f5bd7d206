package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	orderControllers "github.com/crazy-sam-02/foodexpress-sub001/controllers/order"
	"github.com/crazy-sam-02/foodexpress-sub001/middleware"
	"github.com/crazy-sam-02/foodexpress-sub001/realtime"
)

// SetupOrderRoutes registers the "/orders/*" endpoints. Customer endpoints
// are JWT-protected; the admin surface is API-key-protected.
func SetupOrderRoutes(r *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	orders := r.Group("/orders")
	orders.Use(middleware.ValidateToken, middleware.EnsureUser(db))
	{
		orders.POST("/create", orderControllers.CreateOrderHandler(db, hub)) // POST /orders/create
		orders.GET("", orderControllers.GetUserOrdersHandler(db))            // GET /orders
		orders.GET("/:id", orderControllers.GetOrderByIDHandler(db))         // GET /orders/:id
	}

	admin := r.Group("/orders/admin")
	admin.Use(middleware.ValidateAPIKey)
	{
		admin.GET("/all", orderControllers.GetAllOrdersHandler(db))               // GET /orders/admin/all
		admin.PUT("/:id/status", orderControllers.UpdateOrderStatusHandler(db))   // PUT /orders/admin/:id/status
		admin.PATCH("/:id", orderControllers.UpdateOrderHandler(db))              // PATCH /orders/admin/:id
		admin.GET("/export", orderControllers.ExportOrdersToExcel(db))            // GET /orders/admin/export
	}

	stats := r.Group("/orders/stats")
	stats.Use(middleware.ValidateAPIKey)
	{
		stats.GET("/summary", orderControllers.StatsHandler(db)) // GET /orders/stats/summary
	}
}
