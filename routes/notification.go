package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	notificationControllers "github.com/crazy-sam-02/foodexpress-sub001/controllers/notification"
	"github.com/crazy-sam-02/foodexpress-sub001/middleware"
	"github.com/crazy-sam-02/foodexpress-sub001/realtime"
)

// SetupNotificationRoutes registers the "/notifications/*" endpoints.
// Publishing is admin-only; reading and acknowledging require a JWT.
func SetupNotificationRoutes(r *gin.Engine, db *gorm.DB, hub *realtime.Hub) {
	r.POST("/notifications", middleware.ValidateAPIKey,
		notificationControllers.PublishNotificationHandler(db, hub)) // POST /notifications

	group := r.Group("/notifications")
	group.Use(middleware.ValidateToken)
	{
		group.GET("/:userId", notificationControllers.ListNotificationsHandler(db))            // GET /notifications/:userId
		group.POST("/:userId/read/:notifId", notificationControllers.MarkReadHandler(db))      // POST /notifications/:userId/read/:notifId
		group.POST("/:userId/read-all", notificationControllers.MarkAllReadHandler(db))        // POST /notifications/:userId/read-all
	}
}
