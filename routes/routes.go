package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crazy-sam-02/foodexpress-sub001/cache"
	"github.com/crazy-sam-02/foodexpress-sub001/realtime"
)

// SetupRoutes is the single entry-point that wires up the public, user, and
// admin route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, hub *realtime.Hub, cc *cache.CartCache) {
	// Public catalog + realtime push (no middleware)
	SetupProductRoutes(r, db)
	r.GET("/ws/notifications", hub.Handler)

	// User routes (JWT-protected)
	SetupCartRoutes(r, db, cc)
	SetupOrderRoutes(r, db, hub)
	SetupNotificationRoutes(r, db, hub)
}
