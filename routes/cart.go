package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/crazy-sam-02/foodexpress-sub001/cache"
	cartControllers "github.com/crazy-sam-02/foodexpress-sub001/controllers/cart"
	"github.com/crazy-sam-02/foodexpress-sub001/middleware"
)

// SetupCartRoutes registers the "/cart/*" endpoints. Requires JWT middleware.
func SetupCartRoutes(r *gin.Engine, db *gorm.DB, cc *cache.CartCache) {
	cartGroup := r.Group("/cart")
	cartGroup.Use(middleware.ValidateToken, middleware.EnsureUser(db))
	{
		cartGroup.GET("", cartControllers.GetCart(db, cc))                           // GET /cart
		cartGroup.POST("/add", cartControllers.AddToCart(db, cc))                    // POST /cart/add
		cartGroup.PUT("/update/:entryId", cartControllers.UpdateCartItem(db, cc))    // PUT /cart/update/:entryId
		cartGroup.DELETE("/remove/:entryId", cartControllers.RemoveCartItem(db, cc)) // DELETE /cart/remove/:entryId
		cartGroup.DELETE("/clear", cartControllers.ClearUserCart(db, cc))            // DELETE /cart/clear
	}
}
