package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	productControllers "github.com/crazy-sam-02/foodexpress-sub001/controllers/product"
	"github.com/crazy-sam-02/foodexpress-sub001/middleware"
)

// SetupProductRoutes registers the catalog endpoints. Reads are public;
// writes are API-key-protected.
func SetupProductRoutes(r *gin.Engine, db *gorm.DB) {
	r.GET("/products", productControllers.GetProducts(db))        // GET /products
	r.GET("/products/:id", productControllers.GetProductByID(db)) // GET /products/:id

	r.POST("/products", middleware.ValidateAPIKey, productControllers.CreateProduct(db))    // POST /products
	r.PUT("/products/:id", middleware.ValidateAPIKey, productControllers.UpdateProduct(db)) // PUT /products/:id
}
