package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crazy-sam-02/foodexpress-sub001/models"
)

// EnsureUser provisions a users row for the authenticated identity on first
// contact. Accounts are minted by the external identity provider, so there is
// no signup endpoint; the row is created lazily from the token claims and all
// cart and order foreign keys hang off it.
func EnsureUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := models.User{
			ID:    c.GetString("user_id"),
			Email: c.GetString("user_email"),
			Name:  c.GetString("user_name"),
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(&user).Error; err != nil {
			log.Printf("user provisioning error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve user"})
			c.Abort()
			return
		}
		c.Next()
	}
}
