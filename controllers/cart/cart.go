package cartControllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/crazy-sam-02/foodexpress-sub001/cache"
	"github.com/crazy-sam-02/foodexpress-sub001/models"
)

var (
	ErrProductNotFound = errors.New("product does not exist")
	ErrEntryNotFound   = errors.New("cart entry not found")
)

type AddItemInput struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// Quantity is a pointer so that an explicit zero survives binding; zero and
// negative values remove the entry, only an absent field is rejected.
type UpdateItemInput struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// CartEntryView is one cart line joined with live product data for display.
// UnitPrice always comes from the snapshot taken at first add, never from
// the current catalog price.
type CartEntryView struct {
	EntryID   uint    `json:"entry_id"`
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type CartView struct {
	Items    []CartEntryView `json:"items"`
	Subtotal float64         `json:"subtotal"`
}

// -------- Core Logic --------

func getOrCreateCart(db *gorm.DB, userID string) (models.Cart, error) {
	var cart models.Cart
	err := db.Where("user_id = ?", userID).FirstOrCreate(&cart, models.Cart{UserID: userID}).Error
	return cart, err
}

// BuildCartView renders the full cart for a user: entries in add order,
// joined with the product table for name/image/stock. An empty cart is not
// an error; it renders as an empty item list.
func BuildCartView(db *gorm.DB, userID string) (CartView, error) {
	view := CartView{Items: []CartEntryView{}}

	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return view, err
	}

	if err := db.Table("cart_items").
		Select("cart_items.id AS entry_id, cart_items.product_id, products.name, products.image, products.stock, cart_items.quantity, cart_items.unit_price").
		Joins("LEFT JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.cart_id = ?", cart.CartID).
		Order("cart_items.added_at ASC, cart_items.id ASC").
		Scan(&view.Items).Error; err != nil {
		return view, err
	}

	for i := range view.Items {
		view.Items[i].LineTotal = view.Items[i].UnitPrice * float64(view.Items[i].Quantity)
		view.Subtotal += view.Items[i].LineTotal
	}
	return view, nil
}

// AddItem creates or increments the cart line for a product as a single
// conditional upsert, so concurrent adds cannot lose a quantity update and
// cannot overwrite the first-add price snapshot.
func AddItem(db *gorm.DB, userID string, productID uint, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	var product models.Product
	if err := db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return err
	}

	item := models.CartItem{
		CartID:    cart.CartID,
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: product.Price,
		AddedAt:   time.Now(),
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
		}),
	}).Create(&item).Error
}

// UpdateItem overwrites the quantity of an entry. A quantity of zero or
// below is equivalent to removing the entry.
func UpdateItem(db *gorm.DB, userID string, entryID uint, quantity int) error {
	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		return db.Where("id = ? AND cart_id = ?", entryID, cart.CartID).
			Delete(&models.CartItem{}).Error
	}

	res := db.Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", entryID, cart.CartID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// RemoveItem deletes an entry. Removing an absent entry is not an error.
func RemoveItem(db *gorm.DB, userID string, entryID uint) error {
	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return err
	}
	return db.Where("id = ? AND cart_id = ?", entryID, cart.CartID).
		Delete(&models.CartItem{}).Error
}

// ClearCart empties the cart unconditionally.
func ClearCart(db *gorm.DB, userID string) error {
	cart, err := getOrCreateCart(db, userID)
	if err != nil {
		return err
	}
	return db.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error
}

func parseEntryID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("entryId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid entry id"})
		return 0, false
	}
	return uint(id), true
}

// -------- Handlers --------

// Every mutation handler responds with the entire resulting cart, not a
// delta: clients replace their local copy wholesale with this payload.
func respondWithCart(c *gin.Context, db *gorm.DB, cc *cache.CartCache, userID string, status int) {
	view, err := BuildCartView(db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	primeCache(c, cc, userID, view)
	c.JSON(status, gin.H{"cart": view})
}

func primeCache(c *gin.Context, cc *cache.CartCache, userID string, view CartView) {
	if cc == nil {
		return
	}
	if err := cc.Set(c.Request.Context(), userID, view); err != nil {
		log.Printf("cart cache set error: %v", err)
	}
}

func invalidateCache(c *gin.Context, cc *cache.CartCache, userID string) {
	if cc == nil {
		return
	}
	if err := cc.Invalidate(c.Request.Context(), userID); err != nil {
		log.Printf("cart cache invalidate error: %v", err)
	}
}

// GET /cart
func GetCart(db *gorm.DB, cc *cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		if cc != nil {
			var view CartView
			if err := cc.Get(c.Request.Context(), userID, &view); err == nil {
				c.JSON(http.StatusOK, gin.H{"cart": view})
				return
			} else if !errors.Is(err, cache.ErrCacheMiss) {
				log.Printf("cart cache get error: %v", err)
			}
		}

		respondWithCart(c, db, cc, userID, http.StatusOK)
	}
}

// POST /cart/add
func AddToCart(db *gorm.DB, cc *cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		if err := AddItem(db, userID, input.ProductID, input.Quantity); err != nil {
			if errors.Is(err, ErrProductNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product does not exist"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item to cart"})
			return
		}

		invalidateCache(c, cc, userID)
		respondWithCart(c, db, cc, userID, http.StatusOK)
	}
}

// PUT /cart/update/:entryId
func UpdateCartItem(db *gorm.DB, cc *cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		entryID, ok := parseEntryID(c)
		if !ok {
			return
		}

		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		if err := UpdateItem(db, userID, entryID, *input.Quantity); err != nil {
			if errors.Is(err, ErrEntryNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Cart entry not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart item"})
			return
		}

		invalidateCache(c, cc, userID)
		respondWithCart(c, db, cc, userID, http.StatusOK)
	}
}

// DELETE /cart/remove/:entryId
func RemoveCartItem(db *gorm.DB, cc *cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		entryID, ok := parseEntryID(c)
		if !ok {
			return
		}

		if err := RemoveItem(db, userID, entryID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove cart item"})
			return
		}

		invalidateCache(c, cc, userID)
		respondWithCart(c, db, cc, userID, http.StatusOK)
	}
}

// DELETE /cart/clear
func ClearUserCart(db *gorm.DB, cc *cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		if err := ClearCart(db, userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cart"})
			return
		}

		invalidateCache(c, cc, userID)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
