package orderControllers

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/crazy-sam-02/foodexpress-sub001/models"
	"github.com/crazy-sam-02/foodexpress-sub001/realtime"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// -------- Request Structs --------

type CreateOrderRequest struct {
	DeliveryAddress models.Address `json:"deliveryAddress" binding:"required"`
	Notes           string         `json:"notes"`
	PaymentMethod   string         `json:"paymentMethod" binding:"required"` // e.g. "card", "cod"
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderRequest carries a partial admin update; only supplied fields
// are applied.
type UpdateOrderRequest struct {
	Status   *string  `json:"status"`
	Discount *float64 `json:"discount"`
	Action   *string  `json:"orderAction"`
}

type Stats struct {
	TotalSales    float64 `json:"totalSales"`
	TodaysSales   float64 `json:"todaysSales"`
	PendingOrders int64   `json:"pendingOrders"`
}

// -------- Helpers --------

// Map string to OrderStatus. The status *value* must be known; transitions
// between values are deliberately unconstrained, including backwards ones.
func mapOrderStatus(status string) (models.OrderStatus, error) {
	switch strings.ToLower(status) {
	case string(models.OrderStatusPending):
		return models.OrderStatusPending, nil
	case string(models.OrderStatusConfirmed):
		return models.OrderStatusConfirmed, nil
	case string(models.OrderStatusPreparing):
		return models.OrderStatusPreparing, nil
	case string(models.OrderStatusOutForDelivery):
		return models.OrderStatusOutForDelivery, nil
	case string(models.OrderStatusDelivered):
		return models.OrderStatusDelivered, nil
	case string(models.OrderStatusCancelled):
		return models.OrderStatusCancelled, nil
	default:
		return "", ErrInvalidOrderStatus
	}
}

// Generate unique order reference, e.g. 20250908130500-<uuid4>
func generateOrderRef() string {
	return time.Now().Format("20060102150405") + "-" + uuid.NewString()
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func taxRate() float64         { return envFloat("TAX_RATE", 0.10) }
func shippingFlat() float64    { return envFloat("SHIPPING_FLAT", 5.0) }
func freeShippingMin() float64 { return envFloat("FREE_SHIPPING_MIN", 50.0) }

// -------- Core Logic --------

// CreateOrder converts the user's cart into an immutable order. The whole
// conversion runs in one transaction: stock is deducted with conditional
// updates, line items keep the cart's snapshot prices, totals are computed
// exactly once, and the cart is cleared before commit so the user never
// observes an order without the matching empty cart.
func CreateOrder(db *gorm.DB, userID string, req CreateOrderRequest) (models.Order, error) {
	var order models.Order

	err := db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Preload("Items").Where("user_id = ?", userID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		var subtotal float64
		var orderItems []models.OrderItem

		for _, item := range cart.Items {
			var product models.Product
			if err := tx.First(&product, "id = ?", item.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrInsufficientStock
				}
				return err
			}

			// Single conditional update so concurrent checkouts cannot
			// oversell: the WHERE clause is the stock check.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientStock
			}

			subtotal += item.UnitPrice * float64(item.Quantity)

			orderItems = append(orderItems, models.OrderItem{
				ProductID:    item.ProductID,
				ProductName:  product.Name,
				ProductImage: product.Image,
				PriceAtOrder: item.UnitPrice,
				Quantity:     item.Quantity,
			})
		}

		tax := subtotal * taxRate()
		shipping := shippingFlat()
		if subtotal >= freeShippingMin() {
			shipping = 0
		}

		order = models.Order{
			OrderRef:        generateOrderRef(),
			UserID:          userID,
			Items:           orderItems,
			Subtotal:        subtotal,
			Tax:             tax,
			ShippingCost:    shipping,
			Total:           subtotal + tax + shipping,
			Status:          models.OrderStatusPending,
			PaymentMethod:   req.PaymentMethod,
			DeliveryAddress: req.DeliveryAddress,
			Notes:           req.Notes,
			OrderDate:       time.Now(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		// Clear cart items inside the same transaction.
		return tx.Where("cart_id = ?", cart.CartID).Delete(&models.CartItem{}).Error
	})

	return order, err
}

// UpdateOrderStatus overwrites the status. Totals are never recomputed on a
// status change.
func UpdateOrderStatus(db *gorm.DB, orderID uint, status string) (models.Order, error) {
	newStatus, err := mapOrderStatus(status)
	if err != nil {
		return models.Order{}, err
	}

	res := db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", newStatus)
	if res.Error != nil {
		return models.Order{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Order{}, ErrOrderNotFound
	}

	var order models.Order
	if err := db.Preload("Items").First(&order, orderID).Error; err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// UpdateOrder applies a partial admin update. A discount change recomputes
// and persists the total explicitly; nothing else ever touches it.
func UpdateOrder(db *gorm.DB, orderID uint, req UpdateOrderRequest) (models.Order, error) {
	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Order{}, ErrOrderNotFound
		}
		return models.Order{}, err
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		newStatus, err := mapOrderStatus(*req.Status)
		if err != nil {
			return models.Order{}, err
		}
		updates["status"] = newStatus
	}
	if req.Action != nil {
		updates["action"] = *req.Action
	}
	if req.Discount != nil {
		updates["discount"] = *req.Discount
		updates["total"] = order.Subtotal + order.Tax + order.ShippingCost - *req.Discount
	}

	if len(updates) > 0 {
		if err := db.Model(&order).Updates(updates).Error; err != nil {
			return models.Order{}, err
		}
	}

	if err := db.Preload("Items").First(&order, orderID).Error; err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// ComputeStats aggregates sales figures in a single scan over the orders
// table so the three numbers cannot drift apart under concurrent writes.
func ComputeStats(db *gorm.DB) (Stats, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var stats Stats
	err := db.Raw(`
		SELECT
			COALESCE(SUM(CASE WHEN status <> ? THEN total ELSE 0 END), 0) AS total_sales,
			COALESCE(SUM(CASE WHEN status <> ? AND order_date >= ? AND order_date < ? THEN total ELSE 0 END), 0) AS todays_sales,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending_orders
		FROM orders`,
		models.OrderStatusCancelled,
		models.OrderStatusCancelled, dayStart, dayEnd,
		models.OrderStatusPending,
	).Scan(&stats).Error
	return stats, err
}

// -------- Handlers --------

// POST /orders/create
func CreateOrderHandler(db *gorm.DB, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := CreateOrder(db, userID, req)
		if err != nil {
			switch {
			case errors.Is(err, ErrEmptyCart):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
			case errors.Is(err, ErrInsufficientStock):
				c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to place order"})
			}
			return
		}

		if hub != nil {
			hub.Broadcast("order:new", order)
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
	}
}

// GET /orders
func GetUserOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var orders []models.Order
		if err := db.
			Where("user_id = ?", userID).
			Preload("Items").
			Order("order_date DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
	}
}

// GET /orders/:id (numeric id or order_ref, scoped to the caller)
func GetOrderByIDHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		ref := c.Param("id")

		// A numeric path segment is a primary key; anything else is an
		// order_ref. Mixing both in one predicate trips Postgres on the
		// string-to-integer comparison.
		query := db.Preload("Items").Where("user_id = ?", userID)
		if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
			query = query.Where("id = ?", id)
		} else {
			query = query.Where("order_ref = ?", ref)
		}

		var order models.Order
		if err := query.First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

// GET /orders/admin/all
func GetAllOrdersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.
			Preload("User").
			Preload("Items").
			Order("order_date DESC").
			Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
	}
}

// PUT /orders/admin/:id/status
func UpdateOrderStatusHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := UpdateOrderStatus(db, orderID, req.Status)
		if err != nil {
			respondOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

// PATCH /orders/admin/:id
func UpdateOrderHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := parseOrderID(c)
		if !ok {
			return
		}

		var req UpdateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		order, err := UpdateOrder(db, orderID, req)
		if err != nil {
			respondOrderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

// GET /orders/stats/summary
func StatsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := ComputeStats(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
	}
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return 0, false
	}
	return uint(id), true
}

func respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, ErrInvalidOrderStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order status"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
	}
}
