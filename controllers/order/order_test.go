package orderControllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/crazy-sam-02/foodexpress-sub001/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Category{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

func pinPricing(t *testing.T) {
	t.Helper()
	t.Setenv("TAX_RATE", "0.10")
	t.Setenv("SHIPPING_FLAT", "5")
	t.Setenv("FREE_SHIPPING_MIN", "50")
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: price, Stock: stock, Available: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedCart(t *testing.T, db *gorm.DB, userID string, items ...models.CartItem) models.Cart {
	t.Helper()
	cart := models.Cart{UserID: userID}
	require.NoError(t, db.Create(&cart).Error)
	for i := range items {
		items[i].CartID = cart.CartID
		items[i].AddedAt = time.Now()
		require.NoError(t, db.Create(&items[i]).Error)
	}
	return cart
}

func draft() CreateOrderRequest {
	return CreateOrderRequest{
		DeliveryAddress: models.Address{City: "Amman", Street: "Rainbow St 12"},
		PaymentMethod:   "cod",
	}
}

func TestCreateOrderEmptyCartFails(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	seedCart(t, db, "u1")

	_, err := CreateOrder(db, "u1", draft())
	assert.ErrorIs(t, err, ErrEmptyCart)

	var count int64
	require.NoError(t, db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count, "no order may be persisted for an empty cart")
}

func TestCreateOrderNoCartFails(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)

	_, err := CreateOrder(db, "ghost", draft())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrderComputesTotalsOnceAndClearsCart(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	p := seedProduct(t, db, "Margherita", 5, 10)
	cart := seedCart(t, db, "u1", models.CartItem{ProductID: p.ID, Quantity: 4, UnitPrice: 5})

	order, err := CreateOrder(db, "u1", draft())
	require.NoError(t, err)

	assert.Equal(t, 20.0, order.Subtotal)
	assert.Equal(t, 2.0, order.Tax)
	assert.Equal(t, 5.0, order.ShippingCost)
	assert.Equal(t, 27.0, order.Total)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.NotEmpty(t, order.OrderRef)

	// Cart cleared in the same transaction.
	var items int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.CartID).Count(&items).Error)
	assert.Zero(t, items)

	// Stock deducted.
	var product models.Product
	require.NoError(t, db.First(&product, p.ID).Error)
	assert.Equal(t, 6, product.Stock)
}

func TestCreateOrderUsesCartSnapshotPrice(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	p := seedProduct(t, db, "Margherita", 7, 10) // catalog price moved to 7 after the add
	seedCart(t, db, "u1", models.CartItem{ProductID: p.ID, Quantity: 2, UnitPrice: 5})

	order, err := CreateOrder(db, "u1", draft())
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, 5.0, order.Items[0].PriceAtOrder, "charged price matches the add-time snapshot")
	assert.Equal(t, 10.0, order.Subtotal)
}

func TestCreateOrderFreeShippingOverThreshold(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	p := seedProduct(t, db, "Feast", 30, 10)
	seedCart(t, db, "u1", models.CartItem{ProductID: p.ID, Quantity: 2, UnitPrice: 30})

	order, err := CreateOrder(db, "u1", draft())
	require.NoError(t, err)
	assert.Zero(t, order.ShippingCost)
	assert.Equal(t, 66.0, order.Total) // 60 + 6 tax
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	a := seedProduct(t, db, "Margherita", 5, 10)
	b := seedProduct(t, db, "Pepperoni", 8, 1)
	cart := seedCart(t, db, "u1",
		models.CartItem{ProductID: a.ID, Quantity: 2, UnitPrice: 5},
		models.CartItem{ProductID: b.ID, Quantity: 3, UnitPrice: 8},
	)

	_, err := CreateOrder(db, "u1", draft())
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Everything rolled back: no order, stock intact, cart untouched.
	var orders int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)

	var product models.Product
	require.NoError(t, db.First(&product, a.ID).Error)
	assert.Equal(t, 10, product.Stock)

	var items int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", cart.CartID).Count(&items).Error)
	assert.Equal(t, int64(2), items)
}

func TestTotalStableAcrossStatusUpdates(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	p := seedProduct(t, db, "Margherita", 5, 10)
	seedCart(t, db, "u1", models.CartItem{ProductID: p.ID, Quantity: 4, UnitPrice: 5})

	order, err := CreateOrder(db, "u1", draft())
	require.NoError(t, err)
	total := order.Total

	for _, status := range []string{"confirmed", "preparing", "out_for_delivery", "delivered"} {
		order, err = UpdateOrderStatus(db, order.ID, status)
		require.NoError(t, err)
		assert.Equal(t, total, order.Total, "status %s must not touch the total", status)
	}
}

func TestStatusTransitionsArePermissive(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	p := seedProduct(t, db, "Margherita", 5, 10)
	seedCart(t, db, "u1", models.CartItem{ProductID: p.ID, Quantity: 1, UnitPrice: 5})

	order, err := CreateOrder(db, "u1", draft())
	require.NoError(t, err)

	// Backwards transitions are accepted; sanity is the admin's job.
	order, err = UpdateOrderStatus(db, order.ID, "delivered")
	require.NoError(t, err)
	order, err = UpdateOrderStatus(db, order.ID, "pending")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	p := seedProduct(t, db, "Margherita", 5, 10)
	seedCart(t, db, "u1", models.CartItem{ProductID: p.ID, Quantity: 1, UnitPrice: 5})

	order, err := CreateOrder(db, "u1", draft())
	require.NoError(t, err)

	_, err = UpdateOrderStatus(db, order.ID, "teleported")
	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	db := setupDB(t)

	_, err := UpdateOrderStatus(db, 424242, "confirmed")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestUpdateOrderDiscountRecomputesTotal(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	p := seedProduct(t, db, "Margherita", 5, 10)
	seedCart(t, db, "u1", models.CartItem{ProductID: p.ID, Quantity: 4, UnitPrice: 5})

	order, err := CreateOrder(db, "u1", draft())
	require.NoError(t, err)
	require.Equal(t, 27.0, order.Total)

	discount := 7.0
	order, err = UpdateOrder(db, order.ID, UpdateOrderRequest{Discount: &discount})
	require.NoError(t, err)
	assert.Equal(t, 7.0, order.Discount)
	assert.Equal(t, 20.0, order.Total, "discount change recomputes total explicitly")
}

func TestUpdateOrderPartialFields(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	p := seedProduct(t, db, "Margherita", 5, 10)
	seedCart(t, db, "u1", models.CartItem{ProductID: p.ID, Quantity: 4, UnitPrice: 5})

	order, err := CreateOrder(db, "u1", draft())
	require.NoError(t, err)

	action := "called customer"
	updated, err := UpdateOrder(db, order.ID, UpdateOrderRequest{Action: &action})
	require.NoError(t, err)
	assert.Equal(t, "called customer", updated.Action)
	assert.Equal(t, order.Status, updated.Status, "unsupplied fields stay put")
	assert.Equal(t, order.Total, updated.Total)
}

func TestStatsSingleScanAggregate(t *testing.T) {
	db := setupDB(t)

	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	fixtures := []models.Order{
		{OrderRef: "r1", UserID: "u1", Total: 10, Status: models.OrderStatusPending, OrderDate: now},
		{OrderRef: "r2", UserID: "u1", Total: 20, Status: models.OrderStatusDelivered, OrderDate: now},
		{OrderRef: "r3", UserID: "u2", Total: 30, Status: models.OrderStatusConfirmed, OrderDate: yesterday},
		{OrderRef: "r4", UserID: "u2", Total: 100, Status: models.OrderStatusCancelled, OrderDate: now},
	}
	for i := range fixtures {
		require.NoError(t, db.Create(&fixtures[i]).Error)
	}

	stats, err := ComputeStats(db)
	require.NoError(t, err)

	assert.Equal(t, 60.0, stats.TotalSales, "cancelled orders excluded")
	assert.Equal(t, 30.0, stats.TodaysSales, "yesterday's order excluded")
	assert.Equal(t, int64(1), stats.PendingOrders)
}

func TestOrdersListedNewestFirst(t *testing.T) {
	db := setupDB(t)
	pinPricing(t)
	p := seedProduct(t, db, "Margherita", 5, 100)

	for i, when := range []time.Time{
		time.Now().Add(-2 * time.Hour),
		time.Now().Add(-1 * time.Hour),
		time.Now(),
	} {
		o := models.Order{
			OrderRef:  generateOrderRef(),
			UserID:    "u1",
			Total:     float64(i + 1),
			Status:    models.OrderStatusPending,
			OrderDate: when,
			Items:     []models.OrderItem{{ProductID: p.ID, Quantity: 1, PriceAtOrder: 5}},
		}
		require.NoError(t, db.Create(&o).Error)
	}

	var orders []models.Order
	require.NoError(t, db.Where("user_id = ?", "u1").Order("order_date DESC").Find(&orders).Error)
	require.Len(t, orders, 3)
	assert.Equal(t, 3.0, orders[0].Total)
	assert.Equal(t, 1.0, orders[2].Total)
}
