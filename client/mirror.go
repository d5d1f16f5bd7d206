package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/crazy-sam-02/foodexpress-sub001/models"
)

// CartEntry is the wire shape of one cart line. UnitPrice is the server's
// add-time snapshot, never the current catalog price.
type CartEntry struct {
	EntryID   uint    `json:"entry_id"`
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Stock     int     `json:"stock"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type Cart struct {
	Items    []CartEntry `json:"items"`
	Subtotal float64     `json:"subtotal"`
}

// NotificationItem is a broadcast notification merged with this user's
// read state.
type NotificationItem struct {
	models.Notification
	IsRead bool       `json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}

// OrderDraft is the checkout payload.
type OrderDraft struct {
	DeliveryAddress models.Address `json:"deliveryAddress"`
	Notes           string         `json:"notes"`
	PaymentMethod   string         `json:"paymentMethod"`
}

// Mirror is the local copy of server state. It is only ever written by
// replacing a whole view with an authoritative server response.
type Mirror struct {
	mu            sync.RWMutex
	cart          Cart
	orders        []models.Order
	notifications []NotificationItem
}

func (m *Mirror) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = Cart{}
	m.orders = nil
	m.notifications = nil
}

func (m *Mirror) clearCartAndOrders() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = Cart{}
	m.orders = nil
}

func (m *Mirror) setCart(cart Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = cart
}

func (m *Mirror) setOrders(orders []models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = orders
}

func (m *Mirror) setNotifications(items []NotificationItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = items
}

func (m *Mirror) prependNotification(n models.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append([]NotificationItem{{Notification: n}}, m.notifications...)
}

// -------- Read accessors --------

func (c *Client) Cart() Cart {
	c.mirror.mu.RLock()
	defer c.mirror.mu.RUnlock()
	cart := c.mirror.cart
	cart.Items = append([]CartEntry(nil), c.mirror.cart.Items...)
	return cart
}

func (c *Client) Orders() []models.Order {
	c.mirror.mu.RLock()
	defer c.mirror.mu.RUnlock()
	return append([]models.Order(nil), c.mirror.orders...)
}

func (c *Client) Notifications() []NotificationItem {
	c.mirror.mu.RLock()
	defer c.mirror.mu.RUnlock()
	return append([]NotificationItem(nil), c.mirror.notifications...)
}

func (c *Client) UnreadCount() int {
	c.mirror.mu.RLock()
	defer c.mirror.mu.RUnlock()
	count := 0
	for _, n := range c.mirror.notifications {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// -------- Cart operations --------

type cartResponse struct {
	Cart Cart `json:"cart"`
}

// checkCart rejects responses whose business fields cannot be trusted, per
// the no-silent-defaults boundary rule.
func checkCart(path string, cart Cart) error {
	for _, item := range cart.Items {
		if item.EntryID == 0 || item.ProductID == 0 {
			return &DecodeError{Path: path, Reason: "cart entry missing identifiers"}
		}
		if item.Quantity < 1 {
			return &DecodeError{Path: path, Reason: "cart entry has non-positive quantity"}
		}
	}
	return nil
}

// applyCart replaces the mirrored cart with the server's response. The
// whole view is swapped; nothing from the optimistic UI state survives.
func (c *Client) applyCart(path string, resp cartResponse) error {
	if err := checkCart(path, resp.Cart); err != nil {
		return err
	}
	c.mirror.setCart(resp.Cart)
	return nil
}

func (c *Client) RefreshCart(ctx context.Context) error {
	var resp cartResponse
	if err := c.do(ctx, http.MethodGet, "/cart", nil, &resp); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not load your cart")
		}
		return err
	}
	return c.applyCart("/cart", resp)
}

func (c *Client) AddToCart(ctx context.Context, productID uint, quantity int) error {
	body := map[string]interface{}{"productId": productID, "quantity": quantity}
	var resp cartResponse
	if err := c.do(ctx, http.MethodPost, "/cart/add", body, &resp); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not add item to cart")
		}
		return err
	}
	return c.applyCart("/cart/add", resp)
}

func (c *Client) UpdateCartEntry(ctx context.Context, entryID uint, quantity int) error {
	body := map[string]interface{}{"quantity": quantity}
	path := fmt.Sprintf("/cart/update/%d", entryID)
	var resp cartResponse
	if err := c.do(ctx, http.MethodPut, path, body, &resp); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not update cart item")
		}
		return err
	}
	return c.applyCart(path, resp)
}

func (c *Client) RemoveCartEntry(ctx context.Context, entryID uint) error {
	path := fmt.Sprintf("/cart/remove/%d", entryID)
	var resp cartResponse
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not remove cart item")
		}
		return err
	}
	return c.applyCart(path, resp)
}

func (c *Client) ClearCart(ctx context.Context) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.do(ctx, http.MethodDelete, "/cart/clear", nil, &resp); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not clear cart")
		}
		return err
	}
	c.mirror.setCart(Cart{})
	return nil
}

// -------- Order operations --------

type orderResponse struct {
	Success bool         `json:"success"`
	Order   models.Order `json:"order"`
}

type ordersResponse struct {
	Success bool           `json:"success"`
	Orders  []models.Order `json:"orders"`
}

// PlaceOrder checks out the current cart. On success the server has
// already cleared the cart, so the mirror drops its copy and re-fetches
// the order list for the authoritative view.
func (c *Client) PlaceOrder(ctx context.Context, draft OrderDraft) (models.Order, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders/create", draft, &resp); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not place your order")
		}
		return models.Order{}, err
	}

	c.mirror.setCart(Cart{})
	if err := c.RefreshOrders(ctx); err != nil {
		return resp.Order, err
	}
	return resp.Order, nil
}

func (c *Client) RefreshOrders(ctx context.Context) error {
	var resp ordersResponse
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &resp); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not load your orders")
		}
		return err
	}
	c.mirror.setOrders(resp.Orders)
	return nil
}

// -------- Notification operations --------

func (c *Client) RefreshNotifications(ctx context.Context) error {
	if !c.session.Authenticated() {
		return ErrUnauthorized
	}
	var items []NotificationItem
	path := "/notifications/" + c.session.UserID
	if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not load notifications")
		}
		return err
	}
	c.mirror.setNotifications(items)
	return nil
}

// MarkNotificationRead acknowledges one notification and re-fetches the
// list so the mirror reflects the server's read state, not a local patch.
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID uint) error {
	if !c.session.Authenticated() {
		return ErrUnauthorized
	}
	path := fmt.Sprintf("/notifications/%s/read/%d", c.session.UserID, notificationID)
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not mark notification read")
		}
		return err
	}
	return c.RefreshNotifications(ctx)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if !c.session.Authenticated() {
		return ErrUnauthorized
	}
	path := "/notifications/" + c.session.UserID + "/read-all"
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		if err != ErrUnauthorized {
			c.notice("Could not mark notifications read")
		}
		return err
	}
	return c.RefreshNotifications(ctx)
}
