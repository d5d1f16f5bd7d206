package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crazy-sam-02/foodexpress-sub001/models"
	"github.com/crazy-sam-02/foodexpress-sub001/realtime"
)

type memStore struct {
	token, userID string
	cleared       bool
}

func (m *memStore) Load() (string, string, error) { return m.token, m.userID, nil }
func (m *memStore) Save(token, userID string) error {
	m.token, m.userID = token, userID
	return nil
}
func (m *memStore) Clear() error {
	m.token, m.userID = "", ""
	m.cleared = true
	return nil
}

func sampleCart() Cart {
	return Cart{
		Items: []CartEntry{
			{EntryID: 1, ProductID: 11, Name: "Margherita", Quantity: 2, UnitPrice: 5, LineTotal: 10},
			{EntryID: 2, ProductID: 12, Name: "Pepperoni", Quantity: 1, UnitPrice: 8, LineTotal: 8},
		},
		Subtotal: 18,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *memStore, *[]string, *int32) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := &memStore{token: "tok", userID: "u1"}
	notices := &[]string{}
	var expired int32

	c := New(Config{
		BaseURL: srv.URL,
		Session: &Session{Token: "tok", UserID: "u1"},
		Store:   store,
		OnNotice: func(msg string) {
			*notices = append(*notices, msg)
		},
		OnSessionExpired: func() {
			atomic.AddInt32(&expired, 1)
		},
	})
	return c, store, notices, &expired
}

func TestMutationReplacesCartWholesale(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /cart/add", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"cart": sampleCart()})
	})
	c, _, _, _ := newTestClient(t, mux)

	require.NoError(t, c.AddToCart(context.Background(), 11, 2))

	cart := c.Cart()
	require.Len(t, cart.Items, 2, "local copy is the server response, whole")
	assert.Equal(t, 18.0, cart.Subtotal)
	assert.Equal(t, "Pepperoni", cart.Items[1].Name)
}

func TestFailedMutationKeepsPriorStateAndNotices(t *testing.T) {
	healthy := true
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"cart": sampleCart()})
	})
	mux.HandleFunc("POST /cart/add", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]string{"error": "storage down"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"cart": sampleCart()})
	})
	c, _, notices, _ := newTestClient(t, mux)

	require.NoError(t, c.RefreshCart(context.Background()))
	require.Len(t, c.Cart().Items, 2)

	healthy = false
	err := c.AddToCart(context.Background(), 11, 1)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "storage down", apiErr.Message)

	assert.Len(t, c.Cart().Items, 2, "failed mutation leaves the mirror untouched")
	assert.NotEmpty(t, *notices, "a transient notice is raised, no retry")
}

func TestUnauthorizedClearsCartOrdersAndLogsOut(t *testing.T) {
	authorized := true
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		if !authorized {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Invalid or expired token"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"cart": sampleCart()})
	})
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"orders":  []models.Order{{OrderRef: "r1", UserID: "u1", Total: 27}},
		})
	})
	c, store, _, expired := newTestClient(t, mux)

	require.NoError(t, c.RefreshCart(context.Background()))
	require.NoError(t, c.RefreshOrders(context.Background()))
	require.Len(t, c.Cart().Items, 2)
	require.Len(t, c.Orders(), 1)

	authorized = false
	err := c.RefreshCart(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)

	assert.Empty(t, c.Cart().Items, "session lost means cart unknowable")
	assert.Empty(t, c.Orders())
	assert.False(t, c.Session().Authenticated())
	assert.True(t, store.cleared, "persisted token dropped")
	assert.Equal(t, int32(1), atomic.LoadInt32(expired))
}

func TestStrictDecodeRejectsUnknownFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"cart":{"items":[],"subtotal":0},"surprise":true}`))
	})
	c, _, _, _ := newTestClient(t, mux)

	err := c.RefreshCart(context.Background())
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestDecodeRejectsEntriesWithDefaultedBusinessFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		// entry_id present but quantity missing: would silently default to 0
		w.Write([]byte(`{"cart":{"items":[{"entry_id":1,"product_id":2,"name":"x","image":"","stock":1,"unit_price":5,"line_total":0,"quantity":0}],"subtotal":0}}`))
	})
	c, _, _, _ := newTestClient(t, mux)

	err := c.RefreshCart(context.Background())
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, decodeErr.Reason, "quantity")
}

func TestPlaceOrderDropsCartAndRefreshesOrders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /cart", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"cart": sampleCart()})
	})
	mux.HandleFunc("POST /orders/create", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"order":   models.Order{OrderRef: "r9", UserID: "u1", Total: 27},
		})
	})
	mux.HandleFunc("GET /orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"orders":  []models.Order{{OrderRef: "r9", UserID: "u1", Total: 27}},
		})
	})
	c, _, _, _ := newTestClient(t, mux)

	require.NoError(t, c.RefreshCart(context.Background()))
	require.Len(t, c.Cart().Items, 2)

	order, err := c.PlaceOrder(context.Background(), OrderDraft{PaymentMethod: "cod"})
	require.NoError(t, err)
	assert.Equal(t, "r9", order.OrderRef)

	assert.Empty(t, c.Cart().Items, "checkout clears the mirrored cart")
	require.Len(t, c.Orders(), 1)
	assert.Equal(t, 27.0, c.Orders()[0].Total)
}

func TestSessionHydrateAndLogout(t *testing.T) {
	store := &memStore{token: "tok", userID: "u1"}

	session, err := Hydrate(store)
	require.NoError(t, err)
	require.True(t, session.Authenticated())
	assert.Equal(t, "u1", session.UserID)

	c := New(Config{BaseURL: "http://unused", Session: session, Store: store})
	c.Logout()

	assert.False(t, c.Session().Authenticated())
	assert.True(t, store.cleared)

	// A cleared store hydrates to a signed-out (nil) session.
	session, err = Hydrate(store)
	require.NoError(t, err)
	assert.Nil(t, session)
}

func TestListenNotificationsPrependsPushedRecords(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := realtime.NewHub()
	r := gin.New()
	r.GET("/ws/notifications", hub.Handler)
	c, _, _, _ := newTestClient(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.ListenNotifications(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, hub.ClientCount())

	hub.Broadcast("notification:new", models.Notification{ID: 7, Title: "flash sale"})

	deadline = time.Now().Add(2 * time.Second)
	for len(c.Notifications()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	items := c.Notifications()
	require.Len(t, items, 1)
	assert.Equal(t, uint(7), items[0].ID)
	assert.Equal(t, "flash sale", items[0].Title)
	assert.False(t, items[0].IsRead, "pushed records arrive unread")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on context cancel")
	}
}
