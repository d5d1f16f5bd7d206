package models

import "time"

type OrderStatus string

const (
	// Order statuses (delivery flow)
	OrderStatusPending        OrderStatus = "pending"          // Order placed, awaiting confirmation
	OrderStatusConfirmed      OrderStatus = "confirmed"        // Confirmed by the store
	OrderStatusPreparing      OrderStatus = "preparing"        // Being prepared
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery" // Courier on the way
	OrderStatusDelivered      OrderStatus = "delivered"        // Customer received the order
	OrderStatusCancelled      OrderStatus = "cancelled"        // Cancelled by an admin
)

// IsTerminal reports whether no further transition is expected from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order is immutable after checkout except for Status and the admin fields
// (Discount, Action). Total is computed once at creation; a discount update
// must explicitly recompute and persist a new total.
type Order struct {
	ID              uint        `gorm:"primaryKey" json:"id"`
	OrderRef        string      `gorm:"uniqueIndex" json:"order_ref"`
	UserID          string      `gorm:"not null;index" json:"user_id"`
	User            User        `gorm:"foreignKey:UserID" json:"user"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Subtotal        float64     `json:"subtotal"`
	Tax             float64     `json:"tax"`
	ShippingCost    float64     `json:"shipping_cost"`
	Discount        float64     `json:"discount"`
	Total           float64     `json:"total"`
	Status          OrderStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentMethod   string      `json:"payment_method"` // e.g. "card", "cod"
	DeliveryAddress Address     `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	Notes           string      `json:"notes"`
	Action          string      `json:"action"` // free-form admin annotation
	OrderDate       time.Time   `gorm:"index" json:"order_date"`
}

type OrderItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	OrderID      uint    `gorm:"index" json:"order_id"`
	ProductID    uint    `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	PriceAtOrder float64 `json:"price_at_order"`
	Quantity     int     `json:"quantity"`
}
