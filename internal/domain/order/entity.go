// internal/domain/order/entity.go
package order

import (
	"errors"
	"time"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderTerminal  = errors.New("order is no longer in progress")
	ErrStatusConflict = errors.New("order status changed concurrently")
	ErrInvalidStatus  = errors.New("invalid order status")
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusPickedUp  OrderStatus = "picked_up"
	OrderStatusOnTheWay  OrderStatus = "on_the_way"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// lifecycle is the forward chain an order walks through
var lifecycle = []OrderStatus{
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusPickedUp,
	OrderStatusOnTheWay,
	OrderStatusDelivered,
}

// Next returns the single forward successor of s. Terminal and unknown
// statuses have none.
func (s OrderStatus) Next() (OrderStatus, bool) {
	for i := 0; i < len(lifecycle)-1; i++ {
		if lifecycle[i] == s {
			return lifecycle[i+1], true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition can happen
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// IsValid reports whether s is a known status
func (s OrderStatus) IsValid() bool {
	if s == OrderStatusCancelled {
		return true
	}
	for _, st := range lifecycle {
		if st == s {
			return true
		}
	}
	return false
}

// Label returns the customer-facing name of the status
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusConfirmed:
		return "Order Confirmed"
	case OrderStatusPreparing:
		return "Preparing"
	case OrderStatusPickedUp:
		return "Picked Up"
	case OrderStatusOnTheWay:
		return "On the Way"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// PaymentMethod is recorded on the order; no payment is executed
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

// IsValid reports whether m is an accepted payment method
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCard || m == PaymentMethodCash
}

// Order represents a placed order. Items and the delivery address are
// frozen at checkout; only the status and the fields that move with it change.
type Order struct {
	ID             string      `gorm:"primaryKey;size:36" json:"id"`
	UserID         uint        `gorm:"not null;index" json:"user_id"`
	RestaurantID   string      `gorm:"not null;size:64;index" json:"restaurant_id"`
	RestaurantName string      `gorm:"not null;size:255" json:"restaurant_name"`
	Items          []OrderItem `gorm:"serializer:json;type:jsonb;not null" json:"items"`

	// Financial Information
	SubtotalAmount int64  `gorm:"not null" json:"subtotal_amount"` // In cents
	DiscountAmount int64  `gorm:"default:0" json:"discount_amount"`
	DeliveryFee    int64  `gorm:"not null" json:"delivery_fee"`
	TotalAmount    int64  `gorm:"not null" json:"total_amount"`
	Currency       string `gorm:"size:3;default:'USD'" json:"currency"`
	PromoCode      string `gorm:"size:50" json:"promo_code,omitempty"`

	DeliveryAddress DeliveryAddress `gorm:"embedded;embeddedPrefix:delivery_" json:"delivery_address"`
	PaymentMethod   PaymentMethod   `gorm:"not null;size:20" json:"payment_method"`

	Status            OrderStatus `gorm:"not null;size:20;index;default:'confirmed'" json:"status"`
	DriverName        *string     `gorm:"size:100" json:"driver_name,omitempty"`
	EstimatedDelivery time.Time   `gorm:"not null" json:"estimated_delivery"`

	// Timestamps
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is a line snapshot taken from the cart at checkout
type OrderItem struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Price      int64  `json:"price"` // Price per unit in cents
	Quantity   int    `json:"quantity"`
	Image      string `json:"image,omitempty"`
}

// Total returns price times quantity
func (i OrderItem) Total() int64 {
	return i.Price * int64(i.Quantity)
}

// DeliveryAddress is the address snapshot embedded in the order
type DeliveryAddress struct {
	Label         string `gorm:"size:50" json:"label"`
	StreetAddress string `gorm:"size:255" json:"street_address"`
	Apartment     string `gorm:"size:100" json:"apartment,omitempty"`
	City          string `gorm:"size:100" json:"city"`
	State         string `gorm:"size:100" json:"state"`
	ZipCode       string `gorm:"size:20" json:"zip_code"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	OrderID   string      `gorm:"not null;size:36;index" json:"order_id"`
	Status    OrderStatus `gorm:"not null;size:20" json:"status"`
	Comment   string      `gorm:"type:text" json:"comment"`
	CreatedAt time.Time   `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// StatusChange describes a compare-and-set status update. The update only
// applies while the stored status still equals From.
type StatusChange struct {
	From       OrderStatus
	To         OrderStatus
	DriverName *string
	Comment    string
	At         time.Time
}

// ItemCount sums quantities across items
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// Clone returns a deep copy safe to hand to another goroutine
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	c.StatusHistory = append([]OrderStatusHistory(nil), o.StatusHistory...)
	if o.DriverName != nil {
		name := *o.DriverName
		c.DriverName = &name
	}
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		c.DeliveredAt = &t
	}
	if o.CancelledAt != nil {
		t := *o.CancelledAt
		c.CancelledAt = &t
	}
	return &c
}
