// internal/domain/cart/entity.go
package cart

import (
	"errors"
	"fmt"
	"time"

	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
)

// ErrDifferentRestaurant is matched by every DifferentRestaurantError
var ErrDifferentRestaurant = errors.New("you can only order from one restaurant at a time")

// DifferentRestaurantError reports an add from a restaurant other than the one already in the cart
type DifferentRestaurantError struct {
	CurrentRestaurantID     string
	CurrentRestaurantName   string
	RequestedRestaurantID   string
	RequestedRestaurantName string
}

func (e *DifferentRestaurantError) Error() string {
	return fmt.Sprintf("cart already holds items from %s; %s", e.CurrentRestaurantName, ErrDifferentRestaurant)
}

// Is lets errors.Is(err, ErrDifferentRestaurant) match
func (e *DifferentRestaurantError) Is(target error) bool {
	return target == ErrDifferentRestaurant
}

// Line is one menu item in the cart with its quantity
type Line struct {
	MenuItem       catalog.MenuItem `json:"menu_item"`
	Quantity       int              `json:"quantity"`
	RestaurantID   string           `json:"restaurant_id"`
	RestaurantName string           `json:"restaurant_name"`
}

// Total returns price times quantity for the line
func (l Line) Total() int64 {
	return l.MenuItem.Price * int64(l.Quantity)
}

// Summary represents calculated cart totals
type Summary struct {
	LineCount int   `json:"line_count"` // Number of distinct items
	ItemCount int   `json:"item_count"` // Sum of all quantities
	Subtotal  int64 `json:"subtotal"`
}

// Snapshot is a read-only view of the cart
type Snapshot struct {
	RestaurantID   string  `json:"restaurant_id,omitempty"`
	RestaurantName string  `json:"restaurant_name,omitempty"`
	Lines          []Line  `json:"lines"`
	Summary        Summary `json:"summary"`
}

// EventKind identifies a cart change
type EventKind string

const (
	EventItemAdded       EventKind = "item_added"
	EventQuantityUpdated EventKind = "quantity_updated"
	EventItemRemoved     EventKind = "item_removed"
	EventCleared         EventKind = "cleared"
)

// Event describes a cart change delivered to observers
type Event struct {
	Kind     EventKind `json:"kind"`
	ItemID   string    `json:"item_id,omitempty"`
	ItemName string    `json:"item_name,omitempty"`
	Quantity int       `json:"quantity"` // Resulting quantity of the affected line
	Lines    []Line    `json:"lines"`    // Resulting cart contents
	At       time.Time `json:"at"`
}

// Message renders the event the way the storefront announces it
func (e Event) Message() string {
	switch e.Kind {
	case EventItemAdded:
		if e.Quantity > 1 {
			return fmt.Sprintf("Added another %s", e.ItemName)
		}
		return fmt.Sprintf("%s added to cart", e.ItemName)
	case EventQuantityUpdated:
		return fmt.Sprintf("%s quantity set to %d", e.ItemName, e.Quantity)
	case EventItemRemoved:
		return fmt.Sprintf("%s removed from cart", e.ItemName)
	case EventCleared:
		return "Cart cleared"
	default:
		return ""
	}
}
