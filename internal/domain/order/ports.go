// internal/domain/order/ports.go
package order

import "context"

// Store persists orders. The stored record is the source of truth for
// lifecycle state.
type Store interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	UpdateOrderStatus(ctx context.Context, id string, change StatusChange) error
	ListOrders(ctx context.Context, userID uint) ([]Order, error)
	ListActiveOrders(ctx context.Context) ([]Order, error)
}

// Notifier fans order snapshots out to per-order subscribers
type Notifier interface {
	Publish(ctx context.Context, o *Order) error
	Subscribe(orderID string, fn func(*Order)) (unsubscribe func())
}

// EventSink receives every published snapshot, e.g. for export to a broker
type EventSink interface {
	Publish(ctx context.Context, o *Order) error
}
