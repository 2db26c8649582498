// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository is the gorm-backed Store
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new order repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateOrder inserts the order together with its first status history entry
func (r *Repository) CreateOrder(ctx context.Context, o *Order) error {
	if len(o.StatusHistory) == 0 {
		o.StatusHistory = []OrderStatusHistory{{
			OrderID:   o.ID,
			Status:    o.Status,
			Comment:   "Order placed",
			CreatedAt: o.CreatedAt,
		}}
	}

	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetOrder retrieves a single order by ID
func (r *Repository) GetOrder(ctx context.Context, id string) (*Order, error) {
	var order Order
	result := r.db.WithContext(ctx).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&order)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &order, nil
}

// UpdateOrderStatus applies change only while the stored status equals change.From
func (r *Repository) UpdateOrderStatus(ctx context.Context, id string, change StatusChange) error {
	at := change.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	updates := map[string]interface{}{
		"status":     change.To,
		"updated_at": at,
	}
	if change.DriverName != nil {
		updates["driver_name"] = *change.DriverName
	}

	// Set timestamps based on status
	switch change.To {
	case OrderStatusDelivered:
		updates["delivered_at"] = at
	case OrderStatusCancelled:
		updates["cancelled_at"] = at
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&Order{}).
			Where("id = ? AND status = ?", id, change.From).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update order status: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check order: %w", err)
			}
			if count == 0 {
				return ErrOrderNotFound
			}
			return fmt.Errorf("%w: expected %s", ErrStatusConflict, change.From)
		}

		// Add status history
		history := OrderStatusHistory{
			OrderID:   id,
			Status:    change.To,
			Comment:   change.Comment,
			CreatedAt: at,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}
		return nil
	})
}

// ListOrders retrieves a user's orders, newest first
func (r *Repository) ListOrders(ctx context.Context, userID uint) ([]Order, error) {
	var orders []Order
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, nil
}

// ListActiveOrders retrieves every order that has not reached a terminal status
func (r *Repository) ListActiveOrders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := r.db.WithContext(ctx).
		Where("status NOT IN ?", []OrderStatus{OrderStatusDelivered, OrderStatusCancelled}).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve active orders: %w", err)
	}
	return orders, nil
}
