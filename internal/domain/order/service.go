// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Service handles customer reads and administrative status changes
type Service struct {
	store    Store
	notifier Notifier
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewService creates a new order service
func NewService(store Store, notifier Notifier, logger logrus.FieldLogger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ListOrders retrieves a user's order history, newest first
func (s *Service) ListOrders(ctx context.Context, userID uint) ([]Order, error) {
	return s.store.ListOrders(ctx, userID)
}

// GetForUser retrieves an order owned by userID
func (s *Service) GetForUser(ctx context.Context, id string, userID uint) (*Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// Cancel marks a non-terminal order as cancelled. Running drivers observe
// the change on their next read and stop.
func (s *Service) Cancel(ctx context.Context, id, reason string) (*Order, error) {
	comment := "Order cancelled"
	if reason != "" {
		comment = fmt.Sprintf("Order cancelled: %s", reason)
	}
	return s.setStatus(ctx, id, OrderStatusCancelled, comment)
}

// CorrectStatus overwrites the status of a non-terminal order
func (s *Service) CorrectStatus(ctx context.Context, id string, status OrderStatus) (*Order, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}
	return s.setStatus(ctx, id, status, fmt.Sprintf("Status corrected to %s", status))
}

func (s *Service) setStatus(ctx context.Context, id string, status OrderStatus, comment string) (*Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderTerminal, id, o.Status)
	}

	change := StatusChange{
		From:    o.Status,
		To:      status,
		Comment: comment,
		At:      s.now().UTC(),
	}
	if err := s.store.UpdateOrderStatus(ctx, id, change); err != nil {
		return nil, err
	}

	updated, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	if err := s.notifier.Publish(ctx, updated); err != nil {
		s.logger.WithError(err).WithField("order_id", id).Warn("Failed to publish order update")
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": id,
		"from":     change.From,
		"to":       change.To,
	}).Info("Order status changed")

	return updated, nil
}
