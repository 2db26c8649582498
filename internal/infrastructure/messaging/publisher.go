// internal/infrastructure/messaging/publisher.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/your-org/food-delivery-backend/internal/domain/order"
)

// OrderEvent is the message exported for every order status change
type OrderEvent struct {
	OrderID           string            `json:"order_id"`
	UserID            uint              `json:"user_id"`
	RestaurantID      string            `json:"restaurant_id"`
	Status            order.OrderStatus `json:"status"`
	DriverName        string            `json:"driver_name,omitempty"`
	TotalAmount       int64             `json:"total_amount"`
	OccurredAt        time.Time         `json:"occurred_at"`
	EstimatedDelivery time.Time         `json:"estimated_delivery"`
}

// NewOrderEvent builds the exported event from an order snapshot
func NewOrderEvent(o *order.Order, at time.Time) OrderEvent {
	event := OrderEvent{
		OrderID:           o.ID,
		UserID:            o.UserID,
		RestaurantID:      o.RestaurantID,
		Status:            o.Status,
		TotalAmount:       o.TotalAmount,
		OccurredAt:        at,
		EstimatedDelivery: o.EstimatedDelivery,
	}
	if o.DriverName != nil {
		event.DriverName = *o.DriverName
	}
	return event
}

// Publisher exports order events to the fanout exchange. It satisfies
// order.EventSink.
type Publisher struct {
	conn   *Connection
	logger logrus.FieldLogger
}

// NewPublisher creates a new order event publisher
func NewPublisher(conn *Connection, logger logrus.FieldLogger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish sends one order event
func (p *Publisher) Publish(ctx context.Context, o *order.Order) error {
	ch, err := p.conn.channelFor()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	body, err := json.Marshal(NewOrderEvent(o, now))
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		p.conn.exchange,  // exchange
		string(o.Status), // routing key, ignored by fanout consumers
		false,            // mandatory
		false,            // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    fmt.Sprintf("%s:%s", o.ID, o.Status),
			Timestamp:    now,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"status":   o.Status,
		"size":     len(body),
	}).Debug("Order event published")
	return nil
}

// Close closes the underlying connection
func (p *Publisher) Close() error {
	return p.conn.Close()
}
