// internal/domain/order/notifier.go
package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const updatesChannelPrefix = "order:updates:"

// RedisNotifier publishes snapshots over Redis pub/sub so every API instance
// sees every transition. Received snapshots are fanned out through a local Hub.
type RedisNotifier struct {
	client *redis.Client
	hub    *Hub
	logger logrus.FieldLogger

	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisNotifier creates a notifier backed by client that delivers through hub
func NewRedisNotifier(client *redis.Client, hub *Hub, logger logrus.FieldLogger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		hub:    hub,
		logger: logger,
	}
}

// Start subscribes to the update channels and begins forwarding to the hub
func (n *RedisNotifier) Start(ctx context.Context) error {
	pubsub := n.client.PSubscribe(ctx, updatesChannelPrefix+"*")

	// Wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to order updates: %w", err)
	}

	n.pubsub = pubsub
	n.done = make(chan struct{})
	go n.listen(pubsub.Channel())
	return nil
}

// Publish sends the snapshot to every instance
func (n *RedisNotifier) Publish(ctx context.Context, o *Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to encode order update: %w", err)
	}

	if err := n.client.Publish(ctx, updatesChannelPrefix+o.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to publish order update: %w", err)
	}
	return nil
}

// Subscribe registers fn for snapshots of one order
func (n *RedisNotifier) Subscribe(orderID string, fn func(*Order)) func() {
	return n.hub.Subscribe(orderID, fn)
}

// Close stops forwarding and waits for the listener to exit
func (n *RedisNotifier) Close() error {
	if n.pubsub == nil {
		return nil
	}
	err := n.pubsub.Close()
	<-n.done
	return err
}

func (n *RedisNotifier) listen(ch <-chan *redis.Message) {
	defer close(n.done)

	for msg := range ch {
		var o Order
		if err := json.Unmarshal([]byte(msg.Payload), &o); err != nil {
			n.logger.WithError(err).WithField("channel", msg.Channel).Warn("Failed to decode order update")
			continue
		}
		n.hub.Publish(context.Background(), &o)
	}
}

// MultiNotifier publishes through a primary notifier and copies every
// snapshot to additional sinks. Sink failures are logged, not returned.
type MultiNotifier struct {
	Notifier
	sinks  []EventSink
	logger logrus.FieldLogger
}

// NewMultiNotifier wraps primary with extra sinks
func NewMultiNotifier(primary Notifier, logger logrus.FieldLogger, sinks ...EventSink) *MultiNotifier {
	return &MultiNotifier{
		Notifier: primary,
		sinks:    sinks,
		logger:   logger,
	}
}

// Publish delivers to the primary notifier, then to each sink
func (m *MultiNotifier) Publish(ctx context.Context, o *Order) error {
	err := m.Notifier.Publish(ctx, o)

	for _, sink := range m.sinks {
		if sinkErr := sink.Publish(ctx, o); sinkErr != nil {
			m.logger.WithError(sinkErr).WithFields(logrus.Fields{
				"order_id": o.ID,
				"status":   o.Status,
			}).Warn("Failed to export order event")
		}
	}
	return err
}
