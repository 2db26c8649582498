// internal/infrastructure/messaging/connection.go
package messaging

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const maxDialAttempts = 5

// Connection wraps a RabbitMQ connection and channel with reconnect support
type Connection struct {
	url      string
	exchange string
	logger   logrus.FieldLogger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Dial connects to RabbitMQ and declares the order events exchange
func Dial(url, exchange string, logger logrus.FieldLogger) (*Connection, error) {
	c := &Connection{
		url:      url,
		exchange: exchange,
		logger:   logger,
	}

	if err := c.connect(); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}
	return c, nil
}

// connect retries open with a linear backoff
func (c *Connection) connect() error {
	var err error
	for i := 0; i < maxDialAttempts; i++ {
		if err = c.open(); err == nil {
			return nil
		}

		if i < maxDialAttempts-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			c.logger.WithError(err).Warnf("Failed to connect to RabbitMQ, retrying in %v", wait)
			time.Sleep(wait)
		}
	}
	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxDialAttempts, err)
}

func (c *Connection) open() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	// Fanout exchange; every bound queue receives every order event
	if err := ch.ExchangeDeclare(
		c.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare %s exchange: %w", c.exchange, err)
	}

	c.conn = conn
	c.channel = ch
	return nil
}

// channelFor returns a live channel, reconnecting if the connection dropped
func (c *Connection) channelFor() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() || c.channel == nil || c.channel.IsClosed() {
		c.closeLocked()
		if err := c.open(); err != nil {
			return nil, fmt.Errorf("failed to reconnect: %w", err)
		}
	}
	return c.channel, nil
}

// Close closes the channel and connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Connection) closeLocked() error {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		if err != nil && err != amqp.ErrClosed {
			return err
		}
	}
	return nil
}
