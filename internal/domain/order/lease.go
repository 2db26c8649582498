// internal/domain/order/lease.go
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const driverLeasePrefix = "order:driver:"

// Lease grants one API instance the right to drive an order
type Lease interface {
	Acquire(ctx context.Context, orderID string) (bool, error)
	// Refresh extends a held lease; false means it is held by someone else
	Refresh(ctx context.Context, orderID string) (bool, error)
	Release(ctx context.Context, orderID string) error
}

// Re-acquiring a lease this owner already holds only extends it
var acquireScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == ARGV[1] then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
if current then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return 1
`)

var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease keeps driver leases in Redis keys that expire unless refreshed,
// so a crashed instance's orders are picked up by another after ttl.
type RedisLease struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

// NewRedisLease creates a lease holder with a unique owner token
func NewRedisLease(client *redis.Client, ttl time.Duration) *RedisLease {
	return &RedisLease{
		client: client,
		owner:  uuid.New().String(),
		ttl:    ttl,
	}
}

// Acquire takes the lease for orderID if it is free or already ours
func (l *RedisLease) Acquire(ctx context.Context, orderID string) (bool, error) {
	n, err := acquireScript.Run(ctx, l.client, []string{leaseKey(orderID)}, l.owner, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to acquire driver lease: %w", err)
	}
	return n == 1, nil
}

// Refresh extends the lease if this owner still holds it
func (l *RedisLease) Refresh(ctx context.Context, orderID string) (bool, error) {
	n, err := refreshScript.Run(ctx, l.client, []string{leaseKey(orderID)}, l.owner, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("failed to refresh driver lease: %w", err)
	}
	return n == 1, nil
}

// Release drops the lease if this owner holds it
func (l *RedisLease) Release(ctx context.Context, orderID string) error {
	if err := releaseScript.Run(ctx, l.client, []string{leaseKey(orderID)}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release driver lease: %w", err)
	}
	return nil
}

func leaseKey(orderID string) string {
	return driverLeasePrefix + orderID
}
