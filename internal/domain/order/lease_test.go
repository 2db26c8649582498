package order

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/food-delivery-backend/internal/pkg/logger"
)

func newLeaseRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLease_SingleOwner(t *testing.T) {
	mr, client := newLeaseRedis(t)
	ctx := context.Background()
	a := NewRedisLease(client, 30*time.Second)
	b := NewRedisLease(client, 30*time.Second)

	ok, err := a.Acquire(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Acquire(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, ok, "owner may re-acquire its own lease")

	ok, err = b.Acquire(ctx, "o-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = b.Refresh(ctx, "o-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Release(ctx, "o-1"))
	assert.True(t, mr.Exists("order:driver:o-1"), "non-owner cannot release")

	ok, err = a.Refresh(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, ok)

	// An owner that stops refreshing loses the order after the TTL
	mr.FastForward(31 * time.Second)
	ok, err = b.Acquire(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Refresh(ctx, "o-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Release(ctx, "o-1"))
	assert.False(t, mr.Exists("order:driver:o-1"))
}

func newLeasedEngine(store Store, clock Clock, notifier Notifier, lease Lease, refresh time.Duration) *Engine {
	return NewEngine(store, notifier, logger.Discard(), Options{
		Dwell:         uniformDwell(time.Minute),
		RetryInterval: time.Second,
		Drivers:       []string{"John D."},
		Clock:         clock,
		Lease:         lease,
		LeaseRefresh:  refresh,
	})
}

func TestEngine_LeaseKeepsOneDriverAcrossInstances(t *testing.T) {
	_, client := newLeaseRedis(t)
	store := newMemoryStore(newTestOrder("o-1", OrderStatusConfirmed))
	hub := NewHub(4)
	defer hub.Close()

	clockA, clockB := newFakeClock(), newFakeClock()
	instanceA := newLeasedEngine(store, clockA, hub, NewRedisLease(client, 30*time.Second), time.Second)
	instanceB := newLeasedEngine(store, clockB, hub, NewRedisLease(client, 30*time.Second), time.Second)
	defer instanceA.Shutdown()
	defer instanceB.Shutdown()

	require.True(t, instanceA.StartProgression("o-1"))
	assert.False(t, instanceB.StartProgression("o-1"))
	assert.False(t, instanceB.IsProgressing("o-1"))

	resumed, err := instanceB.ResumeActive(context.Background())
	require.NoError(t, err)
	assert.Zero(t, resumed)

	waitForSleepers(t, clockA, 1)
	assert.Zero(t, clockB.pending(), "only one instance may drive the order")

	// Once the first instance lets go, the second can take over
	instanceA.StopProgression("o-1")
	require.Eventually(t, func() bool { return !instanceA.IsProgressing("o-1") }, 2*time.Second, 5*time.Millisecond)

	require.True(t, instanceB.StartProgression("o-1"))
	waitForSleepers(t, clockB, 1)
}

func TestEngine_LostLeaseStopsDriver(t *testing.T) {
	mr, client := newLeaseRedis(t)
	store := newMemoryStore(newTestOrder("o-1", OrderStatusPreparing))
	hub := NewHub(4)
	defer hub.Close()

	clock := newFakeClock()
	engine := newLeasedEngine(store, clock, hub, NewRedisLease(client, 30*time.Second), 10*time.Millisecond)
	defer engine.Shutdown()

	require.True(t, engine.StartProgression("o-1"))
	waitForSleepers(t, clock, 1)

	require.NoError(t, mr.Set("order:driver:o-1", "another-instance"))

	assert.Eventually(t, func() bool { return !engine.IsProgressing("o-1") }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, OrderStatusPreparing, store.status("o-1"))
	got, err := mr.Get("order:driver:o-1")
	require.NoError(t, err)
	assert.Equal(t, "another-instance", got, "a stopped driver keeps its hands off the new owner's lease")
}
