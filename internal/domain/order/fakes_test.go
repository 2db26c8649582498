package order

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// memoryStore is an in-memory Store with compare-and-set updates
type memoryStore struct {
	mu          sync.Mutex
	orders      map[string]*Order
	transitions map[string][]OrderStatus
	failReads   int
}

func newMemoryStore(orders ...*Order) *memoryStore {
	s := &memoryStore{
		orders:      make(map[string]*Order),
		transitions: make(map[string][]OrderStatus),
	}
	for _, o := range orders {
		s.orders[o.ID] = o.Clone()
	}
	return s
}

func (s *memoryStore) CreateOrder(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *memoryStore) GetOrder(_ context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failReads > 0 {
		s.failReads--
		return nil, errors.New("connection reset by peer")
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *memoryStore) UpdateOrderStatus(_ context.Context, id string, change StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != change.From {
		return ErrStatusConflict
	}
	o.Status = change.To
	if change.DriverName != nil {
		name := *change.DriverName
		o.DriverName = &name
	}
	o.StatusHistory = append(o.StatusHistory, OrderStatusHistory{OrderID: id, Status: change.To, Comment: change.Comment, CreatedAt: change.At})
	s.transitions[id] = append(s.transitions[id], change.To)
	return nil
}

func (s *memoryStore) ListOrders(_ context.Context, userID uint) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, *o.Clone())
		}
	}
	return out, nil
}

func (s *memoryStore) ListActiveOrders(_ context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if !o.Status.IsTerminal() {
			out = append(out, *o.Clone())
		}
	}
	return out, nil
}

// setStatus changes the stored status the way an outside actor would
func (s *memoryStore) setStatus(id string, status OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[id].Status = status
}

func (s *memoryStore) status(id string) OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Status
}

func (s *memoryStore) transitionsFor(id string) []OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]OrderStatus(nil), s.transitions[id]...)
}

func (s *memoryStore) failNextReads(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failReads = n
}

// fakeClock fires After channels only when advanced
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []clockWaiter
}

type clockWaiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.waiters = append(c.waiters, clockWaiter{at: c.now.Add(d), ch: ch})
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.ch <- c.now
			continue
		}
		pending = append(pending, w)
	}
	c.waiters = pending
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// waitForSleepers blocks until n goroutines are waiting on the clock
func waitForSleepers(t *testing.T, c *fakeClock, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return c.pending() >= n }, 2*time.Second, time.Millisecond)
}

func newTestOrder(id string, status OrderStatus) *Order {
	return &Order{
		ID:             id,
		UserID:         1,
		RestaurantID:   "r1",
		RestaurantName: "Burger Barn",
		Items: []OrderItem{
			{MenuItemID: "m1", Name: "Classic Burger", Price: 1250, Quantity: 2},
		},
		SubtotalAmount:    2500,
		DeliveryFee:       299,
		TotalAmount:       2799,
		PaymentMethod:     PaymentMethodCard,
		Status:            status,
		EstimatedDelivery: time.Date(2024, 5, 1, 12, 35, 0, 0, time.UTC),
	}
}

func uniformDwell(d time.Duration) map[OrderStatus]time.Duration {
	return map[OrderStatus]time.Duration{
		OrderStatusConfirmed: d,
		OrderStatusPreparing: d,
		OrderStatusPickedUp:  d,
		OrderStatusOnTheWay:  d,
	}
}
