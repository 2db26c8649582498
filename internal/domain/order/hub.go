// internal/domain/order/hub.go
package order

import (
	"context"
	"sync"
)

const defaultSubscriberBuffer = 8

// Hub is an in-process Notifier. Each subscriber gets its own goroutine and
// a bounded buffer; when the buffer is full the oldest snapshot is dropped,
// so Publish never blocks on a slow subscriber.
type Hub struct {
	buffer int

	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
	wg     sync.WaitGroup
}

type subscriber struct {
	ch       chan *Order
	done     chan struct{}
	stopOnce sync.Once
	fn       func(*Order)
}

// NewHub creates a hub with the given per-subscriber buffer size
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// Publish delivers a copy of o to every subscriber of o.ID
func (h *Hub) Publish(_ context.Context, o *Order) error {
	if o == nil {
		return nil
	}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs[o.ID]))
	for s := range h.subs[o.ID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.offer(o.Clone())
	}
	return nil
}

// Subscribe registers fn for snapshots of one order. The returned function
// releases the subscription and may be called more than once.
func (h *Hub) Subscribe(orderID string, fn func(*Order)) func() {
	s := &subscriber{
		ch:   make(chan *Order, h.buffer),
		done: make(chan struct{}),
		fn:   fn,
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return func() {}
	}
	if h.subs[orderID] == nil {
		h.subs[orderID] = make(map[*subscriber]struct{})
	}
	h.subs[orderID][s] = struct{}{}
	h.wg.Add(1)
	h.mu.Unlock()

	go func() {
		defer h.wg.Done()
		s.run()
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[orderID], s)
			if len(h.subs[orderID]) == 0 {
				delete(h.subs, orderID)
			}
			h.mu.Unlock()
			s.stop()
		})
	}
}

// SubscriberCount returns the number of live subscriptions for an order
func (h *Hub) SubscriberCount(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orderID])
}

// Close releases every subscription and waits for their goroutines to exit
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	all := h.subs
	h.subs = make(map[string]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for s := range set {
			s.stop()
		}
	}
	h.wg.Wait()
}

func (s *subscriber) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *subscriber) offer(o *Order) {
	for {
		select {
		case s.ch <- o:
			return
		default:
		}
		// Full: drop the oldest and retry
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case o := <-s.ch:
			select {
			case <-s.done:
				return
			default:
			}
			s.fn(o)
		}
	}
}
