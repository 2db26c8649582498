// internal/domain/order/engine.go
package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Options configures the lifecycle engine
type Options struct {
	// Dwell is how long an order stays in a status before the driver advances it
	Dwell         map[OrderStatus]time.Duration
	RetryInterval time.Duration
	Drivers       []string
	Clock         Clock

	// Lease coordinates drivers across instances. Nil keeps the
	// one-driver guarantee local to this process.
	Lease        Lease
	LeaseRefresh time.Duration
}

// Engine walks orders through the delivery lifecycle. At most one driver
// goroutine runs per order id, across instances when a Lease is set; each
// driver re-reads the stored order before every step so external
// cancellations and corrections are honoured.
type Engine struct {
	store    Store
	notifier Notifier
	logger   logrus.FieldLogger

	clock   Clock
	dwell   map[OrderStatus]time.Duration
	retry   time.Duration
	roster  []string
	nextIdx atomic.Uint64

	lease        Lease
	leaseRefresh time.Duration

	mu      sync.Mutex
	running map[string]*driver
	closed  bool
	wg      sync.WaitGroup
}

type driver struct {
	cancel context.CancelFunc
}

// NewEngine creates a lifecycle engine
func NewEngine(store Store, notifier Notifier, logger logrus.FieldLogger, opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	retry := opts.RetryInterval
	if retry <= 0 {
		retry = 5 * time.Second
	}
	leaseRefresh := opts.LeaseRefresh
	if leaseRefresh <= 0 {
		leaseRefresh = 10 * time.Second
	}
	dwell := make(map[OrderStatus]time.Duration, len(opts.Dwell))
	for status, d := range opts.Dwell {
		dwell[status] = d
	}

	return &Engine{
		store:    store,
		notifier: notifier,
		logger:   logger,
		clock:    clock,
		dwell:    dwell,
		retry:    retry,
		roster:   append([]string(nil), opts.Drivers...),
		running:  make(map[string]*driver),

		lease:        opts.Lease,
		leaseRefresh: leaseRefresh,
	}
}

// Get returns the persisted snapshot of an order
func (e *Engine) Get(ctx context.Context, id string) (*Order, error) {
	return e.store.GetOrder(ctx, id)
}

// Subscribe registers fn for every new snapshot of the order
func (e *Engine) Subscribe(id string, fn func(*Order)) (unsubscribe func()) {
	return e.notifier.Subscribe(id, fn)
}

// Advance moves the order one step forward
func (e *Engine) Advance(ctx context.Context, id string) (*Order, error) {
	o, err := e.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return e.transition(ctx, o)
}

// StartProgression starts the background driver for an order. It returns
// false if a driver is already running for id, here or on another instance
// holding the lease, or the engine is shut down.
func (e *Engine) StartProgression(id string) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	if _, ok := e.running[id]; ok {
		e.mu.Unlock()
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &driver{cancel: cancel}
	e.running[id] = d
	e.wg.Add(1)
	e.mu.Unlock()

	if !e.acquireLease(ctx, id) {
		e.release(id, d)
		e.wg.Done()
		return false
	}

	go func() {
		defer e.wg.Done()
		defer e.release(id, d)
		defer e.releaseLease(id)

		if e.lease != nil {
			e.wg.Add(1)
			go func() {
				defer e.wg.Done()
				e.keepLease(ctx, id, d)
			}()
		}
		e.drive(ctx, id)
	}()

	return true
}

// StopProgression cancels the driver for an order, if any
func (e *Engine) StopProgression(id string) {
	e.mu.Lock()
	d, ok := e.running[id]
	e.mu.Unlock()

	if ok {
		d.cancel()
	}
}

// IsProgressing reports whether a driver is running for id
func (e *Engine) IsProgressing(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.running[id]
	return ok
}

// ResumeActive starts drivers for every stored order that is still in progress
func (e *Engine) ResumeActive(ctx context.Context) (int, error) {
	orders, err := e.store.ListActiveOrders(ctx)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, o := range orders {
		if e.StartProgression(o.ID) {
			started++
		}
	}
	return started, nil
}

// Shutdown stops every driver and waits for them to exit
func (e *Engine) Shutdown() {
	e.mu.Lock()
	e.closed = true
	for _, d := range e.running {
		d.cancel()
	}
	e.mu.Unlock()

	e.wg.Wait()
}

// Private helper methods

func (e *Engine) release(id string, d *driver) {
	d.cancel()
	e.mu.Lock()
	if e.running[id] == d {
		delete(e.running, id)
	}
	e.mu.Unlock()
}

func (e *Engine) acquireLease(ctx context.Context, id string) bool {
	if e.lease == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	ok, err := e.lease.Acquire(ctx, id)
	if err != nil {
		e.logger.WithError(err).WithField("order_id", id).Warn("Failed to acquire driver lease")
		return false
	}
	if !ok {
		e.logger.WithField("order_id", id).Debug("Order is driven by another instance")
	}
	return ok
}

func (e *Engine) releaseLease(id string) {
	if e.lease == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := e.lease.Release(ctx, id); err != nil {
		e.logger.WithError(err).WithField("order_id", id).Warn("Failed to release driver lease")
	}
}

// keepLease refreshes the lease until the driver ends and stops the driver
// if another instance has taken the order over
func (e *Engine) keepLease(ctx context.Context, id string, d *driver) {
	ticker := time.NewTicker(e.leaseRefresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		held, err := e.lease.Refresh(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			e.logger.WithError(err).WithField("order_id", id).Warn("Failed to refresh driver lease")
			continue
		}
		if !held {
			e.logger.WithField("order_id", id).Warn("Driver lease lost, stopping progression")
			d.cancel()
			return
		}
	}
}

func (e *Engine) drive(ctx context.Context, id string) {
	log := e.logger.WithField("order_id", id)

	o, ok := e.load(ctx, id)
	for ok && !o.Status.IsTerminal() {
		observed := o.Status
		if !e.sleep(ctx, e.dwell[observed]) {
			return
		}

		if o, ok = e.load(ctx, id); !ok {
			return
		}
		if o.Status != observed {
			// Changed externally; dwell again on the new status
			continue
		}

		updated, err := e.transition(ctx, o)
		switch {
		case err == nil:
			o = updated
		case errors.Is(err, ErrOrderNotFound):
			return
		case errors.Is(err, ErrStatusConflict), errors.Is(err, ErrOrderTerminal):
			o, ok = e.load(ctx, id)
		default:
			log.WithError(err).Warn("Failed to advance order, retrying")
			if !e.sleep(ctx, e.retry) {
				return
			}
			o, ok = e.load(ctx, id)
		}
	}

	if ok {
		log.WithField("status", o.Status).Debug("Order progression finished")
	}
}

// load reads the order, retrying transient failures. It returns false when
// the order is gone or the driver was cancelled.
func (e *Engine) load(ctx context.Context, id string) (*Order, bool) {
	for {
		o, err := e.store.GetOrder(ctx, id)
		if err == nil {
			return o, true
		}
		if errors.Is(err, ErrOrderNotFound) {
			e.logger.WithField("order_id", id).Warn("Order disappeared, stopping progression")
			return nil, false
		}
		if ctx.Err() != nil {
			return nil, false
		}

		e.logger.WithError(err).WithField("order_id", id).Warn("Failed to read order, retrying")
		if !e.sleep(ctx, e.retry) {
			return nil, false
		}
	}
}

func (e *Engine) transition(ctx context.Context, o *Order) (*Order, error) {
	next, ok := o.Status.Next()
	if !ok {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderTerminal, o.ID, o.Status)
	}

	change := StatusChange{
		From:    o.Status,
		To:      next,
		Comment: next.Label(),
		At:      e.clock.Now().UTC(),
	}
	if next == OrderStatusPickedUp && len(e.roster) > 0 {
		name := e.assignDriver()
		change.DriverName = &name
		change.Comment = fmt.Sprintf("Picked up by %s", name)
	}

	if err := e.store.UpdateOrderStatus(ctx, o.ID, change); err != nil {
		return nil, err
	}

	updated, err := e.store.GetOrder(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}

	if err := e.notifier.Publish(ctx, updated); err != nil {
		e.logger.WithError(err).WithField("order_id", o.ID).Warn("Failed to publish order update")
	}

	e.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"from":     change.From,
		"to":       change.To,
	}).Info("Order status advanced")

	return updated, nil
}

func (e *Engine) assignDriver() string {
	idx := e.nextIdx.Add(1) - 1
	return e.roster[idx%uint64(len(e.roster))]
}

// sleep waits for d without holding any lock. It returns false if ctx ends first.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-e.clock.After(d):
		return true
	}
}
