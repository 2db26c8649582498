// internal/domain/cart/engine.go
package cart

import (
	"sync"
	"time"

	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
)

// Engine owns a single-restaurant draft order. Each mutation runs its whole
// read-modify-write under the engine lock; observers are notified after the
// lock is released.
type Engine struct {
	mu    sync.Mutex
	lines []Line

	observerMu   sync.Mutex
	observers    map[int]func(Event)
	nextObserver int

	now func() time.Time
}

// NewEngine creates an empty cart
func NewEngine() *Engine {
	return &Engine{
		observers: make(map[int]func(Event)),
		now:       time.Now,
	}
}

// Restore rebuilds a cart from stored lines. Lines with a non-positive
// quantity and lines from a restaurant other than the first are dropped.
func Restore(lines []Line) *Engine {
	e := NewEngine()
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		if len(e.lines) > 0 && e.lines[0].RestaurantID != line.RestaurantID {
			continue
		}
		e.lines = append(e.lines, line)
	}
	return e
}

// Observe registers fn for cart events and returns a function that removes it
func (e *Engine) Observe(fn func(Event)) (cancel func()) {
	e.observerMu.Lock()
	id := e.nextObserver
	e.nextObserver++
	e.observers[id] = fn
	e.observerMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.observerMu.Lock()
			delete(e.observers, id)
			e.observerMu.Unlock()
		})
	}
}

// AddItem adds one unit of item. An item already in the cart has its quantity
// incremented. Items from another restaurant are rejected and leave the cart unchanged.
func (e *Engine) AddItem(item catalog.MenuItem, restaurantID, restaurantName string) error {
	e.mu.Lock()

	if len(e.lines) > 0 && e.lines[0].RestaurantID != restaurantID {
		current := e.lines[0]
		e.mu.Unlock()
		return &DifferentRestaurantError{
			CurrentRestaurantID:     current.RestaurantID,
			CurrentRestaurantName:   current.RestaurantName,
			RequestedRestaurantID:   restaurantID,
			RequestedRestaurantName: restaurantName,
		}
	}

	next := e.copyLines()
	quantity := 1
	found := false
	for i := range next {
		if next[i].MenuItem.ID == item.ID {
			next[i].Quantity++
			quantity = next[i].Quantity
			found = true
			break
		}
	}
	if !found {
		next = append(next, Line{
			MenuItem:       item,
			Quantity:       1,
			RestaurantID:   restaurantID,
			RestaurantName: restaurantName,
		})
	}
	e.lines = next
	ev := e.event(EventItemAdded, item.ID, item.Name, quantity)
	e.mu.Unlock()

	e.emit(ev)
	return nil
}

// UpdateQuantity sets the quantity of an item. A quantity of zero or less
// removes the line; unknown items are ignored.
func (e *Engine) UpdateQuantity(itemID string, quantity int) {
	if quantity <= 0 {
		e.RemoveItem(itemID)
		return
	}

	e.mu.Lock()
	next := e.copyLines()
	idx := indexOf(next, itemID)
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	next[idx].Quantity = quantity
	e.lines = next
	ev := e.event(EventQuantityUpdated, itemID, next[idx].MenuItem.Name, quantity)
	e.mu.Unlock()

	e.emit(ev)
}

// RemoveItem deletes the line for itemID if present
func (e *Engine) RemoveItem(itemID string) {
	e.mu.Lock()
	idx := indexOf(e.lines, itemID)
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	name := e.lines[idx].MenuItem.Name
	next := make([]Line, 0, len(e.lines)-1)
	next = append(next, e.lines[:idx]...)
	next = append(next, e.lines[idx+1:]...)
	e.lines = next
	ev := e.event(EventItemRemoved, itemID, name, 0)
	e.mu.Unlock()

	e.emit(ev)
}

// Clear empties the cart
func (e *Engine) Clear() {
	e.mu.Lock()
	e.lines = nil
	ev := e.event(EventCleared, "", "", 0)
	e.mu.Unlock()

	e.emit(ev)
}

// Lines returns a copy of the cart lines in insertion order
func (e *Engine) Lines() []Line {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.copyLines()
}

// Subtotal sums price times quantity over all lines
func (e *Engine) Subtotal() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return subtotal(e.lines)
}

// ItemCount sums quantities over all lines
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return itemCount(e.lines)
}

// IsEmpty reports whether the cart has no lines
func (e *Engine) IsEmpty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.lines) == 0
}

// Restaurant returns the id and name of the restaurant the cart belongs to
func (e *Engine) Restaurant() (id, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.lines) == 0 {
		return "", ""
	}
	return e.lines[0].RestaurantID, e.lines[0].RestaurantName
}

// Snapshot returns the lines and derived totals in one consistent read
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Lines: e.copyLines(),
		Summary: Summary{
			LineCount: len(e.lines),
			ItemCount: itemCount(e.lines),
			Subtotal:  subtotal(e.lines),
		},
	}
	if len(e.lines) > 0 {
		snap.RestaurantID = e.lines[0].RestaurantID
		snap.RestaurantName = e.lines[0].RestaurantName
	}
	return snap
}

// Private helper methods

func (e *Engine) copyLines() []Line {
	out := make([]Line, len(e.lines))
	copy(out, e.lines)
	return out
}

// event must be called with e.mu held
func (e *Engine) event(kind EventKind, itemID, itemName string, quantity int) Event {
	return Event{
		Kind:     kind,
		ItemID:   itemID,
		ItemName: itemName,
		Quantity: quantity,
		Lines:    e.copyLines(),
		At:       e.now().UTC(),
	}
}

func (e *Engine) emit(ev Event) {
	e.observerMu.Lock()
	fns := make([]func(Event), 0, len(e.observers))
	for _, fn := range e.observers {
		fns = append(fns, fn)
	}
	e.observerMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func indexOf(lines []Line, itemID string) int {
	for i := range lines {
		if lines[i].MenuItem.ID == itemID {
			return i
		}
	}
	return -1
}

func subtotal(lines []Line) int64 {
	var total int64
	for _, line := range lines {
		total += line.Total()
	}
	return total
}

func itemCount(lines []Line) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}
