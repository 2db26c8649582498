package handlers

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/your-org/food-delivery-backend/internal/domain/order"
	"github.com/your-org/food-delivery-backend/internal/domain/user"
)

// memoryOrders is an order.Store with compare-and-set status updates
type memoryOrders struct {
	mu     sync.Mutex
	orders map[string]*order.Order
	err    error
}

func newMemoryOrders() *memoryOrders {
	return &memoryOrders{orders: make(map[string]*order.Order)}
}

func (m *memoryOrders) CreateOrder(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.orders[o.ID] = o.Clone()
	return nil
}

func (m *memoryOrders) GetOrder(_ context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (m *memoryOrders) UpdateOrderStatus(_ context.Context, id string, change order.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	if o.Status != change.From {
		return fmt.Errorf("%w: expected %s", order.ErrStatusConflict, change.From)
	}
	o.Status = change.To
	if change.DriverName != nil {
		o.DriverName = change.DriverName
	}
	o.StatusHistory = append(o.StatusHistory, order.OrderStatusHistory{
		OrderID: id,
		Status:  change.To,
		Comment: change.Comment,
	})
	return nil
}

func (m *memoryOrders) ListOrders(_ context.Context, userID uint) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryOrders) ListActiveOrders(_ context.Context) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.orders {
		if !o.Status.IsTerminal() {
			out = append(out, *o.Clone())
		}
	}
	return out, nil
}

func (m *memoryOrders) put(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o.Clone()
}

type memoryAddresses struct {
	saved map[uint]*user.Address
	next  uint
}

func newMemoryAddresses() *memoryAddresses {
	return &memoryAddresses{saved: make(map[uint]*user.Address), next: 1}
}

func (b *memoryAddresses) GetAddress(_ context.Context, userID, addressID uint) (*user.Address, error) {
	a, ok := b.saved[addressID]
	if !ok || a.UserID != userID {
		return nil, user.ErrAddressNotFound
	}
	return a, nil
}

func (b *memoryAddresses) CreateAddress(_ context.Context, userID uint, req *user.CreateAddressRequest) (*user.Address, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	a := &user.Address{
		ID:            b.next,
		UserID:        userID,
		Label:         req.Label,
		StreetAddress: req.StreetAddress,
		Apartment:     req.Apartment,
		City:          req.City,
		State:         req.State,
		ZipCode:       req.ZipCode,
		IsDefault:     len(b.saved) == 0,
	}
	b.saved[a.ID] = a
	b.next++
	return a, nil
}

type countingRedeemer struct {
	mu       sync.Mutex
	redeemed []uint
	released []uint
}

func (r *countingRedeemer) Redeem(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redeemed = append(r.redeemed, id)
	return nil
}

func (r *countingRedeemer) Release(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.released = append(r.released, id)
	return nil
}

type stubReceipts struct {
	err error
}

func (s stubReceipts) GenerateReceipt(o *order.Order) (*bytes.Buffer, error) {
	if s.err != nil {
		return nil, s.err
	}
	return bytes.NewBufferString("%PDF-1.4 receipt " + o.ID), nil
}
