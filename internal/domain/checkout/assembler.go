// internal/domain/checkout/assembler.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/your-org/food-delivery-backend/internal/domain/cart"
	"github.com/your-org/food-delivery-backend/internal/domain/order"
	"github.com/your-org/food-delivery-backend/internal/domain/promo"
	"github.com/your-org/food-delivery-backend/internal/domain/user"
)

// OrderStore persists placed orders
type OrderStore interface {
	CreateOrder(ctx context.Context, o *order.Order) error
}

// AddressBook resolves and saves delivery addresses
type AddressBook interface {
	GetAddress(ctx context.Context, userID, addressID uint) (*user.Address, error)
	CreateAddress(ctx context.Context, userID uint, req *user.CreateAddressRequest) (*user.Address, error)
}

// PromoValidator re-checks an applied code against the live code and subtotal
type PromoValidator interface {
	Evaluate(ctx context.Context, code string, subtotal int64) (*promo.AppliedPromo, error)
}

// PromoRedeemer records promo code uses. Redeem fails with
// promo.ErrUsageLimitExceeded once the code is used up.
type PromoRedeemer interface {
	Redeem(ctx context.Context, id uint) error
	Release(ctx context.Context, id uint) error
}

// Options configures pricing and hooks
type Options struct {
	DeliveryFee int64 // In cents
	ETAWindow   time.Duration
	Currency    string

	// OnPlaced runs after an order is stored and the cart cleared
	OnPlaced func(*order.Order)

	Now   func() time.Time
	NewID func() string
}

// SubmitRequest carries everything needed to place an order. Exactly one of
// AddressID and NewAddress is expected; AddressID wins when both are set.
type SubmitRequest struct {
	UserID        uint
	Cart          *cart.Engine
	AddressID     *uint
	NewAddress    *user.CreateAddressRequest
	PaymentMethod order.PaymentMethod
	Promo         *promo.AppliedPromo
}

// Assembler turns a cart into a placed order
type Assembler struct {
	orders    OrderStore
	addresses AddressBook
	validator PromoValidator
	promos    PromoRedeemer
	logger    logrus.FieldLogger
	opts      Options
}

// NewAssembler creates a new checkout assembler
func NewAssembler(orders OrderStore, addresses AddressBook, validator PromoValidator, promos PromoRedeemer, logger logrus.FieldLogger, opts Options) *Assembler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}

	return &Assembler{
		orders:    orders,
		addresses: addresses,
		validator: validator,
		promos:    promos,
		logger:    logger,
		opts:      opts,
	}
}

// Submit places the order. On success the cart is cleared; on any failure
// the cart is left as it was. An applied promo is validated again against the
// current subtotal and its use is reserved before the order is stored.
func (a *Assembler) Submit(ctx context.Context, req SubmitRequest) (*order.Order, error) {
	if req.Cart == nil || req.Cart.IsEmpty() {
		return nil, ErrEmptyCart
	}
	if req.AddressID == nil {
		if req.NewAddress == nil {
			return nil, ErrIncompleteAddress
		}
		if err := req.NewAddress.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIncompleteAddress, err)
		}
	}
	if !req.PaymentMethod.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}

	address, err := a.resolveAddress(ctx, req)
	if err != nil {
		return nil, err
	}

	snap := req.Cart.Snapshot()
	if len(snap.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]order.OrderItem, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		items = append(items, order.OrderItem{
			MenuItemID: line.MenuItem.ID,
			Name:       line.MenuItem.Name,
			Price:      line.MenuItem.Price,
			Quantity:   line.Quantity,
			Image:      line.MenuItem.Image,
		})
	}

	subtotal := snap.Summary.Subtotal
	applied, err := a.revalidatePromo(ctx, req.Promo, subtotal)
	if err != nil {
		return nil, err
	}
	discount := applied.DiscountFor(subtotal)
	now := a.opts.Now().UTC()

	placed := &order.Order{
		ID:             a.opts.NewID(),
		UserID:         req.UserID,
		RestaurantID:   snap.RestaurantID,
		RestaurantName: snap.RestaurantName,
		Items:          items,
		SubtotalAmount: subtotal,
		DiscountAmount: discount,
		DeliveryFee:    a.opts.DeliveryFee,
		TotalAmount:    subtotal - discount + a.opts.DeliveryFee,
		Currency:       a.opts.Currency,
		DeliveryAddress: order.DeliveryAddress{
			Label:         address.Label,
			StreetAddress: address.StreetAddress,
			Apartment:     address.Apartment,
			City:          address.City,
			State:         address.State,
			ZipCode:       address.ZipCode,
		},
		PaymentMethod:     req.PaymentMethod,
		Status:            order.OrderStatusConfirmed,
		EstimatedDelivery: now.Add(a.opts.ETAWindow),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	var redeemed *promo.PromoCode
	if applied != nil && discount > 0 {
		placed.PromoCode = applied.Promo.Code
		if err := a.redeem(ctx, &applied.Promo); err != nil {
			return nil, err
		}
		redeemed = &applied.Promo
	}

	if err := a.orders.CreateOrder(ctx, placed); err != nil {
		a.logger.WithError(err).WithField("user_id", req.UserID).Error("Failed to persist order")
		if redeemed != nil {
			a.releasePromo(redeemed)
		}
		return nil, &PersistFailedError{Err: err}
	}

	req.Cart.Clear()

	if req.AddressID == nil {
		a.saveAddress(ctx, req.UserID, req.NewAddress, placed.ID)
	}

	a.logger.WithFields(logrus.Fields{
		"order_id":   placed.ID,
		"user_id":    placed.UserID,
		"restaurant": placed.RestaurantID,
		"total":      placed.TotalAmount,
	}).Info("Order placed")

	if a.opts.OnPlaced != nil {
		a.opts.OnPlaced(placed)
	}

	return placed, nil
}

// resolveAddress loads a saved address or builds one from the request.
// A new address is only written to the address book once the order exists.
func (a *Assembler) resolveAddress(ctx context.Context, req SubmitRequest) (*user.Address, error) {
	if req.AddressID == nil {
		address := req.NewAddress.ToAddress(req.UserID)
		return &address, nil
	}

	address, err := a.addresses.GetAddress(ctx, req.UserID, *req.AddressID)
	if err != nil {
		if errors.Is(err, user.ErrAddressNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrIncompleteAddress, err)
		}
		return nil, &PersistFailedError{Err: err}
	}
	return address, nil
}

func (a *Assembler) revalidatePromo(ctx context.Context, applied *promo.AppliedPromo, subtotal int64) (*promo.AppliedPromo, error) {
	if applied == nil {
		return nil, nil
	}

	current, err := a.validator.Evaluate(ctx, applied.Promo.Code, subtotal)
	if err != nil {
		if promo.IsRejection(err) {
			return nil, &PromoRejectedError{Code: applied.Promo.Code, Err: err}
		}
		return nil, &PersistFailedError{Err: err}
	}
	return current, nil
}

func (a *Assembler) redeem(ctx context.Context, code *promo.PromoCode) error {
	if a.promos == nil {
		return nil
	}
	if err := a.promos.Redeem(ctx, code.ID); err != nil {
		if errors.Is(err, promo.ErrUsageLimitExceeded) {
			return &PromoRejectedError{Code: code.Code, Err: err}
		}
		return &PersistFailedError{Err: err}
	}
	return nil
}

func (a *Assembler) releasePromo(code *promo.PromoCode) {
	if a.promos == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.promos.Release(ctx, code.ID); err != nil {
		a.logger.WithError(err).WithField("code", code.Code).Warn("Failed to release promo code use")
	}
}

func (a *Assembler) saveAddress(ctx context.Context, userID uint, req *user.CreateAddressRequest, orderID string) {
	if _, err := a.addresses.CreateAddress(ctx, userID, req); err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{
			"order_id": orderID,
			"user_id":  userID,
		}).Warn("Failed to save delivery address to address book")
	}
}
