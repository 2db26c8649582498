// internal/domain/promo/evaluator.go
package promo

import (
	"context"
	"fmt"
	"time"
)

// Store looks up promo codes by canonical code
type Store interface {
	// FindActivePromo returns nil, nil when no active code matches
	FindActivePromo(ctx context.Context, code string) (*PromoCode, error)
}

// Evaluator validates and prices promo codes
type Evaluator struct {
	store Store
	now   func() time.Time
}

// NewEvaluator creates a new promo evaluator
func NewEvaluator(store Store) *Evaluator {
	return &Evaluator{
		store: store,
		now:   time.Now,
	}
}

// WithClock overrides the evaluator's notion of now
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Evaluate checks code against subtotal. Checks run in order and the first
// failure wins: existence, expiry, usage limit, minimum order.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotal int64) (*AppliedPromo, error) {
	canonical := Canonicalize(code)
	if canonical == "" {
		return nil, ErrInvalidCode
	}

	promo, err := e.store.FindActivePromo(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to look up promo code: %w", err)
	}
	if promo == nil || !promo.IsActive {
		return nil, ErrInvalidCode
	}

	now := e.now()
	if promo.ExpiresAt != nil && promo.ExpiresAt.Before(now) {
		return nil, ErrExpired
	}

	if promo.MaxUses != nil && promo.CurrentUses >= *promo.MaxUses {
		return nil, ErrUsageLimitExceeded
	}

	if promo.MinOrderAmount > 0 && subtotal < promo.MinOrderAmount {
		return nil, &MinimumNotMetError{Required: promo.MinOrderAmount, Subtotal: subtotal}
	}

	return &AppliedPromo{
		Promo:          *promo,
		DiscountAmount: promo.DiscountFor(subtotal),
		Subtotal:       subtotal,
		AppliedAt:      now.UTC(),
	}, nil
}
