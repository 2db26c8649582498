package promo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	codes   map[string]PromoCode
	err     error
	lookups []string
}

func (f *fakeStore) FindActivePromo(_ context.Context, code string) (*PromoCode, error) {
	f.lookups = append(f.lookups, code)
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.codes[code]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func newTestEvaluator(codes ...PromoCode) (*Evaluator, *fakeStore) {
	store := &fakeStore{codes: make(map[string]PromoCode)}
	for _, c := range codes {
		store.codes[c.Code] = c
	}
	return NewEvaluator(store).WithClock(func() time.Time { return fixedNow }), store
}

func TestEvaluate_Percentage(t *testing.T) {
	ev, _ := newTestEvaluator(PromoCode{ID: 1, Code: "WELCOME10", DiscountType: DiscountPercentage, DiscountValue: 10, IsActive: true})

	applied, err := ev.Evaluate(context.Background(), "WELCOME10", 200)
	require.NoError(t, err)
	assert.Equal(t, int64(20), applied.DiscountAmount)
	assert.Equal(t, int64(200), applied.Subtotal)
	assert.Equal(t, "WELCOME10", applied.Promo.Code)
}

func TestEvaluate_FixedClampedToSubtotal(t *testing.T) {
	ev, _ := newTestEvaluator(PromoCode{ID: 2, Code: "FLAT50", DiscountType: DiscountFixed, DiscountValue: 50, IsActive: true})

	applied, err := ev.Evaluate(context.Background(), "FLAT50", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(30), applied.DiscountAmount)

	applied, err = ev.Evaluate(context.Background(), "FLAT50", 8000)
	require.NoError(t, err)
	assert.Equal(t, int64(50), applied.DiscountAmount)
}

func TestEvaluate_DiscountNeverExceedsSubtotal(t *testing.T) {
	ev, _ := newTestEvaluator(
		PromoCode{Code: "HALF", DiscountType: DiscountPercentage, DiscountValue: 150, IsActive: true},
		PromoCode{Code: "BIG", DiscountType: DiscountFixed, DiscountValue: 100000, IsActive: true},
	)

	for _, code := range []string{"HALF", "BIG"} {
		for _, subtotal := range []int64{1, 99, 2500, 123456} {
			applied, err := ev.Evaluate(context.Background(), code, subtotal)
			require.NoError(t, err)
			assert.LessOrEqual(t, applied.DiscountAmount, subtotal)
			assert.GreaterOrEqual(t, applied.DiscountAmount, int64(0))
		}
	}
}

func TestEvaluate_CaseInsensitiveAndTrimmed(t *testing.T) {
	ev, store := newTestEvaluator(PromoCode{Code: "SAVE20", DiscountType: DiscountPercentage, DiscountValue: 20, IsActive: true})

	applied, err := ev.Evaluate(context.Background(), "  save20 ", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(200), applied.DiscountAmount)
	assert.Equal(t, []string{"SAVE20"}, store.lookups)
}

func TestEvaluate_ValidationOrder(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	tests := []struct {
		name     string
		promo    PromoCode
		subtotal int64
		wantErr  error
	}{
		{
			name:     "inactive beats everything",
			promo:    PromoCode{Code: "X", DiscountType: DiscountFixed, DiscountValue: 1, IsActive: false, ExpiresAt: &past, MaxUses: intPtr(1), CurrentUses: 5, MinOrderAmount: 999},
			subtotal: 1,
			wantErr:  ErrInvalidCode,
		},
		{
			name:     "expired beats usage and minimum",
			promo:    PromoCode{Code: "X", DiscountType: DiscountFixed, DiscountValue: 1, IsActive: true, ExpiresAt: &past, MaxUses: intPtr(1), CurrentUses: 5, MinOrderAmount: 999},
			subtotal: 1,
			wantErr:  ErrExpired,
		},
		{
			name:     "usage beats minimum",
			promo:    PromoCode{Code: "X", DiscountType: DiscountFixed, DiscountValue: 1, IsActive: true, ExpiresAt: &future, MaxUses: intPtr(3), CurrentUses: 3, MinOrderAmount: 999},
			subtotal: 1,
			wantErr:  ErrUsageLimitExceeded,
		},
		{
			name:     "minimum not met",
			promo:    PromoCode{Code: "X", DiscountType: DiscountFixed, DiscountValue: 1, IsActive: true, MaxUses: intPtr(3), CurrentUses: 2, MinOrderAmount: 1500},
			subtotal: 1499,
			wantErr:  ErrMinimumNotMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, _ := newTestEvaluator(tt.promo)
			_, err := ev.Evaluate(context.Background(), "x", tt.subtotal)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestEvaluate_MinimumMessageIncludesAmount(t *testing.T) {
	ev, _ := newTestEvaluator(PromoCode{Code: "SAVE20", DiscountType: DiscountPercentage, DiscountValue: 20, MinOrderAmount: 2500, IsActive: true})

	_, err := ev.Evaluate(context.Background(), "SAVE20", 1000)
	require.Error(t, err)

	var minErr *MinimumNotMetError
	require.True(t, errors.As(err, &minErr))
	assert.Equal(t, int64(2500), minErr.Required)
	assert.Contains(t, err.Error(), "$25.00")
}

func TestEvaluate_ExactMinimumAndUnexpired(t *testing.T) {
	ev, _ := newTestEvaluator(PromoCode{
		Code: "EDGE", DiscountType: DiscountFixed, DiscountValue: 100, IsActive: true,
		MinOrderAmount: 1000, ExpiresAt: timePtr(fixedNow.Add(time.Second)), MaxUses: intPtr(2), CurrentUses: 1,
	})

	applied, err := ev.Evaluate(context.Background(), "EDGE", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), applied.DiscountAmount)
}

func TestEvaluate_UnknownAndBlank(t *testing.T) {
	ev, store := newTestEvaluator()

	_, err := ev.Evaluate(context.Background(), "NOPE", 1000)
	assert.ErrorIs(t, err, ErrInvalidCode)

	_, err = ev.Evaluate(context.Background(), "   ", 1000)
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, []string{"NOPE"}, store.lookups, "blank code never reaches the store")
}

func TestEvaluate_StoreFailureIsWrapped(t *testing.T) {
	ev, store := newTestEvaluator()
	store.err = errors.New("connection refused")

	_, err := ev.Evaluate(context.Background(), "WELCOME10", 1000)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCode)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAppliedPromo_DiscountFor(t *testing.T) {
	applied := &AppliedPromo{Promo: PromoCode{DiscountType: DiscountFixed, DiscountValue: 5000}}
	assert.Equal(t, int64(3000), applied.DiscountFor(3000))
	assert.Equal(t, int64(5000), applied.DiscountFor(9000))

	var none *AppliedPromo
	assert.Equal(t, int64(0), none.DiscountFor(9000))
}

func TestPromoCode_Label(t *testing.T) {
	assert.Equal(t, "10% off", (&PromoCode{DiscountType: DiscountPercentage, DiscountValue: 10}).Label())
	assert.Equal(t, "$50.00 off", (&PromoCode{DiscountType: DiscountFixed, DiscountValue: 5000}).Label())
}
