// internal/domain/promo/repository.go
package promo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository is the gorm-backed promo code store
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new promo repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindActivePromo retrieves an active promo code by its canonical code
func (r *Repository) FindActivePromo(ctx context.Context, code string) (*PromoCode, error) {
	var promo PromoCode
	result := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", Canonicalize(code), true).
		First(&promo)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve promo code: %w", result.Error)
	}

	return &promo, nil
}

// Redeem records one use of a promo code. It fails with
// ErrUsageLimitExceeded when the code has no uses left, so concurrent
// checkouts cannot push current_uses past max_uses.
func (r *Repository) Redeem(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&PromoCode{}).
		Where("id = ? AND (max_uses IS NULL OR current_uses < max_uses)", id).
		UpdateColumn("current_uses", gorm.Expr("current_uses + ?", 1))

	if result.Error != nil {
		return fmt.Errorf("failed to redeem promo code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUsageLimitExceeded
	}
	return nil
}

// Release gives back a use recorded by Redeem
func (r *Repository) Release(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&PromoCode{}).
		Where("id = ? AND current_uses > 0", id).
		UpdateColumn("current_uses", gorm.Expr("current_uses - ?", 1))

	if result.Error != nil {
		return fmt.Errorf("failed to release promo code: %w", result.Error)
	}
	return nil
}
