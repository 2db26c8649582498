// internal/domain/promo/entity.go
package promo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/your-org/food-delivery-backend/internal/pkg/money"
)

// DiscountType represents how a promo discount is computed
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var (
	ErrInvalidCode        = errors.New("invalid promo code")
	ErrExpired            = errors.New("this promo code has expired")
	ErrUsageLimitExceeded = errors.New("this promo code has reached its usage limit")
	ErrMinimumNotMet      = errors.New("minimum order amount not met")
)

// IsRejection reports whether err is a validation outcome the customer can
// correct, as opposed to a lookup failure
func IsRejection(err error) bool {
	return errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrUsageLimitExceeded) ||
		errors.Is(err, ErrMinimumNotMet)
}

// MinimumNotMetError carries the minimum subtotal a code requires
type MinimumNotMetError struct {
	Required int64
	Subtotal int64
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("minimum order amount of %s required for this code", money.Format(e.Required))
}

// Is lets errors.Is(err, ErrMinimumNotMet) match
func (e *MinimumNotMetError) Is(target error) bool {
	return target == ErrMinimumNotMet
}

// PromoCode represents a discount code
type PromoCode struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Code           string       `gorm:"uniqueIndex;not null;size:50" json:"code"`
	DiscountType   DiscountType `gorm:"not null;size:20" json:"discount_type"`
	DiscountValue  int64        `gorm:"not null" json:"discount_value"`    // Percent for percentage, cents for fixed
	MinOrderAmount int64        `gorm:"default:0" json:"min_order_amount"` // In cents
	ExpiresAt      *time.Time   `json:"expires_at,omitempty"`
	MaxUses        *int         `json:"max_uses,omitempty"`
	CurrentUses    int          `gorm:"default:0" json:"current_uses"`
	IsActive       bool         `gorm:"default:true" json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TableName overrides the table name
func (PromoCode) TableName() string {
	return "promo_codes"
}

// Canonicalize returns the stored form of a user-entered code
func Canonicalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DiscountFor computes the discount this code grants on subtotal,
// clamped so that it never exceeds the subtotal
func (p *PromoCode) DiscountFor(subtotal int64) int64 {
	if subtotal <= 0 {
		return 0
	}

	var discount int64
	switch p.DiscountType {
	case DiscountPercentage:
		discount = subtotal * p.DiscountValue / 100
	case DiscountFixed:
		discount = p.DiscountValue
	}

	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

// Label renders the discount for display, e.g. "10% off" or "$5.00 off"
func (p *PromoCode) Label() string {
	if p.DiscountType == DiscountPercentage {
		return fmt.Sprintf("%d%% off", p.DiscountValue)
	}
	return fmt.Sprintf("%s off", money.Format(p.DiscountValue))
}

// AppliedPromo is a promo snapshot attached to a checkout session
type AppliedPromo struct {
	Promo          PromoCode `json:"promo"`
	DiscountAmount int64     `json:"discount_amount"`
	Subtotal       int64     `json:"subtotal"` // Subtotal the discount was computed against
	AppliedAt      time.Time `json:"applied_at"`
}

// DiscountFor recomputes the discount for a possibly changed subtotal
func (a *AppliedPromo) DiscountFor(subtotal int64) int64 {
	if a == nil {
		return 0
	}
	return a.Promo.DiscountFor(subtotal)
}
