// internal/domain/checkout/errors.go
package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("your cart is empty")
	ErrIncompleteAddress    = errors.New("please select an address or fill in street, city, state and zip code")
	ErrInvalidPaymentMethod = errors.New("payment method must be card or cash")
	ErrPersistFailed        = errors.New("could not place your order, please try again")
	ErrPromoRejected        = errors.New("promo code can no longer be applied")
)

// PersistFailedError wraps a storage failure while placing an order.
// The cart is left untouched so the caller can retry.
type PersistFailedError struct {
	Err error
}

func (e *PersistFailedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPersistFailed, e.Err)
}

func (e *PersistFailedError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPersistFailed) match
func (e *PersistFailedError) Is(target error) bool {
	return target == ErrPersistFailed
}

// PromoRejectedError reports why an applied code failed its checkout-time
// check. Err is one of the promo package's validation errors.
type PromoRejectedError struct {
	Code string
	Err  error
}

func (e *PromoRejectedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *PromoRejectedError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPromoRejected) match
func (e *PromoRejectedError) Is(target error) bool {
	return target == ErrPromoRejected
}
