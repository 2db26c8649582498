// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/food-delivery-backend/internal/domain/cart"
	"github.com/your-org/food-delivery-backend/internal/domain/checkout"
	"github.com/your-org/food-delivery-backend/internal/domain/order"
	"github.com/your-org/food-delivery-backend/internal/domain/promo"
	"github.com/your-org/food-delivery-backend/internal/domain/user"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/middleware"
)

// CheckoutHandler turns the session cart into an order
type CheckoutHandler struct {
	assembler *checkout.Assembler
	carts     *cart.SessionStore
	promos    *promo.SessionStore
	logger    logrus.FieldLogger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(assembler *checkout.Assembler, carts *cart.SessionStore, promos *promo.SessionStore, logger logrus.FieldLogger) *CheckoutHandler {
	return &CheckoutHandler{
		assembler: assembler,
		carts:     carts,
		promos:    promos,
		logger:    logger,
	}
}

// CheckoutRequest selects a saved address or supplies a new one
type CheckoutRequest struct {
	AddressID     *uint                      `json:"address_id"`
	NewAddress    *user.CreateAddressRequest `json:"new_address"`
	PaymentMethod order.PaymentMethod        `json:"payment_method"`
}

// PlaceOrder handles POST /checkout
func (h *CheckoutHandler) PlaceOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	sessionID := middleware.GetSessionIDFromContext(c)
	log := h.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"user_id":    userID,
	})

	engine, err := h.carts.Load(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("Failed to load cart for checkout")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	applied, err := h.promos.Load(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("Failed to load applied promo for checkout")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	placed, err := h.assembler.Submit(ctx, checkout.SubmitRequest{
		UserID:        userID,
		Cart:          engine,
		AddressID:     req.AddressID,
		NewAddress:    req.NewAddress,
		PaymentMethod: req.PaymentMethod,
		Promo:         applied,
	})
	if err != nil {
		status, message := checkoutFailure(err)
		if status >= http.StatusInternalServerError {
			log.WithError(err).Error("Checkout failed")
		}
		c.JSON(status, gin.H{
			"error": message,
		})
		return
	}

	// Order is placed; session cleanup failures are only logged
	if err := h.carts.Save(ctx, sessionID, engine); err != nil {
		log.WithError(err).Warn("Failed to clear session cart after checkout")
	}
	if err := h.promos.Delete(ctx, sessionID); err != nil {
		log.WithError(err).Warn("Failed to clear applied promo after checkout")
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data": gin.H{
			"order": placed,
			"eta":   order.EstimateRemaining(placed, time.Now()),
		},
	})
}

func checkoutFailure(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		return http.StatusBadRequest, "Your cart is empty"
	case errors.Is(err, checkout.ErrIncompleteAddress):
		return http.StatusUnprocessableEntity, "Please provide a complete delivery address"
	case errors.Is(err, checkout.ErrInvalidPaymentMethod):
		return http.StatusUnprocessableEntity, "Please choose card or cash"
	case errors.Is(err, checkout.ErrPromoRejected):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, checkout.ErrPersistFailed):
		return http.StatusServiceUnavailable, "We could not place your order. Please try again"
	default:
		return http.StatusInternalServerError, "Failed to place order"
	}
}
