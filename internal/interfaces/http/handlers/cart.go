// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/food-delivery-backend/internal/domain/cart"
	"github.com/your-org/food-delivery-backend/internal/domain/catalog"
	"github.com/your-org/food-delivery-backend/internal/domain/promo"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/middleware"
)

// MenuLookup resolves a menu item together with its restaurant
type MenuLookup interface {
	GetMenuItem(ctx context.Context, restaurantID, itemID string) (*catalog.Restaurant, *catalog.MenuItem, error)
}

// CartHandler handles session cart and promo endpoints
type CartHandler struct {
	menu        MenuLookup
	carts       *cart.SessionStore
	promos      *promo.SessionStore
	evaluator   *promo.Evaluator
	deliveryFee int64
	logger      logrus.FieldLogger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(
	menu MenuLookup,
	carts *cart.SessionStore,
	promos *promo.SessionStore,
	evaluator *promo.Evaluator,
	deliveryFee int64,
	logger logrus.FieldLogger,
) *CartHandler {
	return &CartHandler{
		menu:        menu,
		carts:       carts,
		promos:      promos,
		evaluator:   evaluator,
		deliveryFee: deliveryFee,
		logger:      logger,
	}
}

// AddToCartRequest represents an add-item request
type AddToCartRequest struct {
	RestaurantID string `json:"restaurant_id" binding:"required"`
	MenuItemID   string `json:"menu_item_id" binding:"required"`
	// Replace empties a cart holding another restaurant's items before adding
	Replace bool `json:"replace"`
}

// UpdateCartItemRequest represents a quantity change
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0"`
}

// ApplyPromoRequest represents a promo code entry
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// CartView is the cart as the storefront renders it
type CartView struct {
	cart.Snapshot
	Promo          *promo.AppliedPromo `json:"promo,omitempty"`
	DiscountAmount int64               `json:"discount_amount"`
	DeliveryFee    int64               `json:"delivery_fee"`
	Total          int64               `json:"total"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)

	engine, err := h.carts.Load(c.Request.Context(), sessionID)
	if err != nil {
		h.storeFailure(c, "Failed to retrieve cart", err)
		return
	}

	view, err := h.view(c.Request.Context(), sessionID, engine)
	if err != nil {
		h.storeFailure(c, "Failed to retrieve cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    view,
	})
}

// GetCartCount handles GET /cart/count
func (h *CartHandler) GetCartCount(c *gin.Context) {
	engine, err := h.carts.Load(c.Request.Context(), middleware.GetSessionIDFromContext(c))
	if err != nil {
		h.storeFailure(c, "Failed to retrieve cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"count": engine.ItemCount()},
	})
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	sessionID := middleware.GetSessionIDFromContext(c)

	restaurant, item, err := h.menu.GetMenuItem(ctx, req.RestaurantID, req.MenuItemID)
	if err != nil {
		if errors.Is(err, catalog.ErrRestaurantNotFound) || errors.Is(err, catalog.ErrMenuItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": err.Error(),
			})
			return
		}
		h.storeFailure(c, "Failed to look up menu item", err)
		return
	}

	engine, err := h.carts.Load(ctx, sessionID)
	if err != nil {
		h.storeFailure(c, "Failed to retrieve cart", err)
		return
	}

	var message string
	stop := engine.Observe(func(ev cart.Event) {
		if ev.Kind == cart.EventItemAdded {
			message = ev.Message()
		}
	})
	defer stop()

	err = engine.AddItem(*item, restaurant.ID, restaurant.Name)
	var conflict *cart.DifferentRestaurantError
	if errors.As(err, &conflict) && req.Replace {
		engine.Clear()
		if err := h.promos.Delete(ctx, sessionID); err != nil {
			h.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to drop applied promo")
		}
		err = engine.AddItem(*item, restaurant.ID, restaurant.Name)
	}
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error": conflict.Error(),
			"details": gin.H{
				"current_restaurant_id":     conflict.CurrentRestaurantID,
				"current_restaurant_name":   conflict.CurrentRestaurantName,
				"requested_restaurant_id":   conflict.RequestedRestaurantID,
				"requested_restaurant_name": conflict.RequestedRestaurantName,
			},
		})
		return
	} else if err != nil {
		h.storeFailure(c, "Failed to add item", err)
		return
	}

	h.saveAndRespond(c, sessionID, engine, message)
}

// UpdateCartItem handles PUT /cart/items/:id
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionID := middleware.GetSessionIDFromContext(c)
	engine, err := h.carts.Load(c.Request.Context(), sessionID)
	if err != nil {
		h.storeFailure(c, "Failed to retrieve cart", err)
		return
	}

	message := "Cart updated"
	stop := engine.Observe(func(ev cart.Event) { message = ev.Message() })
	defer stop()

	engine.UpdateQuantity(c.Param("id"), req.Quantity)
	h.saveAndRespond(c, sessionID, engine, message)
}

// RemoveFromCart handles DELETE /cart/items/:id
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	sessionID := middleware.GetSessionIDFromContext(c)
	engine, err := h.carts.Load(c.Request.Context(), sessionID)
	if err != nil {
		h.storeFailure(c, "Failed to retrieve cart", err)
		return
	}

	message := "Cart updated"
	stop := engine.Observe(func(ev cart.Event) { message = ev.Message() })
	defer stop()

	engine.RemoveItem(c.Param("id"))
	h.saveAndRespond(c, sessionID, engine, message)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.GetSessionIDFromContext(c)

	if err := h.carts.Delete(ctx, sessionID); err != nil {
		h.storeFailure(c, "Failed to clear cart", err)
		return
	}
	if err := h.promos.Delete(ctx, sessionID); err != nil {
		h.storeFailure(c, "Failed to clear cart", err)
		return
	}

	h.respond(c, sessionID, cart.NewEngine(), "Cart cleared")
}

// ApplyPromo handles POST /cart/promo
func (h *CartHandler) ApplyPromo(c *gin.Context) {
	var req ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	sessionID := middleware.GetSessionIDFromContext(c)

	engine, err := h.carts.Load(ctx, sessionID)
	if err != nil {
		h.storeFailure(c, "Failed to retrieve cart", err)
		return
	}
	if engine.IsEmpty() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Add items to your cart before applying a promo code",
		})
		return
	}

	applied, err := h.evaluator.Evaluate(ctx, req.Code, engine.Subtotal())
	if err != nil {
		if promo.IsRejection(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": err.Error(),
			})
			return
		}
		h.storeFailure(c, "Failed to apply promo code", err)
		return
	}

	if err := h.promos.Save(ctx, sessionID, applied); err != nil {
		h.storeFailure(c, "Failed to apply promo code", err)
		return
	}

	h.respond(c, sessionID, engine, applied.Promo.Code+" applied: "+applied.Promo.Label())
}

// RemovePromo handles DELETE /cart/promo
func (h *CartHandler) RemovePromo(c *gin.Context) {
	ctx := c.Request.Context()
	sessionID := middleware.GetSessionIDFromContext(c)

	if err := h.promos.Delete(ctx, sessionID); err != nil {
		h.storeFailure(c, "Failed to remove promo code", err)
		return
	}

	engine, err := h.carts.Load(ctx, sessionID)
	if err != nil {
		h.storeFailure(c, "Failed to retrieve cart", err)
		return
	}

	h.respond(c, sessionID, engine, "Promo code removed")
}

// Private helper methods

func (h *CartHandler) saveAndRespond(c *gin.Context, sessionID string, engine *cart.Engine, message string) {
	if err := h.carts.Save(c.Request.Context(), sessionID, engine); err != nil {
		h.storeFailure(c, "Failed to save cart", err)
		return
	}
	h.respond(c, sessionID, engine, message)
}

func (h *CartHandler) respond(c *gin.Context, sessionID string, engine *cart.Engine, message string) {
	view, err := h.view(c.Request.Context(), sessionID, engine)
	if err != nil {
		h.storeFailure(c, "Failed to retrieve cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data":    view,
	})
}

func (h *CartHandler) view(ctx context.Context, sessionID string, engine *cart.Engine) (*CartView, error) {
	view := &CartView{Snapshot: engine.Snapshot()}
	if len(view.Lines) == 0 {
		return view, nil
	}

	applied, err := h.promos.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	subtotal := view.Summary.Subtotal
	view.Promo = applied
	view.DiscountAmount = applied.DiscountFor(subtotal)
	view.DeliveryFee = h.deliveryFee
	view.Total = subtotal - view.DiscountAmount + h.deliveryFee
	return view, nil
}

func (h *CartHandler) storeFailure(c *gin.Context, message string, err error) {
	h.logger.WithError(err).WithField("session_id", middleware.GetSessionIDFromContext(c)).Error(message)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": message,
	})
}
