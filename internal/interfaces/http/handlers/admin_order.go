// internal/interfaces/http/handlers/admin_order.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/food-delivery-backend/internal/domain/order"
)

// AdminOrderHandler handles operator corrections to orders
type AdminOrderHandler struct {
	orderService *order.Service
	engine       *order.Engine
	logger       logrus.FieldLogger
}

// NewAdminOrderHandler creates a new admin order handler
func NewAdminOrderHandler(orderService *order.Service, engine *order.Engine, logger logrus.FieldLogger) *AdminOrderHandler {
	return &AdminOrderHandler{
		orderService: orderService,
		engine:       engine,
		logger:       logger,
	}
}

// CancelOrderRequest carries the cancellation reason
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// UpdateStatusRequest carries the corrected status
type UpdateStatusRequest struct {
	Status order.OrderStatus `json:"status" binding:"required"`
}

// CancelOrder handles PUT /admin/orders/:id/cancel
func (h *AdminOrderHandler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	id := c.Param("id")
	cancelled, err := h.orderService.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.statusFailure(c, id, err)
		return
	}
	h.engine.StopProgression(id)

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    newOrderView(cancelled),
	})
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status. A corrected order
// that is still live resumes progression from its new status.
func (h *AdminOrderHandler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	id := c.Param("id")
	updated, err := h.orderService.CorrectStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.statusFailure(c, id, err)
		return
	}

	if updated.Status.IsTerminal() {
		h.engine.StopProgression(id)
	} else {
		h.engine.StartProgression(id)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    newOrderView(updated),
	})
}

// AdvanceOrder handles POST /admin/orders/:id/advance, stepping a live order
// one status forward without waiting for its dwell
func (h *AdminOrderHandler) AdvanceOrder(c *gin.Context) {
	id := c.Param("id")
	advanced, err := h.engine.Advance(c.Request.Context(), id)
	if err != nil {
		h.statusFailure(c, id, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order advanced to " + advanced.Status.Label(),
		"data":    newOrderView(advanced),
	})
}

func (h *AdminOrderHandler) statusFailure(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
	case errors.Is(err, order.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
	case errors.Is(err, order.ErrOrderTerminal), errors.Is(err, order.ErrStatusConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
	default:
		h.logger.WithError(err).WithField("order_id", id).Error("Failed to update order status")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update order status",
		})
	}
}
