// internal/interfaces/http/handlers/order.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/your-org/food-delivery-backend/internal/domain/order"
	"github.com/your-org/food-delivery-backend/internal/interfaces/http/middleware"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// ReceiptGenerator renders an order receipt as a PDF
type ReceiptGenerator interface {
	GenerateReceipt(o *order.Order) (*bytes.Buffer, error)
}

// OrderHandler handles customer order endpoints
type OrderHandler struct {
	orderService *order.Service
	engine       *order.Engine
	receipts     ReceiptGenerator
	upgrader     websocket.Upgrader
	logger       logrus.FieldLogger
}

// NewOrderHandler creates a new order handler. allowedOrigins gates the
// tracking websocket the same way CORS gates plain requests.
func NewOrderHandler(
	orderService *order.Service,
	engine *order.Engine,
	receipts ReceiptGenerator,
	allowedOrigins []string,
	logger logrus.FieldLogger,
) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		engine:       engine,
		receipts:     receipts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.IsOriginAllowed(origin, allowedOrigins)
			},
		},
		logger: logger,
	}
}

// OrderView pairs an order with its remaining-time estimate
type OrderView struct {
	Order *order.Order `json:"order"`
	ETA   order.ETA    `json:"eta"`
}

func newOrderView(o *order.Order) OrderView {
	return OrderView{Order: o, ETA: order.EstimateRemaining(o, time.Now())}
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	orders, err := h.orderService.ListOrders(c.Request.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to list orders")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve orders",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    orders,
	})
}

// GetOrder handles GET /orders/:id. Viewing a live order makes sure its
// progression driver is running.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}

	if !o.Status.IsTerminal() {
		h.engine.StartProgression(o.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    newOrderView(o),
	})
}

// TrackOrder handles GET /orders/:id/ws, streaming every status change of
// the order until it reaches a terminal status or the client goes away
func (h *OrderHandler) TrackOrder(c *gin.Context) {
	o, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.logger.WithError(err).WithField("order_id", o.ID).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.logger.WithField("order_id", o.ID)
	done := make(chan struct{}) // closed when the client goes away
	quit := make(chan struct{}) // closed when this handler returns
	updates := make(chan *order.Order, 8)

	unsubscribe := h.engine.Subscribe(o.ID, func(next *order.Order) {
		select {
		case updates <- next:
		case <-done:
		case <-quit:
		}
	})
	defer unsubscribe()
	defer close(quit)

	// Re-read after subscribing so a change between the first read and the
	// subscription is not lost
	if latest, err := h.engine.Get(c.Request.Context(), o.ID); err == nil {
		o = latest
	}
	if err := writeOrderFrame(conn, o); err != nil {
		return
	}
	if o.Status.IsTerminal() {
		closeTracking(conn)
		return
	}
	h.engine.StartProgression(o.ID)

	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case next := <-updates:
			if err := writeOrderFrame(conn, next); err != nil {
				log.WithError(err).Debug("Tracking client write failed")
				return
			}
			if next.Status.IsTerminal() {
				closeTracking(conn)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// DownloadReceipt handles GET /orders/:id/receipt
func (h *OrderHandler) DownloadReceipt(c *gin.Context) {
	o, ok := h.loadOwnOrder(c)
	if !ok {
		return
	}

	pdfBuffer, err := h.receipts.GenerateReceipt(o)
	if err != nil {
		h.logger.WithError(err).WithField("order_id", o.ID).Error("Failed to generate receipt")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate receipt",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", o.ID))
	c.Header("Content-Length", strconv.Itoa(pdfBuffer.Len()))
	c.Data(http.StatusOK, "application/pdf", pdfBuffer.Bytes())
}

func (h *OrderHandler) loadOwnOrder(c *gin.Context) (*order.Order, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return nil, false
	}

	o, err := h.orderService.GetForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Order not found",
			})
			return nil, false
		}
		h.logger.WithError(err).WithField("order_id", c.Param("id")).Error("Failed to load order")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve order",
		})
		return nil, false
	}
	return o, true
}

func writeOrderFrame(conn *websocket.Conn, o *order.Order) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(newOrderView(o))
}

func closeTracking(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "order complete")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
}
