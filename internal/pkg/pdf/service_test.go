package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/food-delivery-backend/internal/config"
	"github.com/your-org/food-delivery-backend/internal/domain/order"
)

func TestRenderReceiptHTML(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Name: "Food Delivery Backend"}}
	svc := NewService(cfg)

	placed := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)
	driver := "John D."
	o := &order.Order{
		ID:             "1a2b3c4d-0000-4000-8000-000000000000",
		RestaurantName: "Burger Barn",
		Items: []order.OrderItem{
			{MenuItemID: "bb-classic", Name: "Classic Burger", Price: 1250, Quantity: 2},
		},
		SubtotalAmount:  2500,
		DiscountAmount:  250,
		DeliveryFee:     299,
		TotalAmount:     2549,
		PromoCode:       "WELCOME10",
		DeliveryAddress: order.DeliveryAddress{StreetAddress: "12 Baker St", City: "Springfield", State: "IL", ZipCode: "62701"},
		PaymentMethod:   order.PaymentMethodCard,
		Status:          order.OrderStatusDelivered,
		DriverName:      &driver,
		CreatedAt:       placed,
	}

	html, err := svc.RenderReceiptHTML(o, placed.Add(time.Hour))
	require.NoError(t, err)

	assert.Contains(t, html, "RCPT-20240501-1A2B3C4D")
	assert.Contains(t, html, "Classic Burger")
	assert.Contains(t, html, "$25.00")
	assert.Contains(t, html, "-$2.50")
	assert.Contains(t, html, "(WELCOME10)")
	assert.Contains(t, html, "$2.99")
	assert.Contains(t, html, "$25.49")
	assert.Contains(t, html, "Delivered")
	assert.Contains(t, html, "John D.")
	assert.Contains(t, html, "CARD")
}
