package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/food-delivery-backend/internal/domain/order"
)

func TestNewOrderEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 18, 10, 0, 0, time.UTC)
	driver := "Aisha K."
	o := &order.Order{
		ID:                "o-1",
		UserID:            42,
		RestaurantID:      "burger-barn",
		Status:            order.OrderStatusPickedUp,
		DriverName:        &driver,
		TotalAmount:       2799,
		EstimatedDelivery: at.Add(25 * time.Minute),
	}

	event := NewOrderEvent(o, at)
	assert.Equal(t, "o-1", event.OrderID)
	assert.Equal(t, uint(42), event.UserID)
	assert.Equal(t, order.OrderStatusPickedUp, event.Status)
	assert.Equal(t, "Aisha K.", event.DriverName)
	assert.Equal(t, at, event.OccurredAt)

	o.DriverName = nil
	assert.Empty(t, NewOrderEvent(o, at).DriverName)
}

var _ order.EventSink = (*Publisher)(nil)
