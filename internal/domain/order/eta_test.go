package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateRemaining(t *testing.T) {
	eta := time.Date(2024, 5, 1, 12, 35, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status OrderStatus
		now    time.Time
		want   ETA
	}{
		{"delivered", OrderStatusDelivered, eta.Add(-20 * time.Minute), ETA{Arrived: true, Text: "arrived"}},
		{"delivered late", OrderStatusDelivered, eta.Add(10 * time.Minute), ETA{Arrived: true, Text: "arrived"}},
		{"fresh order", OrderStatusConfirmed, eta.Add(-35 * time.Minute), ETA{Minutes: 35, Text: "35 min"}},
		{"rounds up", OrderStatusPreparing, eta.Add(-(9*time.Minute + 40*time.Second)), ETA{Minutes: 10, Text: "10 min"}},
		{"rounds down", OrderStatusPreparing, eta.Add(-(9*time.Minute + 20*time.Second)), ETA{Minutes: 9, Text: "9 min"}},
		{"under half a minute", OrderStatusOnTheWay, eta.Add(-20 * time.Second), ETA{Text: "arriving now"}},
		{"overdue", OrderStatusOnTheWay, eta.Add(15 * time.Minute), ETA{Text: "arriving now"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.status, EstimatedDelivery: eta}
			got := EstimateRemaining(o, tt.now)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.Minutes, 0)
			assert.Equal(t, tt.status == OrderStatusDelivered, got.Arrived)
		})
	}
}
