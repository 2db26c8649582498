// internal/domain/order/eta.go
package order

import (
	"fmt"
	"math"
	"time"
)

// ETA is the customer-facing remaining-time estimate
type ETA struct {
	Arrived bool   `json:"arrived"`
	Minutes int    `json:"minutes"`
	Text    string `json:"text"`
}

// EstimateRemaining projects the time left until delivery. Delivered orders
// report arrived; otherwise the minutes until EstimatedDelivery are rounded
// and never negative.
func EstimateRemaining(o *Order, now time.Time) ETA {
	if o.Status == OrderStatusDelivered {
		return ETA{Arrived: true, Text: "arrived"}
	}

	minutes := int(math.Round(o.EstimatedDelivery.Sub(now).Minutes()))
	if minutes < 0 {
		minutes = 0
	}

	if minutes == 0 {
		return ETA{Minutes: 0, Text: "arriving now"}
	}
	return ETA{Minutes: minutes, Text: fmt.Sprintf("%d min", minutes)}
}
