// Package money formats integer cent amounts for user-facing messages.
package money

import "fmt"

// Format renders cents as a dollar string, e.g. 2799 -> "$27.99"
func Format(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
