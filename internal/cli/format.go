// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatMoney formats an amount with two decimals and thousands separators.
// e.g., 1234.5 -> "$1,234.50", -12 -> "-$12.00"
func FormatMoney(v float64) string {
	if v < 0 {
		return "-" + FormatMoney(-v)
	}
	return "$" + humanize.FormatFloat("#,###.##", roundCents(v))
}

// FormatCompactMoney drops the cents once amounts reach four digits.
func FormatCompactMoney(v float64) string {
	if math.Abs(v) >= 1000 {
		if v < 0 {
			return "-$" + humanize.Comma(int64(math.Round(-v)))
		}
		return "$" + humanize.Comma(int64(math.Round(v)))
	}
	return FormatMoney(v)
}

// FormatDelta formats a signed change in money, always with a sign.
func FormatDelta(delta float64) string {
	if roundCents(delta) >= 0 {
		return "+" + FormatMoney(math.Abs(delta))
	}
	return "-" + FormatMoney(-delta)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return humanize.Comma(n)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatMonths renders a month count as years and months.
// e.g., 14 -> "1y 2m", 3 -> "3 months"
func FormatMonths(n int) string {
	switch {
	case n == 1:
		return "1 month"
	case n < 12:
		return fmt.Sprintf("%d months", n)
	case n%12 == 0:
		return fmt.Sprintf("%dy", n/12)
	}
	return fmt.Sprintf("%dy %dm", n/12, n%12)
}

// FormatAge is a relative time such as "3 days ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
