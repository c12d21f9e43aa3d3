// Package format renders catalog values for display.
package format

import (
	"time"

	"github.com/dustin/go-humanize"
)

const FreeLabel = "Free to Play"

// Price renders a USD amount with thousands separators and two decimals.
func Price(amount float64) string {
	if amount < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -amount)
	}
	return "$" + humanize.FormatFloat("#,###.##", amount)
}

// DisplayPrice is Price, except a zero amount reads FreeLabel.
func DisplayPrice(amount float64) string {
	if amount == 0 {
		return FreeLabel
	}
	return Price(amount)
}

func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func Count(n int) string {
	return humanize.Comma(int64(n))
}
