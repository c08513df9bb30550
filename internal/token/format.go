package token

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatUSD renders a dollar metric compactly: $950.00 below a
// thousand, then $82.0K / $1.3M / $2.10B.
func FormatUSD(v float64) string {
	switch {
	case v >= 1_000_000_000:
		return fmt.Sprintf("$%.2fB", v/1_000_000_000)
	case v >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return "$" + humanize.CommafWithDigits(v, 2)
	}
}

// FormatPercent renders a signed percentage with one decimal.
func FormatPercent(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

// FormatCount renders a holder/volume count with thousands separators.
func FormatCount(v int64) string {
	return humanize.Comma(v)
}
