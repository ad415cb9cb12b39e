package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPesos renders an amount as "$1.500": whole pesos, dot as the
// thousands separator.
func FormatPesos(d decimal.Decimal) string {
	neg := d.IsNegative()
	digits := d.Abs().Round(0).StringFixed(0)

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
