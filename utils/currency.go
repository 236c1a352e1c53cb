package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatRupiah renders an amount as "Rp 1.500.000" (no decimals, dot grouping).
func FormatRupiah(amount decimal.Decimal) string {
	return "Rp " + FormatThousands(amount)
}

// FormatThousands rounds half away from zero and groups the integer part with dots.
func FormatThousands(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	digits := rounded.Abs().StringFixed(0)

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
