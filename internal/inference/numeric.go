package inference

import (
	"strings"

	"github.com/shopspring/decimal"

	"stock-count/internal/models"
)

// ParseCount coerces a raw cell to a decimal count. Blank cells and values
// outside models.CountInRange fail.
func ParseCount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !models.CountInRange(d) {
		return decimal.Zero, false
	}
	return d, true
}

// NumericRatio is the share of values that parse as numbers. Blank cells
// count as non-numeric.
func NumericRatio(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	numeric := 0
	for _, v := range values {
		if _, ok := ParseCount(v); ok {
			numeric++
		}
	}
	return float64(numeric) / float64(len(values))
}
