package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrencyPlaces is the rounding precision used for installment
// amounts when none is configured: whole currency units.
const DefaultCurrencyPlaces int32 = 0

// ParseAmount parses a monetary form value. Empty, non-numeric and negative
// input all clamp to zero; numeric form fields are never rejected.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return ClampAmount(d)
}

// ClampAmount returns d, or zero when d is negative.
func ClampAmount(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// MaxInstallmentCount is the longest tenor accepted from callers: fifty
// years of monthly payments. Schedules are materialized month by month, so
// the count bounds memory per request and per stored batch.
const MaxInstallmentCount = 600

// maxParsedCount is where ParseInstallmentCount saturates, well inside int
// on every platform.
var maxParsedCount = decimal.NewFromInt(math.MaxInt32)

// ParseInstallmentCount parses a tenor form value. Fractional input is
// truncated; empty, non-numeric and negative input clamp to zero. Values
// too large for an int saturate instead of wrapping, so callers can reject
// them against MaxInstallmentCount.
func ParseInstallmentCount(s string) int {
	d := ParseAmount(s)
	if d.IsZero() {
		return 0
	}
	if d.GreaterThan(maxParsedCount) {
		return math.MaxInt32
	}
	return int(d.IntPart())
}

// AmountToFloat converts an amount to float64 for JSON responses.
func AmountToFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
