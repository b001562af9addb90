// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/loan-review/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
// Used for display and logical comparisons, never inside schedule generation.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// IsFinite reports whether val is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Min returns the minimum of two float64 values
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// FromPercent converts a percentage (2.5) into a decimal fraction (0.025).
func FromPercent(percent float64) float64 {
	return percent / constants.PercentageMultiplier
}

// ToPercent converts a decimal fraction (0.025) into a percentage (2.5).
func ToPercent(fraction float64) float64 {
	return fraction * constants.PercentageMultiplier
}
