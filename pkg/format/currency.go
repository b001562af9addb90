// Package format renders and parses Brazilian real amounts and rates.
package format

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for strings that are not a monetary amount.
var ErrInvalidAmount = errors.New("invalid amount")

var thousandsOnly = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// Currency returns a currency string with the real sign and pt-BR separators (e.g., "-R$ 1.234,56").
func Currency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0,00" {
		return "-R$ " + formatted
	}
	return "R$ " + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1.234,56").
func NumericCurrency(amount float64) string {
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 && formatted != "0,00" {
		return "-" + formatted
	}
	return formatted
}

// Percent renders a decimal fraction as a pt-BR percentage with the given
// number of decimals (Percent(0.0193, 2) == "1,93%").
func Percent(fraction float64, decimals int) string {
	formatted := fmt.Sprintf("%.*f", decimals, fraction*100)
	return strings.Replace(formatted, ".", ",", 1) + "%"
}

func formatPositiveCurrency(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte('.')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "," + decPart
}

// ParseCurrency reads an amount typed the Brazilian way ("R$ 60.000,00",
// "60.000", "60000,5") or with a dot decimal separator ("60000.50").
func ParseCurrency(input string) (float64, error) {
	value, err := ParseDecimal(input)
	if err != nil {
		return 0, err
	}
	amount, _ := value.Float64()
	return amount, nil
}

// ParseDecimal is ParseCurrency returning the exact decimal value.
func ParseDecimal(input string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(input)
	cleaned = strings.TrimPrefix(cleaned, "R$")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "\u00a0", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: empty input", ErrInvalidAmount)
	}

	switch {
	case strings.Contains(cleaned, ","):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	case thousandsOnly.MatchString(cleaned):
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	return value, nil
}
