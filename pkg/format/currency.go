// Package format renders money and rates for humans and exports.
package format

import (
	"strings"

	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/shopspring/decimal"
)

// Fixed rounds amount to cents, half away from zero.
func Fixed(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(constants.CurrencyPlaces)
}

// Plain returns amount with exactly two decimals and no separators (e.g., "-1234.56").
// Used for CSV and other machine-readable exports.
func Plain(amount float64) string {
	return Fixed(amount).StringFixed(constants.CurrencyPlaces)
}

// Currency returns a currency string with the given symbol and thousands separators (e.g., "-R$ 1,234.56").
func Currency(symbol string, amount float64) string {
	value := Fixed(amount)
	formatted := formatPositiveCurrency(value.Abs())
	if value.IsNegative() {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	return Currency("", amount)
}

// Percent renders a fraction as a percentage with the given number of places (e.g., 0.0075915 -> "0.7592%").
func Percent(fraction float64, places int32) string {
	return decimal.NewFromFloat(fraction).Shift(2).StringFixed(places) + "%"
}

func formatPositiveCurrency(value decimal.Decimal) string {
	formatted := value.StringFixed(constants.CurrencyPlaces)
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
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
