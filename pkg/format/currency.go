// Package format renders monetary amounts the way Indian lenders print them.
package format

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// RupeeSymbol prefixes formatted amounts.
const RupeeSymbol = "₹"

// printer groups digits in lakhs and crores.
var printer = message.NewPrinter(language.MustParse("en-IN"))

// Currency returns a rupee string with lakh/crore separators (e.g., "-₹12,34,567.89").
func Currency(amount float64) string {
	return sign(amount < 0) + RupeeSymbol + decimal(math.Abs(amount))
}

// WholeCurrency returns a rupee string for whole amounts (e.g., "₹63,338").
func WholeCurrency(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	return sign(negative) + RupeeSymbol + printer.Sprint(number.Decimal(amount))
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-12,34,567.89").
func NumericCurrency(amount float64) string {
	return sign(amount < 0) + decimal(math.Abs(amount))
}

// Percent returns a percentage with one decimal (e.g., "65.6%").
func Percent(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}

func decimal(value float64) string {
	return printer.Sprint(number.Decimal(value, number.Scale(2)))
}

func sign(negative bool) string {
	if negative {
		return "-"
	}
	return ""
}
