package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLang is the storefront locale.
var DefaultLang = language.MustParse("en-AU")

// Currency formats a dollar amount with grouping and exactly two decimals.
// Example: Currency(decimal 1234.5) => "$1,234.50"
func Currency(amount decimal.Decimal) string {
	return CurrencyIn(amount, DefaultLang)
}

// CurrencyIn is Currency for an explicit locale.
func CurrencyIn(amount decimal.Decimal, lang language.Tag) string {
	amount = amount.Round(2)
	neg := amount.IsNegative()
	if neg {
		amount = amount.Neg()
	}
	p := message.NewPrinter(lang)
	out := "$" + p.Sprint(number.Decimal(amount.InexactFloat64(), number.Scale(2)))
	if neg {
		return "-" + out
	}
	return out
}

// Price formats a unit price without grouping, as printed next to "each".
func Price(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// Count prints an integer with locale grouping.
func Count(n int) string {
	return message.NewPrinter(DefaultLang).Sprint(number.Decimal(n))
}

// Plural picks singular or plural by n.
func Plural(n int, singular, plural string) string {
	if n == 1 {
		return strings.TrimSpace(singular)
	}
	return strings.TrimSpace(plural)
}
