// Package money formats exact decimal amounts for reports.
package money

import (
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// USD renders d rounded to cents as a dollar amount, e.g. "$1,000.03".
func USD(d decimal.Decimal) string {
	cents := d.Round(2).Shift(2).IntPart()
	return gomoney.New(cents, gomoney.USD).Display()
}

// Separated renders d rounded to places with thousands separators in the
// integer part, e.g. "1,000.03". Trailing fractional zeros are dropped.
func Separated(d decimal.Decimal, places int32) string {
	rounded := d.Round(places)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	whole := printer.Sprintf("%d", rounded.IntPart())
	_, frac, ok := strings.Cut(rounded.String(), ".")
	if !ok {
		return sign + whole
	}
	return sign + whole + "." + frac
}

// Count renders an integer count with thousands separators.
func Count(n uint64) string {
	return printer.Sprintf("%d", n)
}
