// Package currency normalizes amounts into the reporting currency and parses the
// currency-formatted strings brokerage emails put into webhook payloads.
package currency

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"wealthscope/internal/models"
)

// USMarker flags an amount quoted in US dollars, e.g. "US$1,234.56".
const USMarker = "US$"

var nonNumeric = regexp.MustCompile(`[^\d.-]`)

// ToReporting converts amount from code into the reporting currency. rate is the
// foreign->reporting rate. Codes outside the known pair pass through unchanged.
func ToReporting(amount decimal.Decimal, code string, rate decimal.Decimal) decimal.Decimal {
	switch code {
	case models.ReportingCurrency:
		return amount
	case models.ForeignCurrency:
		return amount.Mul(rate)
	default:
		return amount
	}
}

// ParseAmount keeps digits, '.' and '-' and parses what is left. ok is false for
// empty or unparseable input.
func ParseAmount(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(nonNumeric.ReplaceAllString(s, ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Detect infers the currency of a payload from its formatted amounts.
func Detect(values ...string) string {
	for _, v := range values {
		if strings.Contains(v, USMarker) {
			return models.ForeignCurrency
		}
	}
	return models.ReportingCurrency
}
