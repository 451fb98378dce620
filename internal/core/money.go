// Package core provides money parsing and handling utilities.
//
// Amounts are kept as shopspring decimals end to end; floats only appear
// at the presentation edge.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied decimal string to a positive amount
// rounded half-up to two decimal places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatMoney renders an amount with two decimals, a space thousands
// separator, a comma decimal separator and the currency symbol.
//
//	FormatMoney(decimal.RequireFromString("1234.5"), "PLN") -> "1 234,50 zł"
func FormatMoney(d decimal.Decimal, currency string) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	b.WriteByte(' ')
	b.WriteString(currencySymbol(currency))
	return b.String()
}

func currencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "", "PLN":
		return "zł"
	case "INR":
		return "₹"
	case "EUR":
		return "€"
	case "USD":
		return "$"
	default:
		return strings.ToUpper(code)
	}
}
