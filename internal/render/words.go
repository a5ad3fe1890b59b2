package render

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	smallNumbers = [...]string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
		"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
	}
	tensNames = [...]string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
	scales    = []struct {
		value uint64
		name  string
	}{
		{1_000_000_000_000_000_000, "quintillion"},
		{1_000_000_000_000_000, "quadrillion"},
		{1_000_000_000_000, "trillion"},
		{1_000_000_000, "billion"},
		{1_000_000, "million"},
		{1_000, "thousand"},
	}
)

// AmountInWords spells the whole part of amount in English with every word
// title-cased, e.g. 12345.67 -> "Twelve Thousand Three Hundred Forty Five".
// Magnitudes past the quintillions are written as digits.
func AmountInWords(amount decimal.Decimal) string {
	whole := amount.Truncate(0)
	magnitude := whole.Abs().BigInt()
	if !magnitude.IsUint64() {
		return whole.String()
	}
	words := numberToWords(magnitude.Uint64())
	if whole.IsNegative() {
		words = "minus " + words
	}
	return cases.Title(language.English).String(words)
}

func numberToWords(n uint64) string {
	if n == 0 {
		return smallNumbers[0]
	}
	parts := make([]string, 0, 8)
	for _, scale := range scales {
		if n >= scale.value {
			parts = append(parts, belowThousand(n/scale.value), scale.name)
			n %= scale.value
		}
	}
	if n > 0 {
		parts = append(parts, belowThousand(n))
	}
	return strings.Join(parts, " ")
}

func belowThousand(n uint64) string {
	parts := make([]string, 0, 4)
	if n >= 100 {
		parts = append(parts, smallNumbers[n/100], "hundred")
		n %= 100
	}
	switch {
	case n == 0:
	case n < 20:
		parts = append(parts, smallNumbers[n])
	default:
		parts = append(parts, tensNames[n/10])
		if n%10 != 0 {
			parts = append(parts, smallNumbers[n%10])
		}
	}
	return strings.Join(parts, " ")
}

// formatAmount renders money rounded to whole currency units.
func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(0)
}
