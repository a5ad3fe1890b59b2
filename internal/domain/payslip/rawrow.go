package payslip

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// RawRow is one loosely typed upload row keyed by header name. Values are
// strings or JSON numbers.
type RawRow map[string]any

// FromText converts a parsed sheet row.
func FromText(cells map[string]string) RawRow {
	row := make(RawRow, len(cells))
	for k, v := range cells {
		row[k] = v
	}
	return row
}

func (r RawRow) lookup(key string) (any, bool) {
	if v, ok := r[key]; ok {
		return v, true
	}
	// Headers differing only in case resolve to the first in sorted order.
	for _, k := range slices.Sorted(maps.Keys(r)) {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return r[k], true
		}
	}
	return nil, false
}

// Text returns the trimmed string form of the field, or "" when absent.
func (r RawRow) Text(key string) string {
	v, ok := r.lookup(key)
	if !ok || v == nil {
		return ""
	}
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	case json.Number:
		return value.String()
	case float64:
		return decimal.NewFromFloat(value).String()
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

// Amount returns the field as money rounded to two places. Missing or
// malformed values are zero.
func (r RawRow) Amount(key string) decimal.Decimal {
	d, ok := r.number(key)
	if !ok {
		return decimal.Zero
	}
	return d.Round(2)
}

// Count returns the integer part of the field, or fallback when missing or malformed.
func (r RawRow) Count(key string, fallback int) int {
	d, ok := r.number(key)
	if !ok {
		return fallback
	}
	return int(d.IntPart())
}

func (r RawRow) number(key string) (decimal.Decimal, bool) {
	v, ok := r.lookup(key)
	if !ok || v == nil {
		return decimal.Zero, false
	}
	switch value := v.(type) {
	case float64:
		return decimal.NewFromFloat(value), true
	case int:
		return decimal.NewFromInt(int64(value)), true
	case int64:
		return decimal.NewFromInt(value), true
	case decimal.Decimal:
		return value, true
	case json.Number:
		return parseDecimal(value.String())
	case string:
		return parseDecimal(value)
	default:
		return decimal.Zero, false
	}
}

func parseDecimal(raw string) (decimal.Decimal, bool) {
	cleaned := strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
