package rates

import (
	"github.com/shopspring/decimal"
)

// FallbackTable is the static rate table used when the historical-rate
// provider cannot answer. Values are approximate USD values per unit of
// currency; a cross rate for any pair in the table is derived from them.
// Results based on this table are flagged degraded and never cached.
type FallbackTable struct {
	usdValue map[string]decimal.Decimal
}

// DefaultFallbackTable returns the built-in fallback table.
func DefaultFallbackTable() *FallbackTable {
	return &FallbackTable{usdValue: map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("1.000000"),
		"EUR": decimal.RequireFromString("1.100000"),
		"GBP": decimal.RequireFromString("1.270000"),
		"CHF": decimal.RequireFromString("1.140000"),
		"CAD": decimal.RequireFromString("0.740000"),
		"AUD": decimal.RequireFromString("0.650000"),
		"JPY": decimal.RequireFromString("0.006700"),
		"CNY": decimal.RequireFromString("0.140000"),
		"INR": decimal.RequireFromString("0.012000"),
		"MXN": decimal.RequireFromString("0.058000"),
		"BRL": decimal.RequireFromString("0.200000"),
	}}
}

// Rate returns the approximate from→to rate, or false when either currency
// is not in the table.
func (t *FallbackTable) Rate(from, to string) (decimal.Decimal, bool) {
	fromUSD, ok := t.usdValue[from]
	if !ok {
		return decimal.Zero, false
	}
	toUSD, ok := t.usdValue[to]
	if !ok {
		return decimal.Zero, false
	}
	return fromUSD.Div(toUSD), true
}
