// Package money holds the cent-rounding rule shared by every cart total.
package money

import "github.com/shopspring/decimal"

func init() {
	// Prices and totals travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

var half = decimal.New(5, -1)

// RoundCents rounds d to the nearest cent, with halves rounded up:
// multiply by 100, add one half, floor, divide by 100.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Shift(2).Add(half).Floor().Shift(-2)
}

// Line is one priced entry of a cart.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Total returns Σ(price × quantity) rounded with RoundCents.
func Total(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return RoundCents(sum)
}
