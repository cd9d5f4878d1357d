// Package pricing holds the money arithmetic shared by quoting and checkout.
// Amounts are currency units with two decimal places; intermediate sums are
// exact and rounding happens once, half-up, at the end of each computation.
package pricing

import (
	"github.com/shopspring/decimal"
)

const scale = 2

var half = decimal.NewFromFloat(0.5)

// Modifier is one priced adjustment applied Quantity times.
type Modifier struct {
	Amount   decimal.Decimal
	Quantity int
}

// Round rounds half-up to two decimal places.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Shift(scale).Add(half).Floor().Shift(-scale)
}

// ClampNonNegative returns zero for negative amounts.
func ClampNonNegative(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}

// Price sums base and every modifier, clamps at zero and rounds once.
func Price(base decimal.Decimal, modifiers []Modifier) decimal.Decimal {
	total := base
	for _, mod := range modifiers {
		qty := mod.Quantity
		if qty < 1 {
			qty = 1
		}
		total = total.Add(mod.Amount.Mul(decimal.NewFromInt(int64(qty))))
	}
	return Round(ClampNonNegative(total))
}

// LineTotal is unit price times quantity.
func LineTotal(unit decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unit.Mul(decimal.NewFromInt(int64(quantity))))
}

// Sum adds amounts without rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// Tax applies rate to subtotal and rounds once.
func Tax(subtotal, rate decimal.Decimal) decimal.Decimal {
	return Round(subtotal.Mul(rate))
}

// WithinTolerance reports whether |a-b| <= tolerance.
func WithinTolerance(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
