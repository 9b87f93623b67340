package model

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Amounts is the money breakdown of an order.
type Amounts struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ExpectedTotal computes subtotal + tax + shipping - discount.
func (a Amounts) ExpectedTotal() decimal.Decimal {
	return a.Subtotal.Add(a.Tax).Add(a.Shipping).Sub(a.Discount)
}

// Balanced reports whether the total matches the breakdown at two decimal places.
func (a Amounts) Balanced() bool {
	return a.ExpectedTotal().Round(2).Equal(a.Total.Round(2))
}

// WholeCents reports whether d has no fraction below the minor unit.
func WholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// ItemsSubtotal sums price × quantity over items.
func ItemsSubtotal(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Total())
	}
	return sum
}

// MinorUnits converts a major-unit amount to minor units, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
