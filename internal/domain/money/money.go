// Package money provides fixed-precision decimal arithmetic for share
// quantities and INR amounts. Quantities carry 6 fractional digits, money
// amounts 4; all rounding happens once, on the final derived value, using
// round half away from zero so that in-process results agree digit-for-digit
// with Postgres ROUND(numeric, n).
package money

import (
	"github.com/shopspring/decimal"
)

const (
	// QuantityScale is the number of fractional digits for share quantities.
	QuantityScale = 6
	// MoneyScale is the number of fractional digits for INR amounts.
	MoneyScale = 4
)

// RoundQuantity rounds d to the quantity scale.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// RoundMoney rounds d to the money scale.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// GrossAmount computes quantity * pricePerShare rounded to the money scale.
// The multiplication is exact; only the product is rounded.
func GrossAmount(quantity, pricePerShare decimal.Decimal) decimal.Decimal {
	return RoundMoney(quantity.Mul(pricePerShare))
}

// WeightedAverage blends a new purchase into an existing position's average
// cost. Returns zero when the combined quantity is zero. The division result
// is rounded to the money scale; no intermediate rounding is applied.
func WeightedAverage(avgOld, qtyOld, price, qtyDelta decimal.Decimal) decimal.Decimal {
	qtyNew := qtyOld.Add(qtyDelta)
	if qtyNew.IsZero() {
		return decimal.Zero
	}
	numerator := avgOld.Mul(qtyOld).Add(price.Mul(qtyDelta))
	return numerator.DivRound(qtyNew, MoneyScale)
}

// ExceedsScale reports whether d carries more fractional digits than scale.
func ExceedsScale(d decimal.Decimal, scale int32) bool {
	return d.Exponent() < -scale && !d.Equal(d.Round(scale))
}
