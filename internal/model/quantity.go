package model

import "github.com/shopspring/decimal"

// QuantityPlaces is the precision of every stored quantity and amount.
const QuantityPlaces = 2

func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPlaces)
}

// Percent returns amount * rate / 100 rounded to QuantityPlaces.
func Percent(amount, rate decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(rate).Div(decimal.NewFromInt(100)))
}
