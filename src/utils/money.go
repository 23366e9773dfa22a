// backend/src/utils/money.go
package utils

import "github.com/shopspring/decimal"

// MoneyPlaces is the precision used for derived amounts and percentages.
const MoneyPlaces = 2

// RoundMoney rounds half away from zero to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// PercentOf returns amount * pct / 100, rounded to MoneyPlaces.
func PercentOf(amount decimal.Decimal, pct int) decimal.Decimal {
	return RoundMoney(amount.Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100)))
}
