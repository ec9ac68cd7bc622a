package service

import (
	"github.com/shopspring/decimal"

	"kingspos/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Totals are the derived amounts of a document.
type Totals struct {
	SubTotal decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums the stored line totals and applies the overall
// discount. No rounding happens here.
func ComputeTotals(items []model.DocumentItem, overallDiscountPercent decimal.Decimal) Totals {
	sub := decimal.Zero
	for _, it := range items {
		sub = sub.Add(it.LineTotal)
	}
	factor := decimal.NewFromInt(1).Sub(overallDiscountPercent.Div(hundred))
	return Totals{SubTotal: sub, Total: sub.Mul(factor)}
}
