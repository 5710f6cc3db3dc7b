package billing

import (
	"github.com/shopspring/decimal"
)

// DefaultTVARate is the flat Algerian TVA rate applied to invoice subtotals (19%)
var DefaultTVARate = decimal.RequireFromString("0.19")

// LineAmount is one (quantity, unit price) pair fed into totals computation
type LineAmount struct {
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Totals holds the derived monetary fields of an invoice.
// TVAAmount and TotalAmount are rounded to 2 decimal places (half-up);
// line amounts and the subtotal are kept exact.
type Totals struct {
	Subtotal    decimal.Decimal
	TVAAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// ComputeTotals derives subtotal, TVA and total from line amounts and a flat rate.
// Pure function with no side effects.
func ComputeTotals(lines []LineAmount, rate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
	}
	tva := subtotal.Mul(rate).Round(2)
	total := subtotal.Add(tva).Round(2)
	return Totals{
		Subtotal:    subtotal,
		TVAAmount:   tva,
		TotalAmount: total,
	}
}
