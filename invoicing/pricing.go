package invoicing

import "github.com/shopspring/decimal"

// PricedLine is a line item with its computed amounts.
type PricedLine struct {
	LineItem
	Net       decimal.Decimal // quantity * unit_price
	Tax       decimal.Decimal // net * tax_rate
	LineTotal decimal.Decimal // net + tax
}

// Quote holds the priced lines and the invoice aggregates.
type Quote struct {
	Lines    []PricedLine
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// Price computes per-line and invoice totals. Values keep full precision;
// rounding is left to presentation.
func Price(lines []LineItem) Quote {
	q := Quote{
		Lines:    make([]PricedLine, 0, len(lines)),
		Subtotal: decimal.Zero,
		TaxTotal: decimal.Zero,
	}
	for _, li := range lines {
		net := li.Quantity.Mul(li.UnitPrice)
		tax := net.Mul(li.TaxRate)
		q.Lines = append(q.Lines, PricedLine{
			LineItem:  li,
			Net:       net,
			Tax:       tax,
			LineTotal: net.Add(tax),
		})
		q.Subtotal = q.Subtotal.Add(net)
		q.TaxTotal = q.TaxTotal.Add(tax)
	}
	q.Total = q.Subtotal.Add(q.TaxTotal)
	return q
}
