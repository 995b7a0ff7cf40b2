package ledger

import "github.com/shopspring/decimal"

// ServiceTaxRate is the flat 10% service tax applied to every order.
var ServiceTaxRate = decimal.New(10, -2)

// Quote is the priced breakdown of an order.
type Quote struct {
	Subtotal   decimal.Decimal
	ServiceTax decimal.Decimal
	Total      decimal.Decimal
}

// Price computes the quote for tickets at unitPrice. Each amount is
// derived from the unrounded values and then rounded to cents on its own,
// half away from zero (half-up for the non-negative amounts here), so the
// rounded parts may differ from the rounded total by a cent.
func Price(unitPrice decimal.Decimal, tickets int) Quote {
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(tickets)))
	tax := subtotal.Mul(ServiceTaxRate)
	return Quote{
		Subtotal:   subtotal.Round(2),
		ServiceTax: tax.Round(2),
		Total:      subtotal.Add(tax).Round(2),
	}
}
