package pricing

import "github.com/shopspring/decimal"

// Result holds the monetary breakdown for a priced basket. All amounts are
// rounded to two decimal places.
type Result struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	Currency string          `json:"currency"`
}

// Engine computes totals from line items under a fixed policy. It keeps no
// state, so the same items always price to the same result.
type Engine struct {
	policy Policy
}

// NewEngine returns an engine bound to the given policy.
func NewEngine(policy Policy) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Engine{policy: policy}, nil
}

// Policy returns the policy the engine prices with.
func (e *Engine) Policy() Policy {
	return e.policy
}

// ComputeTotals prices the basket. Shipping is waived once the subtotal
// reaches the free shipping threshold; an empty basket prices to all zeros,
// including shipping.
func (e *Engine) ComputeTotals(items []LineItem) Result {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	subtotal = subtotal.Round(2)

	tax := subtotal.Mul(e.policy.TaxRate).Round(2)

	shipping := decimal.Zero
	if subtotal.IsPositive() && subtotal.LessThan(e.policy.FreeShippingThreshold) {
		shipping = e.policy.FlatShippingFee.Round(2)
	}

	return Result{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping).Round(2),
		Currency: e.policy.Currency,
	}
}
