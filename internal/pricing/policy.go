package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/scentlane/storefront-backend/pkg/config"
	pkgerrors "github.com/scentlane/storefront-backend/pkg/errors"
)

// Policy carries the deployment's pricing knobs. Every surface that prices a
// basket shares the same policy instance so the numbers never disagree.
type Policy struct {
	TaxRate               decimal.Decimal
	FlatShippingFee       decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	Currency              string
}

// PolicyFromConfig builds the canonical policy from application config.
func PolicyFromConfig(cfg config.PricingConfig) (Policy, error) {
	taxRate, err := cfg.TaxRateDecimal()
	if err != nil {
		return Policy{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tax rate")
	}
	flatFee, err := cfg.FlatShippingFeeDecimal()
	if err != nil {
		return Policy{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid flat shipping fee")
	}
	threshold, err := cfg.FreeShippingThresholdDecimal()
	if err != nil {
		return Policy{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid free shipping threshold")
	}
	policy := Policy{
		TaxRate:               taxRate,
		FlatShippingFee:       flatFee,
		FreeShippingThreshold: threshold,
		Currency:              cfg.Currency,
	}
	if err := policy.Validate(); err != nil {
		return Policy{}, err
	}
	return policy, nil
}

// Validate rejects policies that would produce negative charges.
func (p Policy) Validate() error {
	if p.TaxRate.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate must be non-negative")
	}
	if p.FlatShippingFee.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "flat shipping fee must be non-negative")
	}
	if p.FreeShippingThreshold.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "free shipping threshold must be non-negative")
	}
	if p.Currency == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "currency is required")
	}
	return nil
}
