// Package pricing computes tax and shipping for an order subtotal.
package pricing

import (
	"fmt"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Quote is the tax and shipping charged on a subtotal.
type Quote struct {
	Tax          decimal.Decimal
	ShippingCost decimal.Decimal
}

// Policy prices an order subtotal.
type Policy interface {
	Quote(subtotal decimal.Decimal) Quote
}

// FlatRatePolicy charges a single tax rate and a flat shipping fee that is
// waived once the subtotal exceeds FreeShippingThreshold.
type FlatRatePolicy struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingCost          decimal.Decimal
}

// NewFlatRatePolicy parses the decimal strings held in configuration.
func NewFlatRatePolicy(taxRate, freeShippingThreshold, shippingCost string) (*FlatRatePolicy, error) {
	rate, err := decimal.NewFromString(taxRate)
	if err != nil {
		return nil, fmt.Errorf("invalid tax rate %q: %w", taxRate, err)
	}
	threshold, err := decimal.NewFromString(freeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid free shipping threshold %q: %w", freeShippingThreshold, err)
	}
	cost, err := decimal.NewFromString(shippingCost)
	if err != nil {
		return nil, fmt.Errorf("invalid shipping cost %q: %w", shippingCost, err)
	}

	if rate.IsNegative() || threshold.IsNegative() || cost.IsNegative() {
		return nil, fmt.Errorf("pricing values must not be negative")
	}

	return &FlatRatePolicy{
		TaxRate:               rate,
		FreeShippingThreshold: threshold,
		ShippingCost:          cost,
	}, nil
}

// Quote implements Policy.
func (p *FlatRatePolicy) Quote(subtotal decimal.Decimal) Quote {
	shipping := p.ShippingCost
	if subtotal.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Quote{
		Tax:          model.RoundMoney(subtotal.Mul(p.TaxRate)),
		ShippingCost: model.RoundMoney(shipping),
	}
}
