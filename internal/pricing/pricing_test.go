package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlatRatePolicy(t *testing.T) {
	tests := []struct {
		name      string
		rate      string
		threshold string
		cost      string
		errMatch  string
	}{
		{name: "valid", rate: "0.10", threshold: "50.00", cost: "5.99"},
		{name: "bad rate", rate: "ten", threshold: "50", cost: "5", errMatch: "invalid tax rate"},
		{name: "bad threshold", rate: "0.1", threshold: "", cost: "5", errMatch: "invalid free shipping threshold"},
		{name: "bad cost", rate: "0.1", threshold: "50", cost: "x", errMatch: "invalid shipping cost"},
		{name: "negative", rate: "-0.1", threshold: "50", cost: "5", errMatch: "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewFlatRatePolicy(tt.rate, tt.threshold, tt.cost)
			if tt.errMatch != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMatch)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestFlatRatePolicy_Quote(t *testing.T) {
	policy, err := NewFlatRatePolicy("0.10", "30.00", "5.99")
	require.NoError(t, err)

	tests := []struct {
		subtotal     string
		wantTax      string
		wantShipping string
	}{
		{"35.00", "3.50", "0.00"},
		{"30.00", "3.00", "5.99"},
		{"12.34", "1.23", "5.99"},
		{"0.05", "0.01", "5.99"},
		{"100.00", "10.00", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.subtotal, func(t *testing.T) {
			q := policy.Quote(decimal.RequireFromString(tt.subtotal))
			assert.Equal(t, tt.wantTax, q.Tax.StringFixed(2))
			assert.Equal(t, tt.wantShipping, q.ShippingCost.StringFixed(2))
		})
	}
}
