package validation

import (
	"errors"
	"testing"

	"storefront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrderRequest() model.CreateOrderRequest {
	return model.CreateOrderRequest{
		UserID: 1,
		Items:  []model.OrderItemRequest{{ProductID: 1, Quantity: 2}},
		Shipping: model.ShippingInfo{
			Name:       "Ada Lovelace",
			Address:    "12 Analytical St",
			City:       "London",
			PostalCode: "N1 9GU",
			Country:    "UK",
		},
		Payment: model.PaymentInfo{Method: "card"},
	}
}

func TestValidator_Struct_Valid(t *testing.T) {
	req := validOrderRequest()
	assert.NoError(t, New().Struct(&req))
}

func TestValidator_Struct_FieldDetail(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.CreateOrderRequest)
		field  string
	}{
		{"zero quantity", func(r *model.CreateOrderRequest) { r.Items[0].Quantity = 0 }, "items[0].quantity"},
		{"missing product", func(r *model.CreateOrderRequest) { r.Items[0].ProductID = 0 }, "items[0].productId"},
		{"no items", func(r *model.CreateOrderRequest) { r.Items = nil }, "items"},
		{"missing user", func(r *model.CreateOrderRequest) { r.UserID = 0 }, "userId"},
		{"unknown payment", func(r *model.CreateOrderRequest) { r.Payment.Method = "barter" }, "payment.method"},
		{"missing city", func(r *model.CreateOrderRequest) { r.Shipping.City = "" }, "shipping.city"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validOrderRequest()
			tt.mutate(&req)

			err := New().Struct(&req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrValidation))

			var de *model.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, model.KindValidation, de.Kind)
			assert.Contains(t, de.Fields, tt.field)
		})
	}
}

func TestValidator_Struct_ReviewRating(t *testing.T) {
	v := New()
	for _, rating := range []int{0, 6, -1} {
		req := model.CreateReviewRequest{UserID: 1, ProductID: 1, Rating: rating}
		err := v.Struct(&req)
		require.Error(t, err)

		var de *model.DomainError
		require.True(t, errors.As(err, &de))
		assert.Contains(t, de.Fields, "rating")
	}

	ok := model.CreateReviewRequest{UserID: 1, ProductID: 1, Rating: 5, Images: []string{"https://cdn.test/a.jpg"}}
	assert.NoError(t, v.Struct(&ok))
}

func TestValidator_Struct_NotAStruct(t *testing.T) {
	err := New().Struct(42)
	require.Error(t, err)
	assert.False(t, errors.Is(err, model.ErrValidation))
}
