package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fraction digits kept on every monetary amount.
const MoneyScale = 2

// RoundMoney rounds an amount half away from zero to MoneyScale digits,
// matching PostgreSQL's ROUND(numeric, 2).
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// Order is a placed purchase. Monetary fields are fixed when the order is
// created and are never recomputed afterwards.
type Order struct {
	ID                 int64           `json:"id" db:"id"`
	OrderNumber        string          `json:"orderNumber" db:"order_number"`
	UserID             int64           `json:"userId" db:"user_id"`
	Status             OrderStatus     `json:"status" db:"status"`
	PaymentStatus      PaymentStatus   `json:"paymentStatus" db:"payment_status"`
	PaymentMethod      string          `json:"paymentMethod" db:"payment_method"`
	Subtotal           decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax                decimal.Decimal `json:"tax" db:"tax"`
	ShippingCost       decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	Total              decimal.Decimal `json:"total" db:"total"`
	CustomerName       string          `json:"customerName" db:"customer_name"`
	CustomerEmail      string          `json:"customerEmail" db:"customer_email"`
	ShippingName       string          `json:"shippingName" db:"shipping_name"`
	ShippingAddress    string          `json:"shippingAddress" db:"shipping_address"`
	ShippingCity       string          `json:"shippingCity" db:"shipping_city"`
	ShippingState      string          `json:"shippingState" db:"shipping_state"`
	ShippingPostalCode string          `json:"shippingPostalCode" db:"shipping_postal_code"`
	ShippingCountry    string          `json:"shippingCountry" db:"shipping_country"`
	ShippingPhone      string          `json:"shippingPhone" db:"shipping_phone"`
	Notes              string          `json:"notes,omitempty" db:"notes"`
	Items              []OrderItem     `json:"items"`
	CreatedAt          time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a line entry holding a snapshot of the product at order time.
type OrderItem struct {
	ID           int64           `json:"id" db:"id"`
	OrderID      int64           `json:"orderId" db:"order_id"`
	ProductID    int64           `json:"productId" db:"product_id"`
	ProductName  string          `json:"productName" db:"product_name"`
	ProductSKU   string          `json:"productSku" db:"product_sku"`
	ProductImage string          `json:"productImage,omitempty" db:"product_image"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// NewOrderItem snapshots the product's current name, sku, image and price
// into a new line and derives its subtotal.
func NewOrderItem(p *Product, quantity int) OrderItem {
	item := OrderItem{
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductSKU:   p.SKU,
		ProductImage: p.ImageURL,
		Price:        p.Price,
		Quantity:     quantity,
	}
	item.Derive()
	return item
}

// Derive recomputes Subtotal from Price and Quantity.
func (i *OrderItem) Derive() {
	i.Subtotal = RoundMoney(i.Price.Mul(decimal.NewFromInt(int64(i.Quantity))))
}

// Validate checks the line's quantity and price bounds.
func (i *OrderItem) Validate() error {
	if i.Quantity < 1 {
		return ErrInvalidQuantity.WithField("quantity", "must be at least 1")
	}
	if i.Price.IsNegative() {
		return ErrNegativePrice.WithField("price", "must not be negative")
	}
	return nil
}

// SumSubtotals returns the sum of the item subtotals.
func SumSubtotals(items []OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Subtotal)
	}
	return sum
}

// ApplyTotals sets the order's monetary fields from its items and the
// given tax and shipping amounts.
func (o *Order) ApplyTotals(tax, shippingCost decimal.Decimal) {
	o.Subtotal = SumSubtotals(o.Items)
	o.Tax = RoundMoney(tax)
	o.ShippingCost = RoundMoney(shippingCost)
	o.Total = RoundMoney(o.Subtotal.Add(o.Tax).Add(o.ShippingCost))
}

// CheckTotals verifies the monetary invariants of the order and of every item.
func (o *Order) CheckTotals() error {
	if len(o.Items) == 0 {
		return ErrValidation.WithField("items", "order must contain at least one item")
	}
	for idx := range o.Items {
		item := o.Items[idx]
		if err := item.Validate(); err != nil {
			return err
		}
		expected := item.Subtotal
		item.Derive()
		if !item.Subtotal.Equal(expected) {
			return ErrValidation.WithMessage("item %d subtotal %s does not match price x quantity %s",
				idx, expected.StringFixed(MoneyScale), item.Subtotal.StringFixed(MoneyScale))
		}
	}
	if sum := SumSubtotals(o.Items); !o.Subtotal.Equal(sum) {
		return ErrValidation.WithMessage("order subtotal %s does not match item sum %s",
			o.Subtotal.StringFixed(MoneyScale), sum.StringFixed(MoneyScale))
	}
	if o.Tax.IsNegative() || o.ShippingCost.IsNegative() {
		return ErrNegativePrice.WithMessage("tax and shipping cost must not be negative")
	}
	if total := RoundMoney(o.Subtotal.Add(o.Tax).Add(o.ShippingCost)); !o.Total.Equal(total) {
		return ErrValidation.WithMessage("order total %s does not match subtotal + tax + shipping %s",
			o.Total.StringFixed(MoneyScale), total.StringFixed(MoneyScale))
	}
	return nil
}

// CreateOrderRequest is the input for placing an order.
type CreateOrderRequest struct {
	UserID   int64              `json:"userId" validate:"required,gt=0"`
	Items    []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Shipping ShippingInfo       `json:"shipping" validate:"required"`
	Payment  PaymentInfo        `json:"payment" validate:"required"`
	Notes    string             `json:"notes,omitempty" validate:"max=1000"`
}

// OrderItemRequest represents a single (product, quantity) line of an order request.
type OrderItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1"`
}

// ShippingInfo is the delivery address captured on the order.
type ShippingInfo struct {
	Name       string `json:"name" validate:"required,max=255"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required,max=100"`
	State      string `json:"state" validate:"max=100"`
	PostalCode string `json:"postalCode" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,max=100"`
	Phone      string `json:"phone" validate:"max=30"`
}

// PaymentInfo carries the chosen payment method. Gateway interaction
// happens elsewhere; only the method is recorded.
type PaymentInfo struct {
	Method string `json:"method" validate:"required,oneof=card paypal cash_on_delivery bank_transfer"`
}

// StatusTransitionRequest asks for an order or payment status change.
type StatusTransitionRequest struct {
	Status string `json:"status" validate:"required"`
}
