package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is one product line in a user's cart.
type CartItem struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	// Read-only product details joined for display.
	ProductName  string          `json:"productName" db:"-"`
	ProductPrice decimal.Decimal `json:"productPrice" db:"-"`
	ProductImage string          `json:"productImage,omitempty" db:"-"`
}

// CartItemRequest adds or updates a cart line.
type CartItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=1"`
}

// CartCount is what the header badge shows.
type CartCount struct {
	Lines    int `json:"lines"`
	Quantity int `json:"quantity"`
}

// WishlistItem records that a user saved a product.
type WishlistItem struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	ProductID int64     `json:"productId" db:"product_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MessageKind categorises a user notification message.
type MessageKind string

const (
	MessageKindOrderPlaced   MessageKind = "order_placed"
	MessageKindOrderStatus   MessageKind = "order_status"
	MessageKindPaymentStatus MessageKind = "payment_status"
	MessageKindGeneral       MessageKind = "general"
)

// Message is a notification addressed to a user.
type Message struct {
	ID        int64       `json:"id" db:"id"`
	UserID    int64       `json:"userId" db:"user_id"`
	OrderID   *int64      `json:"orderId,omitempty" db:"order_id"`
	Kind      MessageKind `json:"kind" db:"kind"`
	Subject   string      `json:"subject" db:"subject"`
	Body      string      `json:"body" db:"body"`
	IsRead    bool        `json:"isRead" db:"is_read"`
	CreatedAt time.Time   `json:"createdAt" db:"created_at"`
}
