package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue entry. Rating, ReviewCount and SalesCount
// are derived and only change alongside the review or order that affects them.
type Product struct {
	ID          int64               `json:"id" db:"id"`
	CategoryID  *int64              `json:"categoryId,omitempty" db:"category_id"`
	Name        string              `json:"name" db:"name"`
	Slug        string              `json:"slug" db:"slug"`
	SKU         string              `json:"sku" db:"sku"`
	Description string              `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal     `json:"price" db:"price"`
	Stock       int                 `json:"stock" db:"stock"`
	ImageURL    string              `json:"imageUrl,omitempty" db:"image_url"`
	Rating      decimal.NullDecimal `json:"rating" db:"rating"`
	ReviewCount int                 `json:"reviewCount" db:"review_count"`
	SalesCount  int                 `json:"salesCount" db:"sales_count"`
	IsActive    bool                `json:"isActive" db:"is_active"`
	CreatedAt   time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time           `json:"updatedAt" db:"updated_at"`
}

// Category groups products. ParentID links a subcategory to its parent.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description,omitempty" db:"description"`
	ParentID    *int64    `json:"parentId,omitempty" db:"parent_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ProductInput carries the writable product fields. Stock is only used as
// the opening stock on create; later changes go through StockAdjustment.
type ProductInput struct {
	CategoryID  *int64          `json:"categoryId,omitempty" validate:"omitempty,gt=0"`
	Name        string          `json:"name" validate:"required,max=255"`
	Slug        string          `json:"slug" validate:"required,max=255"`
	SKU         string          `json:"sku" validate:"required,max=100"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"gte=0"`
	ImageURL    string          `json:"imageUrl,omitempty" validate:"omitempty,url"`
	IsActive    bool            `json:"isActive"`
}

// StockAdjustment adds to or removes from a product's stock. Delta is
// relative so concurrent checkouts are never overwritten.
type StockAdjustment struct {
	Delta int `json:"delta" validate:"ne=0"`
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"required,max=100"`
	Description string `json:"description,omitempty"`
	ParentID    *int64 `json:"parentId,omitempty" validate:"omitempty,gt=0"`
}

// RatingSummary is the rollup of approved reviews for a product.
type RatingSummary struct {
	ProductID   int64               `json:"productId"`
	Rating      decimal.NullDecimal `json:"rating"`
	ReviewCount int                 `json:"reviewCount"`
}

// ComputeRating returns the mean of count ratings summing to sum, rounded
// to two decimals. It is null when there are no ratings.
func ComputeRating(sum, count int64) decimal.NullDecimal {
	if count <= 0 {
		return decimal.NullDecimal{}
	}
	mean := decimal.NewFromInt(sum).DivRound(decimal.NewFromInt(count), MoneyScale)
	return decimal.NewNullDecimal(mean)
}
