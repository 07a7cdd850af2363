package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's rating of a product. IsVerifiedPurchase and OrderID
// are computed when the review is created and never taken from input.
type Review struct {
	ID                 int64      `json:"id" db:"id"`
	UserID             int64      `json:"userId" db:"user_id"`
	ProductID          int64      `json:"productId" db:"product_id"`
	OrderID            *int64     `json:"orderId,omitempty" db:"order_id"`
	Rating             int        `json:"rating" db:"rating"`
	Title              string     `json:"title,omitempty" db:"title"`
	Comment            string     `json:"comment,omitempty" db:"comment"`
	Images             []string   `json:"images" db:"images"`
	IsVerifiedPurchase bool       `json:"isVerifiedPurchase" db:"is_verified_purchase"`
	IsApproved         bool       `json:"isApproved" db:"is_approved"`
	HelpfulCount       int        `json:"helpfulCount" db:"helpful_count"`
	AdminResponse      *string    `json:"adminResponse,omitempty" db:"admin_response"`
	AdminResponseAt    *time.Time `json:"adminResponseAt,omitempty" db:"admin_response_at"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt          time.Time  `json:"updatedAt" db:"updated_at"`
}

// CreateReviewRequest is the input for createReview.
type CreateReviewRequest struct {
	UserID    int64    `json:"userId" validate:"required,gt=0"`
	ProductID int64    `json:"productId" validate:"required,gt=0"`
	Rating    int      `json:"rating" validate:"gte=1,lte=5"`
	Title     string   `json:"title,omitempty" validate:"max=255"`
	Comment   string   `json:"comment,omitempty" validate:"max=5000"`
	Images    []string `json:"images,omitempty" validate:"max=10,dive,url"`
}

// UpdateReviewRequest holds the fields a reviewer may change. Nil fields
// are left untouched.
type UpdateReviewRequest struct {
	Rating  *int     `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
	Title   *string  `json:"title,omitempty" validate:"omitempty,max=255"`
	Comment *string  `json:"comment,omitempty" validate:"omitempty,max=5000"`
	Images  []string `json:"images,omitempty" validate:"omitempty,max=10,dive,url"`
}

// ValidateRating checks that r is within [MinRating, MaxRating].
func ValidateRating(r int) error {
	if r < MinRating || r > MaxRating {
		return ErrInvalidRating.WithField("rating", "must be between 1 and 5")
	}
	return nil
}
