package service

import (
	"context"

	"storefront/internal/model"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("storefront/internal/service")

// ProductService defines operations for catalogue management.
type ProductService interface {
	// List retrieves active products with pagination.
	List(ctx context.Context, limit, offset int) ([]model.Product, error)

	// ListByCategory retrieves active products of one category.
	ListByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	Create(ctx context.Context, input *model.ProductInput) (*model.Product, error)

	// Update changes the editable fields. Stock, rating, review count and
	// sales count are never taken from input.
	Update(ctx context.Context, id int64, input *model.ProductInput) (*model.Product, error)

	// AdjustStock adds adj.Delta to stock under the row lock. Removing more
	// than is on hand fails with ErrInsufficientStock.
	AdjustStock(ctx context.Context, id int64, adj *model.StockAdjustment) (*model.Product, error)

	// Delete fails with ErrProductInUse when any order references the product.
	Delete(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, input *model.CategoryInput) (*model.Category, error)
}

// ProductCache drops cached product reads after writes made outside the
// ProductService, such as stock and rating changes.
type ProductCache interface {
	Invalidate(ctx context.Context, ids ...int64)
}

type noCache struct{}

func (noCache) Invalidate(context.Context, ...int64) {}

// OrderService defines operations on the order aggregate.
type OrderService interface {
	// CreateOrder places an order atomically: every line is priced from the
	// catalogue, stock is reserved and totals are derived in one transaction.
	// Failures are reported as *model.OrderCreationError.
	CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error)

	// GetOrder retrieves an order with its items.
	GetOrder(ctx context.Context, id int64) (*model.Order, error)

	ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error)

	// TransitionOrderStatus moves the order along its status machine.
	TransitionOrderStatus(ctx context.Context, orderID int64, next model.OrderStatus) (*model.Order, error)

	// TransitionPaymentStatus moves the payment along its own status machine.
	TransitionPaymentStatus(ctx context.Context, orderID int64, next model.PaymentStatus) (*model.Order, error)

	DeleteOrder(ctx context.Context, id int64) error
}

// ReviewService defines operations for product reviews and rating rollups.
type ReviewService interface {
	CreateReview(ctx context.Context, req *model.CreateReviewRequest) (*model.Review, error)
	UpdateReview(ctx context.Context, reviewID, userID int64, req *model.UpdateReviewRequest) (*model.Review, error)
	ModerateReview(ctx context.Context, reviewID int64, approved bool) (*model.Review, error)
	RespondToReview(ctx context.Context, reviewID int64, response string) (*model.Review, error)
	MarkHelpful(ctx context.Context, reviewID int64) error
	DeleteReview(ctx context.Context, reviewID int64) error
	ListProductReviews(ctx context.Context, productID int64, limit, offset int) ([]model.Review, error)

	// RecomputeProductRating rebuilds a product's rating and review count
	// from its approved reviews.
	RecomputeProductRating(ctx context.Context, productID int64) (*model.RatingSummary, error)
}

// AccountService defines operations for customer and admin accounts.
type AccountService interface {
	RegisterUser(ctx context.Context, req *model.RegisterUserRequest) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateUserProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error)

	// DeactivateUser soft-deletes the account; order history is kept.
	DeactivateUser(ctx context.Context, id int64) error

	// DeleteUser removes the account for good. Users with orders cannot be deleted.
	DeleteUser(ctx context.Context, id int64) error

	CreateAdmin(ctx context.Context, req *model.CreateAdminRequest) (*model.Admin, error)
	AuthenticateAdmin(ctx context.Context, email, password string) (*model.Admin, error)
}

// CartService defines shopping cart operations.
type CartService interface {
	AddItem(ctx context.Context, userID int64, req *model.CartItemRequest) (*model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID int64, req *model.CartItemRequest) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	ListItems(ctx context.Context, userID int64) ([]model.CartItem, error)
	Count(ctx context.Context, userID int64) (model.CartCount, error)
	Clear(ctx context.Context, userID int64) error
}

// WishlistService defines wishlist operations.
type WishlistService interface {
	Add(ctx context.Context, userID, productID int64) (*model.WishlistItem, error)
	Remove(ctx context.Context, userID, productID int64) error
	List(ctx context.Context, userID int64) ([]model.WishlistItem, error)
}

// MessageService defines user inbox operations.
type MessageService interface {
	List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Message, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, messageID int64) error
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
