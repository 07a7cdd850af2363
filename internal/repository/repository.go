package repository

import (
	"context"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
)

// Transactor starts transactions that span several repositories.
type Transactor interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves active products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. It returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// ListByCategory retrieves active products of one category.
	ListByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]model.Product, error)

	Create(ctx context.Context, product *model.Product) error

	// Update writes the editable catalogue fields. Stock and derived rollups
	// are untouched.
	Update(ctx context.Context, product *model.Product) error

	// AdjustStock adds delta to stock under the product row lock and returns
	// the new level. It fails with ErrInsufficientStock rather than drive
	// stock negative.
	AdjustStock(ctx context.Context, id int64, delta int) (int, error)

	// Delete removes a product. A product referenced by any order item cannot
	// be deleted; cart, wishlist and review rows for it are removed first.
	Delete(ctx context.Context, id int64) error

	// LockByIDs loads the products and holds their row locks until tx ends.
	// Rows are locked in id order.
	LockByIDs(ctx context.Context, tx pgx.Tx, ids []int64) ([]model.Product, error)

	// LockByID is LockByIDs for a single product. It returns nil when absent.
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error)

	// DecrementStock takes quantity from stock and adds it to the sales count.
	// It fails with ErrInsufficientStock rather than drive stock negative.
	DecrementStock(ctx context.Context, tx pgx.Tx, id int64, quantity int) error

	// RestoreStock reverses DecrementStock.
	RestoreStock(ctx context.Context, tx pgx.Tx, id int64, quantity int) error

	// UpdateRating stores a recomputed rating rollup.
	UpdateRating(ctx context.Context, tx pgx.Tx, summary model.RatingSummary) error

	// ListRatingDrift returns ids of products whose stored rollup differs from
	// their approved reviews.
	ListRatingDrift(ctx context.Context, limit int) ([]int64, error)
}

// CategoryRepository defines the interface for category data access operations.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	GetBySlug(ctx context.Context, slug string) (*model.Category, error)
	Create(ctx context.Context, category *model.Category) error

	// Delete removes a category after detaching its products and subcategories.
	Delete(ctx context.Context, id int64) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	Transactor

	// NextOrderNumber allocates a unique order number for an order placed at the given time.
	NextOrderNumber(ctx context.Context, tx pgx.Tx, placedAt time.Time) (string, error)

	// CreateOrder inserts a new order header within the provided transaction
	// and fills in its generated id and timestamps.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts order items within the provided transaction
	// and fills in their generated ids.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items. It returns nil when absent.
	GetByID(ctx context.Context, id int64) (*model.Order, error)

	// LockByID loads an order with its items and holds the order row lock until tx ends.
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error)

	UpdateStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error
	UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// ListByUser retrieves order headers of a user, newest first.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error)

	// LatestPurchase returns the id of the user's most recent non-cancelled
	// order containing the product, or nil when there is none.
	LatestPurchase(ctx context.Context, tx pgx.Tx, userID, productID int64) (*int64, error)

	// Delete removes an order and its items.
	Delete(ctx context.Context, id int64) error
}

// ReviewRepository defines the interface for review data access operations.
type ReviewRepository interface {
	Transactor

	// Create inserts a review. A second review by the same user for the same
	// product fails with ErrDuplicateReview.
	Create(ctx context.Context, tx pgx.Tx, review *model.Review) error

	// GetByID returns nil when the review is absent.
	GetByID(ctx context.Context, id int64) (*model.Review, error)
	LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Review, error)

	// Update writes the editable fields. The verified purchase flag and order link are never rewritten.
	Update(ctx context.Context, tx pgx.Tx, review *model.Review) error
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
	IncrementHelpful(ctx context.Context, id int64) error
	ListByProduct(ctx context.Context, productID int64, approvedOnly bool, limit, offset int) ([]model.Review, error)

	// ApprovedStats returns the rating sum and count of approved reviews of a product.
	ApprovedStats(ctx context.Context, tx pgx.Tx, productID int64) (sum, count int64, err error)

	// ProductIDsByUser returns the distinct ids of products a user has
	// reviewed, in ascending order.
	ProductIDsByUser(ctx context.Context, tx pgx.Tx, userID int64) ([]int64, error)

	// DeleteByUser removes all reviews written by a user and returns the affected product ids.
	DeleteByUser(ctx context.Context, tx pgx.Tx, userID int64) ([]int64, error)
}

// UserRepository defines the interface for customer account data access.
type UserRepository interface {
	Transactor

	Create(ctx context.Context, user *model.User) error

	// GetByID returns nil for absent or soft-deleted users.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateProfile(ctx context.Context, user *model.User) error

	// SoftDelete deactivates the account and keeps its order history.
	SoftDelete(ctx context.Context, id int64) error

	// Delete removes a user row along with cart, wishlist and message rows.
	// A user with orders cannot be deleted.
	Delete(ctx context.Context, tx pgx.Tx, id int64) error
}

// AdminRepository defines the interface for admin account data access.
type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	GetByID(ctx context.Context, id int64) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	// AddItem inserts a line or adds quantity to an existing one.
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*model.CartItem, error)
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, productID int64) error
	List(ctx context.Context, userID int64) ([]model.CartItem, error)
	Count(ctx context.Context, userID int64) (model.CartCount, error)
	Clear(ctx context.Context, userID int64) error
}

// WishlistRepository defines the interface for wishlist data access.
type WishlistRepository interface {
	Add(ctx context.Context, userID, productID int64) (*model.WishlistItem, error)
	Remove(ctx context.Context, userID, productID int64) error
	List(ctx context.Context, userID int64) ([]model.WishlistItem, error)
}

// MessageRepository defines the interface for user notification messages.
type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Message, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, userID, id int64) error
}
