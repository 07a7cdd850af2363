package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const reviewColumns = `id, user_id, product_id, order_id, rating, title, comment, images,
	is_verified_purchase, is_approved, helpful_count, admin_response, admin_response_at,
	created_at, updated_at`

const reviewUserProductKey = "reviews_user_product_key"

type reviewRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReviewRepository {
	return &reviewRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "review").Logger(),
	}
}

func (r *reviewRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// Create inserts the review. The unique (user, product) constraint is what
// rejects a second review; no read-then-write check is made.
func (r *reviewRepository) Create(ctx context.Context, tx pgx.Tx, review *model.Review) error {
	if review.Images == nil {
		review.Images = []string{}
	}

	query := `
		INSERT INTO reviews (user_id, product_id, order_id, rating, title, comment, images, is_verified_purchase, is_approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, helpful_count, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		review.UserID,
		review.ProductID,
		review.OrderID,
		review.Rating,
		review.Title,
		review.Comment,
		review.Images,
		review.IsVerifiedPurchase,
		review.IsApproved,
	).Scan(&review.ID, &review.HelpfulCount, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err, reviewUserProductKey):
			r.logger.Debug().
				Int64("user_id", review.UserID).
				Int64("product_id", review.ProductID).
				Msg("duplicate review rejected")
			return model.ErrDuplicateReview.WithMessage("user %d has already reviewed product %d", review.UserID, review.ProductID)
		case isCheckViolation(err):
			return model.ErrInvalidRating.WithField("rating", "must be between 1 and 5")
		case isForeignKeyViolation(err):
			return model.ErrUserNotFound.WithMessage("user %d not found", review.UserID)
		}
		r.logger.Error().Err(err).
			Int64("user_id", review.UserID).
			Int64("product_id", review.ProductID).
			Msg("failed to create review")
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

func scanReview(row rowScanner, rv *model.Review) error {
	return row.Scan(
		&rv.ID,
		&rv.UserID,
		&rv.ProductID,
		&rv.OrderID,
		&rv.Rating,
		&rv.Title,
		&rv.Comment,
		&rv.Images,
		&rv.IsVerifiedPurchase,
		&rv.IsApproved,
		&rv.HelpfulCount,
		&rv.AdminResponse,
		&rv.AdminResponseAt,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
}

func (r *reviewRepository) GetByID(ctx context.Context, id int64) (*model.Review, error) {
	return r.getOne(ctx, r.pool, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
}

func (r *reviewRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Review, error) {
	return r.getOne(ctx, tx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1 FOR UPDATE`, id)
}

func (r *reviewRepository) getOne(ctx context.Context, q querier, query string, id int64) (*model.Review, error) {
	var rv model.Review
	if err := scanReview(q.QueryRow(ctx, query, id), &rv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("review_id", id).Msg("failed to query review")
		return nil, fmt.Errorf("failed to query review: %w", err)
	}
	return &rv, nil
}

// Update writes rating, text, images, approval and admin response.
func (r *reviewRepository) Update(ctx context.Context, tx pgx.Tx, review *model.Review) error {
	if review.Images == nil {
		review.Images = []string{}
	}

	query := `
		UPDATE reviews
		SET rating = $2, title = $3, comment = $4, images = $5, is_approved = $6,
			admin_response = $7, admin_response_at = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := tx.QueryRow(ctx, query,
		review.ID,
		review.Rating,
		review.Title,
		review.Comment,
		review.Images,
		review.IsApproved,
		review.AdminResponse,
		review.AdminResponseAt,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrReviewNotFound.WithMessage("review %d not found", review.ID)
		}
		if isCheckViolation(err) {
			return model.ErrInvalidRating.WithField("rating", "must be between 1 and 5")
		}
		r.logger.Error().Err(err).Int64("review_id", review.ID).Msg("failed to update review")
		return fmt.Errorf("failed to update review: %w", err)
	}

	return nil
}

func (r *reviewRepository) Delete(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("review_id", id).Msg("failed to delete review")
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound.WithMessage("review %d not found", id)
	}
	return nil
}

func (r *reviewRepository) IncrementHelpful(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE reviews SET helpful_count = helpful_count + 1 WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("review_id", id).Msg("failed to increment helpful count")
		return fmt.Errorf("failed to increment helpful count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrReviewNotFound.WithMessage("review %d not found", id)
	}
	return nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID int64, approvedOnly bool, limit, offset int) ([]model.Review, error) {
	query := `
		SELECT ` + reviewColumns + `
		FROM reviews
		WHERE product_id = $1 AND (is_approved OR NOT $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, productID, approvedOnly, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to query reviews")
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := scanReview(rows, &rv); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan review row")
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating review rows")
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

// ApprovedStats aggregates the approved reviews of a product inside tx, so
// the caller sees its own uncommitted writes.
func (r *reviewRepository) ApprovedStats(ctx context.Context, tx pgx.Tx, productID int64) (int64, int64, error) {
	query := `
		SELECT COALESCE(SUM(rating), 0), COUNT(*)
		FROM reviews
		WHERE product_id = $1 AND is_approved
	`

	var sum, count int64
	if err := tx.QueryRow(ctx, query, productID).Scan(&sum, &count); err != nil {
		r.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to aggregate reviews")
		return 0, 0, fmt.Errorf("failed to aggregate reviews: %w", err)
	}

	return sum, count, nil
}

func (r *reviewRepository) ProductIDsByUser(ctx context.Context, tx pgx.Tx, userID int64) ([]int64, error) {
	rows, err := tx.Query(ctx, `SELECT DISTINCT product_id FROM reviews WHERE user_id = $1 ORDER BY product_id`, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list reviewed products")
		return nil, fmt.Errorf("failed to list reviewed products: %w", err)
	}

	productIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to scan reviewed products")
		return nil, fmt.Errorf("failed to scan reviewed products: %w", err)
	}

	return productIDs, nil
}

func (r *reviewRepository) DeleteByUser(ctx context.Context, tx pgx.Tx, userID int64) ([]int64, error) {
	rows, err := tx.Query(ctx, `DELETE FROM reviews WHERE user_id = $1 RETURNING product_id`, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to delete user reviews")
		return nil, fmt.Errorf("failed to delete user reviews: %w", err)
	}

	productIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to scan deleted reviews")
		return nil, fmt.Errorf("failed to scan deleted reviews: %w", err)
	}

	return productIDs, nil
}
