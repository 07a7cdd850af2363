package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type wishlistRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewWishlistRepository creates a new PostgreSQL-backed wishlist repository.
func NewWishlistRepository(pool *pgxpool.Pool, logger zerolog.Logger) WishlistRepository {
	return &wishlistRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "wishlist").Logger(),
	}
}

func (r *wishlistRepository) Add(ctx context.Context, userID, productID int64) (*model.WishlistItem, error) {
	query := `
		INSERT INTO wishlists (user_id, product_id)
		VALUES ($1, $2)
		RETURNING id, user_id, product_id, created_at
	`

	rows, err := r.pool.Query(ctx, query, userID, productID)
	if err == nil {
		var item model.WishlistItem
		item, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[model.WishlistItem])
		if err == nil {
			return &item, nil
		}
	}

	switch {
	case isUniqueViolation(err, "wishlists_user_product_key"):
		return nil, model.ErrDuplicateWishlistItem.WithMessage("product %d is already in the wishlist", productID)
	case isForeignKeyViolation(err):
		return nil, model.ErrProductNotFound.WithMessage("product %d or user %d not found", productID, userID)
	}
	r.logger.Error().Err(err).
		Int64("user_id", userID).
		Int64("product_id", productID).
		Msg("failed to add wishlist item")
	return nil, fmt.Errorf("failed to add wishlist item: %w", err)
}

func (r *wishlistRepository) Remove(ctx context.Context, userID, productID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Int64("product_id", productID).Msg("failed to remove wishlist item")
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound.WithMessage("product %d is not in the wishlist", productID)
	}
	return nil
}

func (r *wishlistRepository) List(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_id, created_at FROM wishlists WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query wishlist")
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.WishlistItem])
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to scan wishlist")
		return nil, fmt.Errorf("failed to scan wishlist: %w", err)
	}

	return items, nil
}
