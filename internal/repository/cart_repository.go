package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

// AddItem inserts the line or adds quantity to the existing one.
func (r *cartRepository) AddItem(ctx context.Context, userID, productID int64, quantity int) (*model.CartItem, error) {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT cart_items_user_product_key
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, user_id, product_id, quantity, created_at, updated_at
	`

	var item model.CartItem
	err := r.pool.QueryRow(ctx, query, userID, productID, quantity).Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, r.writeError(err, "add cart item", userID, productID)
	}

	return &item, nil
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID, productID int64, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $3, updated_at = NOW()
		WHERE user_id = $1 AND product_id = $2
	`

	tag, err := r.pool.Exec(ctx, query, userID, productID, quantity)
	if err != nil {
		return r.writeError(err, "update cart item", userID, productID)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartItemNotFound.WithMessage("product %d is not in the cart", productID)
	}
	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, userID, productID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return r.writeError(err, "remove cart item", userID, productID)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartItemNotFound.WithMessage("product %d is not in the cart", productID)
	}
	return nil
}

func (r *cartRepository) writeError(err error, op string, userID, productID int64) error {
	switch {
	case isForeignKeyViolation(err):
		return model.ErrProductNotFound.WithMessage("product %d or user %d not found", productID, userID)
	case isCheckViolation(err):
		return model.ErrInvalidQuantity.WithField("quantity", "must be at least 1")
	}
	r.logger.Error().Err(err).
		Int64("user_id", userID).
		Int64("product_id", productID).
		Msgf("failed to %s", op)
	return fmt.Errorf("failed to %s: %w", op, err)
}

func (r *cartRepository) List(ctx context.Context, userID int64) ([]model.CartItem, error) {
	query := `
		SELECT c.id, c.user_id, c.product_id, c.quantity, c.created_at, c.updated_at,
			p.name, p.price, p.image_url
		FROM cart_items c
		JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.created_at, c.id
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CartItem, error) {
		var item model.CartItem
		err := row.Scan(
			&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
			&item.ProductName, &item.ProductPrice, &item.ProductImage,
		)
		return item, err
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to scan cart")
		return nil, fmt.Errorf("failed to scan cart: %w", err)
	}

	return items, nil
}

// Count returns the number of lines and the total quantity in the cart.
func (r *cartRepository) Count(ctx context.Context, userID int64) (model.CartCount, error) {
	var count model.CartCount
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM cart_items WHERE user_id = $1`, userID,
	).Scan(&count.Lines, &count.Quantity)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to count cart")
		return model.CartCount{}, fmt.Errorf("failed to count cart: %w", err)
	}
	return count, nil
}

func (r *cartRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
