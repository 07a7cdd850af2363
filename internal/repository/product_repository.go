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

const productColumns = `id, category_id, name, slug, sku, description, price, stock, image_url,
	rating, review_count, sales_count, is_active, created_at, updated_at`

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, p *model.Product) error {
	return row.Scan(
		&p.ID,
		&p.CategoryID,
		&p.Name,
		&p.Slug,
		&p.SKU,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.ImageURL,
		&p.Rating,
		&p.ReviewCount,
		&p.SalesCount,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

// GetAll retrieves active products with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE is_active
		ORDER BY name, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	return r.collect(rows)
}

// GetByID retrieves a single product by its ID.
func (r *productRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var p model.Product
	if err := scanProduct(r.pool.QueryRow(ctx, query, id), &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("product_id", id).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (r *productRepository) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	return r.collect(rows)
}

func (r *productRepository) ListByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category_id = $1 AND is_active
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, categoryID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int64("category_id", categoryID).Msg("failed to query products by category")
		return nil, fmt.Errorf("failed to query products by category: %w", err)
	}

	return r.collect(rows)
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (category_id, name, slug, sku, description, price, stock, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.CategoryID, p.Name, p.Slug, p.SKU, p.Description, p.Price, p.Stock, p.ImageURL, p.IsActive,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return r.writeError(err, "create", p)
	}

	r.logger.Debug().Int64("product_id", p.ID).Str("sku", p.SKU).Msg("product created")
	return nil
}

func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET category_id = $2, name = $3, slug = $4, sku = $5, description = $6,
			price = $7, image_url = $8, is_active = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING stock, updated_at
	`

	// Stock is only changed through AdjustStock or the order paths, both of
	// which hold the row lock.
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.CategoryID, p.Name, p.Slug, p.SKU, p.Description, p.Price, p.ImageURL, p.IsActive,
	).Scan(&p.Stock, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProductNotFound.WithMessage("product %d not found", p.ID)
		}
		return r.writeError(err, "update", p)
	}

	return nil
}

func (r *productRepository) AdjustStock(ctx context.Context, id int64, delta int) (int, error) {
	tx, err := beginTx(ctx, r.pool, r.logger)
	if err != nil {
		return 0, err
	}
	defer Rollback(ctx, tx, r.logger)

	// Lock first so the adjustment queues behind any checkout holding the row
	locked, err := r.LockByID(ctx, tx, id)
	if err != nil {
		return 0, err
	}
	if locked == nil {
		return 0, model.ErrProductNotFound.WithMessage("product %d not found", id)
	}
	if locked.Stock+delta < 0 {
		r.logger.Warn().Int64("product_id", id).Int("stock", locked.Stock).Int("delta", delta).Msg("stock adjustment below zero")
		return 0, model.ErrInsufficientStock.WithMessage("cannot remove %d units from product %d, %d in stock", -delta, id, locked.Stock)
	}

	var stock int
	err = tx.QueryRow(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1 RETURNING stock`,
		id, delta,
	).Scan(&stock)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Int("delta", delta).Msg("failed to adjust stock")
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to commit stock adjustment")
		return 0, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	r.logger.Info().Int64("product_id", id).Int("delta", delta).Int("stock", stock).Msg("stock adjusted")
	return stock, nil
}

func (r *productRepository) writeError(err error, op string, p *model.Product) error {
	switch {
	case isUniqueViolation(err, ""):
		return model.ErrValidation.WithField("sku", "sku and slug must be unique")
	case isForeignKeyViolation(err):
		return model.ErrCategoryNotFound.WithField("categoryId", "category does not exist")
	case isCheckViolation(err):
		return model.ErrValidation.WithMessage("product values out of range")
	}
	r.logger.Error().Err(err).Int64("product_id", p.ID).Str("sku", p.SKU).Msgf("failed to %s product", op)
	return fmt.Errorf("failed to %s product: %w", op, err)
}

// Delete removes a product together with its reviews, cart lines and
// wishlist entries. Products that appear on any order are kept.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tx, err := beginTx(ctx, r.pool, r.logger)
	if err != nil {
		return err
	}
	defer Rollback(ctx, tx, r.logger)

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProductNotFound.WithMessage("product %d not found", id)
		}
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to lock product")
		return fmt.Errorf("failed to lock product: %w", err)
	}

	var ordered bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)`, id).Scan(&ordered); err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to check order items")
		return fmt.Errorf("failed to check order items: %w", err)
	}
	if ordered {
		return model.ErrProductInUse.WithMessage("product %d is referenced by orders", id)
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM reviews WHERE product_id = $1`, id)
	batch.Queue(`DELETE FROM cart_items WHERE product_id = $1`, id)
	batch.Queue(`DELETE FROM wishlists WHERE product_id = $1`, id)
	batch.Queue(`DELETE FROM products WHERE id = $1`, id)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Int64("product_id", id).Msg("failed to commit product delete")
		return fmt.Errorf("failed to commit product delete: %w", err)
	}

	r.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

// LockByIDs loads the products and holds their row locks until tx ends.
func (r *productRepository) LockByIDs(ctx context.Context, tx pgx.Tx, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to lock products")
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	return r.collect(rows)
}

func (r *productRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	products, err := r.LockByIDs(ctx, tx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

// DecrementStock takes quantity from stock and adds it to the sales count.
// The stock guard is part of the statement so concurrent orders cannot
// oversell even without the row lock.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, id int64, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2, sales_count = sales_count + $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("product_id", id).
			Int("quantity", quantity).
			Msg("failed to decrement stock")
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().Int64("product_id", id).Int("quantity", quantity).Msg("insufficient stock")
		return model.ErrInsufficientStock.WithMessage("insufficient stock for product %d", id)
	}

	return nil
}

func (r *productRepository) RestoreStock(ctx context.Context, tx pgx.Tx, id int64, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $2, sales_count = GREATEST(sales_count - $2, 0), updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, id, quantity)
	if err != nil {
		r.logger.Error().Err(err).
			Int64("product_id", id).
			Int("quantity", quantity).
			Msg("failed to restore stock")
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound.WithMessage("product %d not found", id)
	}

	return nil
}

func (r *productRepository) UpdateRating(ctx context.Context, tx pgx.Tx, summary model.RatingSummary) error {
	query := `
		UPDATE products
		SET rating = $2, review_count = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, summary.ProductID, summary.Rating, summary.ReviewCount)
	if err != nil {
		r.logger.Error().Err(err).Int64("product_id", summary.ProductID).Msg("failed to update rating")
		return fmt.Errorf("failed to update rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound.WithMessage("product %d not found", summary.ProductID)
	}

	return nil
}

// ListRatingDrift finds products whose stored rollup no longer matches
// their approved reviews.
func (r *productRepository) ListRatingDrift(ctx context.Context, limit int) ([]int64, error) {
	query := `
		SELECT p.id
		FROM products p
		LEFT JOIN (
			SELECT product_id, COUNT(*) AS cnt, ROUND(AVG(rating), 2) AS avg
			FROM reviews
			WHERE is_approved
			GROUP BY product_id
		) s ON s.product_id = p.id
		WHERE p.review_count <> COALESCE(s.cnt, 0)
			OR p.rating IS DISTINCT FROM s.avg
		ORDER BY p.id
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query rating drift")
		return nil, fmt.Errorf("failed to query rating drift: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan rating drift")
		return nil, fmt.Errorf("failed to scan rating drift: %w", err)
	}

	return ids, nil
}

func (r *productRepository) collect(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := scanProduct(rows, &p); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}
