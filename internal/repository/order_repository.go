package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id, order_number, user_id, status, payment_status, payment_method,
	subtotal, tax, shipping_cost, total, customer_name, customer_email,
	shipping_name, shipping_address, shipping_city, shipping_state,
	shipping_postal_code, shipping_country, shipping_phone, notes, created_at, updated_at`

const orderItemColumns = `id, order_id, product_id, product_name, product_sku, product_image, price, quantity, subtotal`

// querier is the read side shared by the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanOrder(row rowScanner, o *model.Order) error {
	return row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.Tax,
		&o.ShippingCost,
		&o.Total,
		&o.CustomerName,
		&o.CustomerEmail,
		&o.ShippingName,
		&o.ShippingAddress,
		&o.ShippingCity,
		&o.ShippingState,
		&o.ShippingPostalCode,
		&o.ShippingCountry,
		&o.ShippingPhone,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return beginTx(ctx, r.pool, r.logger)
}

// NextOrderNumber formats ORD-YYYYMMDD-NNNNNNNN from the order number
// sequence. The sequence keeps numbers unique across days and restarts.
func (r *orderRepository) NextOrderNumber(ctx context.Context, tx pgx.Tx, placedAt time.Time) (string, error) {
	var seq int64
	if err := tx.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&seq); err != nil {
		r.logger.Error().Err(err).Msg("failed to allocate order number")
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}
	return fmt.Sprintf("ORD-%s-%08d", placedAt.UTC().Format("20060102"), seq), nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			order_number, user_id, status, payment_status, payment_method,
			subtotal, tax, shipping_cost, total, customer_name, customer_email,
			shipping_name, shipping_address, shipping_city, shipping_state,
			shipping_postal_code, shipping_country, shipping_phone, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		order.OrderNumber,
		order.UserID,
		order.Status,
		order.PaymentStatus,
		order.PaymentMethod,
		order.Subtotal,
		order.Tax,
		order.ShippingCost,
		order.Total,
		order.CustomerName,
		order.CustomerEmail,
		order.ShippingName,
		order.ShippingAddress,
		order.ShippingCity,
		order.ShippingState,
		order.ShippingPostalCode,
		order.ShippingCountry,
		order.ShippingPhone,
		order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_number", order.OrderNumber).
			Int64("user_id", order.UserID).
			Msg("failed to create order")
		if isCheckViolation(err) {
			return model.ErrValidation.WithMessage("order totals rejected by database")
		}
		if isForeignKeyViolation(err) {
			return model.ErrUserNotFound.WithMessage("user %d not found", order.UserID)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Int64("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (order_id, product_id, product_name, product_sku, product_image, price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.ProductSKU,
			item.ProductImage,
			item.Price,
			item.Quantity,
			item.Subtotal,
		)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := range items {
		if err := results.QueryRow().Scan(&items[i].ID); err != nil {
			r.logger.Error().
				Err(err).
				Int64("order_id", items[i].OrderID).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			if isCheckViolation(err) {
				return model.ErrValidation.WithMessage("order item %d rejected by database", i)
			}
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	return r.load(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

// LockByID loads an order with its items and holds the order row lock until tx ends.
func (r *orderRepository) LockByID(ctx context.Context, tx pgx.Tx, id int64) (*model.Order, error) {
	return r.load(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *orderRepository) load(ctx context.Context, q querier, query string, id int64) (*model.Order, error) {
	var order model.Order
	if err := scanOrder(q.QueryRow(ctx, query, id), &order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("order_id", id).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `SELECT ` + orderItemColumns + ` FROM order_items WHERE order_id = $1 ORDER BY id`

	rows, err := q.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("order_id", id).
			Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}

	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.OrderItem])
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to scan order items")
		return nil, fmt.Errorf("failed to scan order items: %w", err)
	}
	order.Items = items

	return &order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return r.updateField(ctx, tx, order, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`, order.Status, "status")
}

func (r *orderRepository) UpdatePaymentStatus(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return r.updateField(ctx, tx, order, `UPDATE orders SET payment_status = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`, order.PaymentStatus, "payment status")
}

func (r *orderRepository) updateField(ctx context.Context, tx pgx.Tx, order *model.Order, query string, value any, field string) error {
	if err := tx.QueryRow(ctx, query, order.ID, value).Scan(&order.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrOrderNotFound.WithMessage("order %d not found", order.ID)
		}
		r.logger.Error().Err(err).Int64("order_id", order.ID).Msgf("failed to update order %s", field)
		return fmt.Errorf("failed to update order %s: %w", field, err)
	}
	return nil
}

// ListByUser retrieves order headers of a user, newest first.
func (r *orderRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query user orders")
		return nil, fmt.Errorf("failed to query user orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		var o model.Order
		if err := scanOrder(rows, &o); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// LatestPurchase returns the most recent non-cancelled order of the user
// that contains the product.
func (r *orderRepository) LatestPurchase(ctx context.Context, tx pgx.Tx, userID, productID int64) (*int64, error) {
	query := `
		SELECT o.id
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = $1 AND oi.product_id = $2 AND o.status <> 'cancelled'
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT 1
	`

	var orderID int64
	if err := tx.QueryRow(ctx, query, userID, productID).Scan(&orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).
			Int64("user_id", userID).
			Int64("product_id", productID).
			Msg("failed to query latest purchase")
		return nil, fmt.Errorf("failed to query latest purchase: %w", err)
	}

	return &orderID, nil
}

// Delete removes an order; its items go with it.
func (r *orderRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer Rollback(ctx, tx, r.logger)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to delete order items")
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound.WithMessage("order %d not found", id)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Int64("order_id", id).Msg("failed to commit order delete")
		return fmt.Errorf("failed to commit order delete: %w", err)
	}

	r.logger.Info().Int64("order_id", id).Msg("order deleted")
	return nil
}
