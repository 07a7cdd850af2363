package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type messageRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewMessageRepository creates a new PostgreSQL-backed message repository.
func NewMessageRepository(pool *pgxpool.Pool, logger zerolog.Logger) MessageRepository {
	return &messageRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "message").Logger(),
	}
}

func (r *messageRepository) Create(ctx context.Context, m *model.Message) error {
	if m.Kind == "" {
		m.Kind = model.MessageKindGeneral
	}

	query := `
		INSERT INTO messages (user_id, order_id, kind, subject, body)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at
	`

	err := r.pool.QueryRow(ctx, query, m.UserID, m.OrderID, m.Kind, m.Subject, m.Body).
		Scan(&m.ID, &m.IsRead, &m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrUserNotFound.WithMessage("user %d not found", m.UserID)
		}
		r.logger.Error().Err(err).Int64("user_id", m.UserID).Str("kind", string(m.Kind)).Msg("failed to create message")
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

func (r *messageRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Message, error) {
	query := `
		SELECT id, user_id, order_id, kind, subject, body, is_read, created_at
		FROM messages
		WHERE user_id = $1 AND (NOT is_read OR NOT $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.pool.Query(ctx, query, userID, unreadOnly, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to query messages")
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Message])
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to scan messages")
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}

	return messages, nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE user_id = $1 AND NOT is_read`, userID).Scan(&count)
	if err != nil {
		r.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to count unread messages")
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// MarkRead marks one message of the user as read. Messages of other users
// are reported as not found.
func (r *messageRepository) MarkRead(ctx context.Context, userID, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE messages SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		r.logger.Error().Err(err).Int64("message_id", id).Msg("failed to mark message read")
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrMessageNotFound.WithMessage("message %d not found", id)
	}
	return nil
}
