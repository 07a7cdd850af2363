package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const adminColumns = `id, email, password_hash, name, role, is_active, last_login_at, created_at, updated_at`

type adminRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAdminRepository creates a new PostgreSQL-backed admin repository.
func NewAdminRepository(pool *pgxpool.Pool, logger zerolog.Logger) AdminRepository {
	return &adminRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "admin").Logger(),
	}
}

func (r *adminRepository) Create(ctx context.Context, a *model.Admin) error {
	query := `
		INSERT INTO admins (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, updated_at
	`

	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	err := r.pool.QueryRow(ctx, query, a.Email, a.PasswordHash, a.Name, a.Role).
		Scan(&a.ID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrEmailTaken.WithField("email", "already registered")
		}
		r.logger.Error().Err(err).Msg("failed to create admin")
		return fmt.Errorf("failed to create admin: %w", err)
	}

	r.logger.Info().Int64("admin_id", a.ID).Str("role", a.Role).Msg("admin created")
	return nil
}

func (r *adminRepository) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, strings.ToLower(strings.TrimSpace(email)))
}

func (r *adminRepository) getOne(ctx context.Context, query string, arg any) (*model.Admin, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query admin")
		return nil, fmt.Errorf("failed to query admin: %w", err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[model.Admin])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to scan admin")
		return nil, fmt.Errorf("failed to scan admin: %w", err)
	}

	return &a, nil
}

func (r *adminRepository) TouchLastLogin(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admins SET last_login_at = NOW() WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Int64("admin_id", id).Msg("failed to record admin login")
		return fmt.Errorf("failed to record admin login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAdminNotFound.WithMessage("admin %d not found", id)
	}
	return nil
}
