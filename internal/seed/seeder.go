package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"storefront/internal/credential"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	insertCategory = `
		INSERT INTO categories (name, slug, description, parent_id)
		VALUES ($1, $2, $3, (SELECT id FROM categories WHERE slug = NULLIF($4::text, '')))
		ON CONFLICT (slug) DO NOTHING`

	insertProduct = `
		INSERT INTO products (category_id, name, slug, sku, description, price, stock, image_url, is_active)
		VALUES ((SELECT id FROM categories WHERE slug = NULLIF($1::text, '')), $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING`

	insertUser = `
		INSERT INTO users (email, password_hash, first_name, last_name, phone, address, city, state, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (email) DO NOTHING`

	insertAdmin = `
		INSERT INTO admins (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email) DO NOTHING`
)

// Result counts the rows a seed run inserted. Records that already existed
// are skipped and not counted.
type Result struct {
	Categories int64
	Products   int64
	Users      int64
	Admins     int64
}

// Seeder inserts seed files into the database.
type Seeder struct {
	pool      *pgxpool.Pool
	loader    Loader
	hasher    *credential.Hasher
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewSeeder creates a Seeder reading files through loader.
func NewSeeder(pool *pgxpool.Pool, loader Loader, hasher *credential.Hasher, validator *validation.Validator, logger zerolog.Logger) *Seeder {
	return &Seeder{
		pool:      pool,
		loader:    loader,
		hasher:    hasher,
		validator: validator,
		logger:    logger.With().Str("component", "seeder").Logger(),
	}
}

type seedData struct {
	categories []Category
	products   []Product
	users      []User
	admins     []Admin
}

// Run loads every seed file concurrently and inserts the records in a single
// transaction. Missing files are treated as empty. Running it twice inserts
// nothing the second time.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	files := []string{CategoriesFile, ProductsFile, UsersFile, AdminsFile}
	raw, err := s.loadAll(ctx, files)
	if err != nil {
		return nil, err
	}

	var data seedData
	if data.categories, err = decode[Category](raw[0], CategoriesFile, s.validator); err != nil {
		return nil, err
	}
	if data.products, err = decode[Product](raw[1], ProductsFile, s.validator); err != nil {
		return nil, err
	}
	if data.users, err = decode[User](raw[2], UsersFile, s.validator); err != nil {
		return nil, err
	}
	if data.admins, err = decode[Admin](raw[3], AdminsFile, s.validator); err != nil {
		return nil, err
	}
	for i, p := range data.products {
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("%s record %d: price must not be negative", ProductsFile, i+1)
		}
	}

	result, err := s.insert(ctx, &data)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("categories", result.Categories).
		Int64("products", result.Products).
		Int64("users", result.Users).
		Int64("admins", result.Admins).
		Msg("seed data inserted")

	return result, nil
}

// loadAll loads files concurrently and returns their records in file order.
func (s *Seeder) loadAll(ctx context.Context, files []string) ([][]json.RawMessage, error) {
	type loadResult struct {
		index   int
		records []json.RawMessage
		err     error
	}

	resultChan := make(chan loadResult, len(files))
	var wg sync.WaitGroup

	for i, name := range files {
		wg.Add(1)
		go func(index int, name string) {
			defer wg.Done()

			records, err := s.loader.Load(ctx, name)
			resultChan <- loadResult{index: index, records: records, err: err}
		}(i, name)
	}

	wg.Wait()
	close(resultChan)

	out := make([][]json.RawMessage, len(files))
	for r := range resultChan {
		switch {
		case r.err == nil:
			out[r.index] = r.records
		case errors.Is(r.err, fs.ErrNotExist):
			s.logger.Warn().Str("file", files[r.index]).Msg("seed file not found, skipping")
		default:
			return nil, fmt.Errorf("failed to load seed file %s: %w", files[r.index], r.err)
		}
	}
	return out, nil
}

func decode[T any](records []json.RawMessage, file string, v *validation.Validator) ([]T, error) {
	out := make([]T, 0, len(records))
	for i, raw := range records {
		var rec T
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%s record %d: %w", file, i+1, err)
		}
		if err := v.Struct(&rec); err != nil {
			return nil, fmt.Errorf("%s record %d: %w", file, i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Seeder) insert(ctx context.Context, data *seedData) (*Result, error) {
	userHashes := make([]string, len(data.users))
	for i, u := range data.users {
		hash, err := s.hasher.Hash(u.Password)
		if err != nil {
			return nil, err
		}
		userHashes[i] = hash
	}
	adminHashes := make([]string, len(data.admins))
	for i, a := range data.admins {
		hash, err := s.hasher.Hash(a.Password)
		if err != nil {
			return nil, err
		}
		adminHashes[i] = hash
	}

	result := &Result{}
	count := func(n *int64) func(pgconn.CommandTag) error {
		return func(ct pgconn.CommandTag) error {
			*n += ct.RowsAffected()
			return nil
		}
	}

	// Statements in a batch run in queue order, so categories exist before
	// the products that reference them by slug.
	batch := &pgx.Batch{}
	for _, c := range data.categories {
		batch.Queue(insertCategory, c.Name, c.Slug, c.Description, c.ParentSlug).Exec(count(&result.Categories))
	}
	for _, p := range data.products {
		batch.Queue(insertProduct,
			p.CategorySlug, p.Name, p.Slug, p.SKU, p.Description, p.Price.Round(2), p.Stock, p.ImageURL, !p.Inactive,
		).Exec(count(&result.Products))
	}
	for i, u := range data.users {
		batch.Queue(insertUser,
			u.Email, userHashes[i], u.FirstName, u.LastName, u.Phone, u.Address, u.City, u.State, u.PostalCode, u.Country,
		).Exec(count(&result.Users))
	}
	for i, a := range data.admins {
		role := a.Role
		if role == "" {
			role = "admin"
		}
		batch.Queue(insertAdmin, a.Email, adminHashes[i], a.Name, role).Exec(count(&result.Admins))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.Rollback(ctx, tx, s.logger)

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			s.logger.Error().Err(err).Msg("failed to insert seed data")
			return nil, fmt.Errorf("failed to insert seed data: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit seed data: %w", err)
	}
	return result, nil
}
