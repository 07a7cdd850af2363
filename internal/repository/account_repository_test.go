package repository

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/database/dbtest"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	user := &model.User{Email: " Ann@Example.com ", PasswordHash: "hash", FirstName: "Ann", LastName: "Lee"}
	require.NoError(t, repo.Create(ctx, user))
	assert.Equal(t, "ann@example.com", user.Email)
	assert.True(t, user.IsActive)

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &model.User{Email: "ANN@example.com", PasswordHash: "x", FirstName: "A", LastName: "B"})
		assert.True(t, errors.Is(err, model.ErrEmailTaken))
	})

	t.Run("lookup", func(t *testing.T) {
		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, byID)
		assert.Equal(t, "hash", byID.PasswordHash)

		byEmail, err := repo.GetByEmail(ctx, "ann@EXAMPLE.com")
		require.NoError(t, err)
		require.NotNil(t, byEmail)
		assert.Equal(t, user.ID, byEmail.ID)
	})

	t.Run("update profile", func(t *testing.T) {
		user.City = "Wellington"
		require.NoError(t, repo.UpdateProfile(ctx, user))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Wellington", got.City)
	})

	t.Run("user with orders cannot be deleted", func(t *testing.T) {
		withOrder := db.SeedUser(t, "bob@example.com", "Bob", "Ray")
		_, err := db.Pool.Exec(ctx, `
			INSERT INTO orders (order_number, user_id, payment_method, subtotal, tax, shipping_cost, total,
				customer_name, customer_email, shipping_name, shipping_address, shipping_city, shipping_postal_code, shipping_country)
			VALUES ('ORD-1', $1, 'card', 1, 0, 0, 1, 'Bob Ray', 'bob@example.com', 'Bob Ray', '1 Road', 'Town', '1000', 'NZ')`, withOrder)
		require.NoError(t, err)

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer Rollback(ctx, tx, zerolog.Nop())

		assert.True(t, errors.Is(repo.Delete(ctx, tx, withOrder), model.ErrUserHasOrders))
	})

	t.Run("delete removes dependent rows", func(t *testing.T) {
		doomed := db.SeedUser(t, "cat@example.com", "Cat", "Fox")
		product := db.SeedProduct(t, "MUG", "Mug", "1.00", 1)
		_, err := db.Pool.Exec(ctx, `INSERT INTO cart_items (user_id, product_id, quantity) VALUES ($1, $2, 1)`, doomed, product)
		require.NoError(t, err)
		_, err = db.Pool.Exec(ctx, `INSERT INTO messages (user_id, subject) VALUES ($1, 'hello')`, doomed)
		require.NoError(t, err)

		tx, err := repo.BeginTx(ctx)
		require.NoError(t, err)
		defer Rollback(ctx, tx, zerolog.Nop())

		require.NoError(t, repo.Delete(ctx, tx, doomed))
		require.NoError(t, tx.Commit(ctx))

		got, err := repo.GetByID(ctx, doomed)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("soft delete hides the user", func(t *testing.T) {
		require.NoError(t, repo.SoftDelete(ctx, user.ID))

		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.True(t, errors.Is(repo.SoftDelete(ctx, user.ID), model.ErrUserNotFound))
	})
}

func TestAdminRepository(t *testing.T) {
	db := dbtest.New(t)
	repo := NewAdminRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	admin := &model.Admin{Email: "root@example.com", PasswordHash: "hash", Name: "Root", Role: "super_admin"}
	require.NoError(t, repo.Create(ctx, admin))
	assert.NotZero(t, admin.ID)

	err := repo.Create(ctx, &model.Admin{Email: "root@example.com", PasswordHash: "x", Name: "Dup", Role: "admin"})
	assert.True(t, errors.Is(err, model.ErrEmailTaken))

	got, err := repo.GetByEmail(ctx, "Root@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.LastLoginAt)

	require.NoError(t, repo.TouchLastLogin(ctx, admin.ID))
	got, err = repo.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastLoginAt)

	assert.True(t, errors.Is(repo.TouchLastLogin(ctx, 9999), model.ErrAdminNotFound))
}
