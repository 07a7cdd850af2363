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

func TestCartRepository(t *testing.T) {
	db := dbtest.New(t)
	repo := NewCartRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	user := db.SeedUser(t, "ann@example.com", "Ann", "Lee")
	mug := db.SeedProduct(t, "MUG", "Mug", "10.00", 10)
	hat := db.SeedProduct(t, "HAT", "Hat", "5.00", 10)

	item, err := repo.AddItem(ctx, user, mug, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)

	item, err = repo.AddItem(ctx, user, mug, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity, "adding an existing product adds quantity")

	_, err = repo.AddItem(ctx, user, hat, 1)
	require.NoError(t, err)

	count, err := repo.Count(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, model.CartCount{Lines: 2, Quantity: 4}, count)

	items, err := repo.List(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Mug", items[0].ProductName)
	assert.Equal(t, "10.00", items[0].ProductPrice.StringFixed(2))

	require.NoError(t, repo.SetQuantity(ctx, user, hat, 5))
	assert.True(t, errors.Is(repo.SetQuantity(ctx, user, hat, 0), model.ErrInvalidQuantity))

	_, err = repo.AddItem(ctx, user, 9999, 1)
	assert.True(t, errors.Is(err, model.ErrProductNotFound))

	require.NoError(t, repo.RemoveItem(ctx, user, mug))
	assert.True(t, errors.Is(repo.RemoveItem(ctx, user, mug), model.ErrCartItemNotFound))

	require.NoError(t, repo.Clear(ctx, user))
	count, err = repo.Count(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, count.Lines)
}

func TestWishlistRepository(t *testing.T) {
	db := dbtest.New(t)
	repo := NewWishlistRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	user := db.SeedUser(t, "ann@example.com", "Ann", "Lee")
	mug := db.SeedProduct(t, "MUG", "Mug", "10.00", 10)

	item, err := repo.Add(ctx, user, mug)
	require.NoError(t, err)
	assert.Equal(t, mug, item.ProductID)

	_, err = repo.Add(ctx, user, mug)
	assert.True(t, errors.Is(err, model.ErrDuplicateWishlistItem))

	items, err := repo.List(ctx, user)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, repo.Remove(ctx, user, mug))
	items, err = repo.List(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMessageRepository(t *testing.T) {
	db := dbtest.New(t)
	repo := NewMessageRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	ann := db.SeedUser(t, "ann@example.com", "Ann", "Lee")
	bob := db.SeedUser(t, "bob@example.com", "Bob", "Ray")

	first := &model.Message{UserID: ann, Kind: model.MessageKindOrderPlaced, Subject: "Order placed"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, &model.Message{UserID: ann, Subject: "Hello"}))

	unread, err := repo.UnreadCount(ctx, ann)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	assert.True(t, errors.Is(repo.MarkRead(ctx, bob, first.ID), model.ErrMessageNotFound), "messages belong to their user")
	require.NoError(t, repo.MarkRead(ctx, ann, first.ID))

	messages, err := repo.ListByUser(ctx, ann, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, model.MessageKindGeneral, messages[0].Kind)

	messages, err = repo.ListByUser(ctx, ann, false, 10, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	assert.True(t, errors.Is(repo.Create(ctx, &model.Message{UserID: 9999, Subject: "x"}), model.ErrUserNotFound))
}

func TestCategoryRepository(t *testing.T) {
	db := dbtest.New(t)
	repo := NewCategoryRepository(db.Pool, zerolog.Nop())
	ctx := context.Background()

	parent := &model.Category{Name: "Kitchen", Slug: "kitchen"}
	require.NoError(t, repo.Create(ctx, parent))
	child := &model.Category{Name: "Mugs", Slug: "mugs", ParentID: &parent.ID}
	require.NoError(t, repo.Create(ctx, child))

	assert.True(t, errors.Is(repo.Create(ctx, &model.Category{Name: "Dup", Slug: "kitchen"}), model.ErrValidation))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := repo.GetBySlug(ctx, "mugs")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, parent.ID, *got.ParentID)

	require.NoError(t, repo.Delete(ctx, parent.ID))
	got, err = repo.GetByID(ctx, child.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID, "subcategories are detached")

	assert.True(t, errors.Is(repo.Delete(ctx, parent.ID), model.ErrCategoryNotFound))
}
