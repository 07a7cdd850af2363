package app

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database/dbtest"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{APIKey: "test-key", BcryptCost: 4},
		Pricing: config.PricingConfig{
			TaxRate:               "0.10",
			FreeShippingThreshold: "50.00",
			ShippingCost:          "5.99",
		},
		Reviews: config.ReviewsConfig{AutoApprove: true},
		Notify:  config.NotifyConfig{Timeout: time.Second},
	}
}

func TestFromPool_InvalidConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("pricing", func(t *testing.T) {
		cfg := testConfig()
		cfg.Pricing.TaxRate = "ten percent"

		_, err := FromPool(ctx, nil, cfg, zerolog.Nop())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "pricing policy")
	})

	t.Run("bcrypt cost", func(t *testing.T) {
		cfg := testConfig()
		cfg.Auth.BcryptCost = 99

		_, err := FromPool(ctx, nil, cfg, zerolog.Nop())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "password hasher")
	})

	t.Run("unreachable redis", func(t *testing.T) {
		cfg := testConfig()
		cfg.Redis = config.RedisConfig{Enabled: true, Addr: "127.0.0.1:1", TTL: time.Minute}

		_, err := FromPool(ctx, nil, cfg, zerolog.Nop())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis")
	})
}

func TestFromPool(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	a, err := FromPool(ctx, db.Pool, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	assert.Same(t, db.Pool, a.Pool)
	assert.NotNil(t, a.Hasher)
	assert.NotNil(t, a.Validator)

	user, err := a.Services.Accounts.RegisterUser(ctx, &model.RegisterUserRequest{
		Email: "ada@example.com", Password: "correct horse", FirstName: "Ada", LastName: "Lovelace",
	})
	require.NoError(t, err)

	got, err := a.Services.Accounts.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)

	products, err := a.Services.Products.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, products)
}
