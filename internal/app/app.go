// Package app assembles the storefront components from configuration. The
// API server and the admin CLI share it so both run the same services
// against the same pool.
package app

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/config"
	"storefront/internal/credential"
	"storefront/internal/database"
	"storefront/internal/notify"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/validation"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Repositories groups the data access layer.
type Repositories struct {
	Products   repository.ProductRepository
	Categories repository.CategoryRepository
	Orders     repository.OrderRepository
	Reviews    repository.ReviewRepository
	Users      repository.UserRepository
	Admins     repository.AdminRepository
	Carts      repository.CartRepository
	Wishlists  repository.WishlistRepository
	Messages   repository.MessageRepository
}

// Services groups the business layer.
type Services struct {
	Products service.ProductService
	Orders   service.OrderService
	Reviews  service.ReviewService
	Accounts service.AccountService
	Cart     service.CartService
	Wishlist service.WishlistService
	Messages service.MessageService
}

// App holds the wired components and the long-lived clients behind them.
type App struct {
	Pool         *pgxpool.Pool
	Repositories Repositories
	Services     Services
	Hasher       *credential.Hasher
	Validator    *validation.Validator

	closers []func() error
	logger  zerolog.Logger
}

// New connects to the database and builds the repositories and services.
// Redis and Kafka are only dialled when enabled. Close releases everything.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{logger: logger.With().Str("component", "app").Logger()}

	var poolOpts []database.PoolOption
	if cfg.Telemetry.Enabled {
		poolOpts = append(poolOpts, database.WithTracing())
	}

	pool, err := database.NewPool(ctx, cfg.Database, logger, poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	if err := a.build(ctx, pool, cfg, logger); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

// FromPool builds the application on an existing pool, which the caller
// keeps ownership of.
func FromPool(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{logger: logger.With().Str("component", "app").Logger()}

	if err := a.build(ctx, pool, cfg, logger); err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) build(ctx context.Context, pool *pgxpool.Pool, cfg *config.Config, logger zerolog.Logger) error {
	a.Pool = pool

	repos := Repositories{
		Products:   repository.NewProductRepository(a.Pool, logger),
		Categories: repository.NewCategoryRepository(a.Pool, logger),
		Orders:     repository.NewOrderRepository(a.Pool, logger),
		Reviews:    repository.NewReviewRepository(a.Pool, logger),
		Users:      repository.NewUserRepository(a.Pool, logger),
		Admins:     repository.NewAdminRepository(a.Pool, logger),
		Carts:      repository.NewCartRepository(a.Pool, logger),
		Wishlists:  repository.NewWishlistRepository(a.Pool, logger),
		Messages:   repository.NewMessageRepository(a.Pool, logger),
	}
	a.Repositories = repos

	policy, err := pricing.NewFlatRatePolicy(cfg.Pricing.TaxRate, cfg.Pricing.FreeShippingThreshold, cfg.Pricing.ShippingCost)
	if err != nil {
		return fmt.Errorf("failed to initialize pricing policy: %w", err)
	}

	hasher, err := credential.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	a.Hasher = hasher
	a.Validator = validation.New()

	var products service.ProductService = service.NewProductService(repos.Products, repos.Categories, a.Validator, logger)
	var cache service.ProductCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		cached := service.NewCachedProductService(products, client, cfg.Redis.TTL, logger)
		products, cache = cached, cached
		logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("product cache enabled")
	}

	dispatcher, err := a.dispatcher(cfg, repos.Messages, logger)
	if err != nil {
		return err
	}

	a.Services = Services{
		Products: products,
		Orders: service.NewOrderService(repos.Orders, repos.Products, repos.Users, policy,
			a.Validator, dispatcher, cache, logger),
		Reviews: service.NewReviewService(repos.Reviews, repos.Products, repos.Orders, repos.Users,
			a.Validator, cache, cfg.Reviews.AutoApprove, logger),
		Accounts: service.NewAccountService(repos.Users, repos.Admins, repos.Reviews, repos.Products,
			hasher, a.Validator, cache, logger),
		Cart:     service.NewCartService(repos.Carts, repos.Products, a.Validator, logger),
		Wishlist: service.NewWishlistService(repos.Wishlists, logger),
		Messages: service.NewMessageService(repos.Messages, logger),
	}

	return nil
}

// dispatcher always records inbox messages and additionally publishes to
// Kafka when enabled. Delivery runs off the request path.
func (a *App) dispatcher(cfg *config.Config, messages repository.MessageRepository, logger zerolog.Logger) (notify.Dispatcher, error) {
	targets := notify.Multi{notify.NewMessageDispatcher(messages, logger)}

	if cfg.Kafka.Enabled {
		producer, err := notify.NewKafkaProducer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		kafka := notify.NewKafkaDispatcher(producer, cfg.Kafka.Topic, logger)
		a.closers = append(a.closers, kafka.Close)
		targets = append(targets, kafka)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka notifications enabled")
	}

	async := notify.NewAsync(targets, cfg.Notify.Timeout, logger)
	a.closers = append(a.closers, func() error { async.Close(); return nil })
	return async, nil
}

// Close releases resources in reverse order of creation, so pending
// notifications drain before their producers and the pool go away.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil

	err := errors.Join(errs...)
	if err != nil {
		a.logger.Error().Err(err).Msg("failed to release resources")
	}
	return err
}
