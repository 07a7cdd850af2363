package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CachedProductService serves GetByID from Redis and drops entries on every
// write it sees. Other services report their product writes through
// Invalidate. Redis failures degrade to uncached reads.
type CachedProductService struct {
	next        ProductService
	redisClient *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

func NewCachedProductService(next ProductService, redisClient *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedProductService {
	return &CachedProductService{
		next:        next,
		redisClient: redisClient,
		cacheTTL:    ttl,
		logger:      logger.With().Str("service", "product_cache").Logger(),
	}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (s *CachedProductService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	key := productKey(id)

	val, err := s.redisClient.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var product model.Product
		if err := json.Unmarshal(val, &product); err == nil {
			return &product, nil
		}
		s.logger.Warn().Int64("product_id", id).Msg("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		s.logger.Warn().Err(err).Int64("product_id", id).Msg("cache read failed")
	}

	product, err := s.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		if err := s.redisClient.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
			s.logger.Warn().Err(err).Int64("product_id", id).Msg("cache write failed")
		}
	}

	return product, nil
}

// Invalidate implements ProductCache.
func (s *CachedProductService) Invalidate(ctx context.Context, ids ...int64) {
	if len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	if err := s.redisClient.Del(context.WithoutCancel(ctx), keys...).Err(); err != nil {
		s.logger.Warn().Err(err).Int("count", len(ids)).Msg("cache invalidation failed")
	}
}

func (s *CachedProductService) Update(ctx context.Context, id int64, input *model.ProductInput) (*model.Product, error) {
	s.Invalidate(ctx, id)
	product, err := s.next.Update(ctx, id, input)
	s.Invalidate(ctx, id)
	return product, err
}

func (s *CachedProductService) AdjustStock(ctx context.Context, id int64, adj *model.StockAdjustment) (*model.Product, error) {
	product, err := s.next.AdjustStock(ctx, id, adj)
	s.Invalidate(ctx, id)
	return product, err
}

func (s *CachedProductService) Delete(ctx context.Context, id int64) error {
	err := s.next.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.Invalidate(ctx, id)
	return nil
}

func (s *CachedProductService) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	return s.next.List(ctx, limit, offset)
}

func (s *CachedProductService) ListByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]model.Product, error) {
	return s.next.ListByCategory(ctx, categoryID, limit, offset)
}

func (s *CachedProductService) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	return s.next.GetByIDs(ctx, ids)
}

func (s *CachedProductService) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	return s.next.Create(ctx, input)
}

func (s *CachedProductService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.next.ListCategories(ctx)
}

func (s *CachedProductService) CreateCategory(ctx context.Context, input *model.CategoryInput) (*model.Category, error) {
	return s.next.CreateCategory(ctx, input)
}
