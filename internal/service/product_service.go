package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	validator    *validation.Validator
	logger       zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	validator *validation.Validator,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		validator:    validator,
		logger:       logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves active products with pagination.
func (s *productService) List(ctx context.Context, limit, offset int) ([]model.Product, error) {
	limit, offset = clampPage(limit, offset)

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

func (s *productService) ListByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]model.Product, error) {
	limit, offset = clampPage(limit, offset)

	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	if category == nil {
		return nil, model.ErrCategoryNotFound
	}

	products, err := s.productRepo.ListByCategory(ctx, categoryID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int64("category_id", categoryID).Msg("failed to list products by category")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Int64("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// GetByIDs retrieves multiple products by their IDs.
func (s *productService) GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to get products by IDs")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("requested", len(ids)).
		Int("found", len(products)).
		Msg("retrieved products by IDs")

	return products, nil
}

func (s *productService) Create(ctx context.Context, input *model.ProductInput) (*model.Product, error) {
	if err := s.checkInput(input); err != nil {
		return nil, err
	}

	product := &model.Product{Stock: input.Stock}
	applyProductInput(product, input)
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("product_id", product.ID).Str("sku", product.SKU).Msg("product created")
	return product, nil
}

func (s *productService) Update(ctx context.Context, id int64, input *model.ProductInput) (*model.Product, error) {
	if err := s.checkInput(input); err != nil {
		return nil, err
	}

	product := &model.Product{ID: id}
	applyProductInput(product, input)
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	// Reload so derived rollups the update left untouched are returned.
	return s.GetByID(ctx, id)
}

// AdjustStock changes stock by a relative amount. Absolute writes would race
// with checkouts decrementing the same row.
func (s *productService) AdjustStock(ctx context.Context, id int64, adj *model.StockAdjustment) (*model.Product, error) {
	if err := s.validator.Struct(adj); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, model.ErrProductNotFound
	}

	stock, err := s.productRepo.AdjustStock(ctx, id, adj.Delta)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("product_id", id).Int("delta", adj.Delta).Int("stock", stock).Msg("product stock adjusted")

	return s.GetByID(ctx, id)
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

func (s *productService) checkInput(input *model.ProductInput) error {
	if err := s.validator.Struct(input); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return model.ErrNegativePrice.WithField("price", "must not be negative")
	}
	return nil
}

func applyProductInput(p *model.Product, input *model.ProductInput) {
	p.CategoryID = input.CategoryID
	p.Name = input.Name
	p.Slug = input.Slug
	p.SKU = input.SKU
	p.Description = input.Description
	p.Price = model.RoundMoney(input.Price)
	p.ImageURL = input.ImageURL
	p.IsActive = input.IsActive
}

func (s *productService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categoryRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *productService) CreateCategory(ctx context.Context, input *model.CategoryInput) (*model.Category, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        input.Name,
		Slug:        input.Slug,
		Description: input.Description,
		ParentID:    input.ParentID,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("category_id", category.ID).Str("slug", category.Slug).Msg("category created")
	return category, nil
}
