package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/rs/zerolog"
)

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	validator   *validation.Validator
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	validator *validation.Validator,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		validator:   validator,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// AddItem adds to the quantity already in the cart. Stock is only checked
// when the order is placed.
func (s *cartService) AddItem(ctx context.Context, userID int64, req *model.CartItemRequest) (*model.CartItem, error) {
	if req.Quantity < 1 {
		return nil, model.ErrInvalidQuantity.WithField("quantity", "must be at least 1")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, model.ErrProductNotFound
	}

	item, err := s.cartRepo.AddItem(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return nil, err
	}
	item.ProductName = product.Name
	item.ProductPrice = product.Price
	item.ProductImage = product.ImageURL
	return item, nil
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID int64, req *model.CartItemRequest) error {
	if req.Quantity < 1 {
		return model.ErrInvalidQuantity.WithField("quantity", "must be at least 1")
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	return s.cartRepo.SetQuantity(ctx, userID, req.ProductID, req.Quantity)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID int64) error {
	return s.cartRepo.RemoveItem(ctx, userID, productID)
}

func (s *cartService) ListItems(ctx context.Context, userID int64) ([]model.CartItem, error) {
	items, err := s.cartRepo.List(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list cart")
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return items, nil
}

// Count returns the number of lines and the total quantity for the cart badge.
func (s *cartService) Count(ctx context.Context, userID int64) (model.CartCount, error) {
	return s.cartRepo.Count(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID int64) error {
	return s.cartRepo.Clear(ctx, userID)
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	logger       zerolog.Logger
}

func NewWishlistService(wishlistRepo repository.WishlistRepository, logger zerolog.Logger) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		logger:       logger.With().Str("service", "wishlist").Logger(),
	}
}

func (s *wishlistService) Add(ctx context.Context, userID, productID int64) (*model.WishlistItem, error) {
	if productID <= 0 {
		return nil, model.ErrProductNotFound
	}
	return s.wishlistRepo.Add(ctx, userID, productID)
}

func (s *wishlistService) Remove(ctx context.Context, userID, productID int64) error {
	return s.wishlistRepo.Remove(ctx, userID, productID)
}

func (s *wishlistService) List(ctx context.Context, userID int64) ([]model.WishlistItem, error) {
	items, err := s.wishlistRepo.List(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list wishlist")
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return items, nil
}

type messageService struct {
	messageRepo repository.MessageRepository
	logger      zerolog.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, logger zerolog.Logger) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		logger:      logger.With().Str("service", "message").Logger(),
	}
}

func (s *messageService) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]model.Message, error) {
	limit, offset = clampPage(limit, offset)

	messages, err := s.messageRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list messages")
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

func (s *messageService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.messageRepo.UnreadCount(ctx, userID)
}

func (s *messageService) MarkRead(ctx context.Context, userID, messageID int64) error {
	return s.messageRepo.MarkRead(ctx, userID, messageID)
}
