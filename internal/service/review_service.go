package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// reviewService implements ReviewService. Every write that can move a
// product's rating locks the product row first, so rollups of one product
// are serialised.
type reviewService struct {
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	validator   *validation.Validator
	cache       ProductCache
	autoApprove bool
	logger      zerolog.Logger
}

// NewReviewService creates a new review service. New reviews are published
// immediately when autoApprove is set and wait for moderation otherwise.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	validator *validation.Validator,
	cache ProductCache,
	autoApprove bool,
	logger zerolog.Logger,
) ReviewService {
	if cache == nil {
		cache = noCache{}
	}
	return &reviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		validator:   validator,
		cache:       cache,
		autoApprove: autoApprove,
		logger:      logger.With().Str("service", "review").Logger(),
	}
}

func (s *reviewService) CreateReview(ctx context.Context, req *model.CreateReviewRequest) (*model.Review, error) {
	ctx, span := tracer.Start(ctx, "ReviewService.CreateReview",
		trace.WithAttributes(attribute.Int64("product.id", req.ProductID)))
	defer span.End()

	if err := model.ValidateRating(req.Rating); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound.WithMessage("user %d not found", req.UserID)
	}

	tx, err := s.reviewRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer repository.Rollback(ctx, tx, s.logger)

	product, err := s.productRepo.LockByID(ctx, tx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	// Inactive products are hidden from the catalogue and take no new reviews
	if product == nil || !product.IsActive {
		return nil, model.ErrProductNotFound.WithMessage("product %d not found", req.ProductID)
	}

	orderID, err := s.orderRepo.LatestPurchase(ctx, tx, user.ID, product.ID)
	if err != nil {
		return nil, err
	}

	review := &model.Review{
		UserID:             user.ID,
		ProductID:          product.ID,
		OrderID:            orderID,
		Rating:             req.Rating,
		Title:              req.Title,
		Comment:            req.Comment,
		Images:             req.Images,
		IsVerifiedPurchase: orderID != nil,
		IsApproved:         s.autoApprove,
	}
	if err := s.reviewRepo.Create(ctx, tx, review); err != nil {
		return nil, err
	}

	if review.IsApproved {
		if _, err := s.recompute(ctx, tx, product.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("product_id", product.ID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}

	s.logger.Info().
		Int64("review_id", review.ID).
		Int64("product_id", review.ProductID).
		Int64("user_id", review.UserID).
		Bool("verified", review.IsVerifiedPurchase).
		Msg("review created")

	s.cache.Invalidate(ctx, product.ID)
	return review, nil
}

func (s *reviewService) UpdateReview(ctx context.Context, reviewID, userID int64, req *model.UpdateReviewRequest) (*model.Review, error) {
	if req.Rating != nil {
		if err := model.ValidateRating(*req.Rating); err != nil {
			return nil, err
		}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	return s.mutate(ctx, reviewID, func(r *model.Review) (bool, error) {
		if r.UserID != userID {
			return false, model.ErrReviewNotOwned
		}

		changed := false
		if req.Rating != nil && *req.Rating != r.Rating {
			r.Rating = *req.Rating
			changed = true
		}
		if req.Title != nil {
			r.Title = *req.Title
		}
		if req.Comment != nil {
			r.Comment = *req.Comment
		}
		if req.Images != nil {
			r.Images = req.Images
		}
		return changed && r.IsApproved, nil
	})
}

func (s *reviewService) ModerateReview(ctx context.Context, reviewID int64, approved bool) (*model.Review, error) {
	return s.mutate(ctx, reviewID, func(r *model.Review) (bool, error) {
		changed := r.IsApproved != approved
		r.IsApproved = approved
		return changed, nil
	})
}

func (s *reviewService) RespondToReview(ctx context.Context, reviewID int64, response string) (*model.Review, error) {
	if response == "" {
		return nil, model.ErrValidation.WithField("response", "response is required")
	}

	return s.mutate(ctx, reviewID, func(r *model.Review) (bool, error) {
		now := time.Now().UTC()
		r.AdminResponse = &response
		r.AdminResponseAt = &now
		return false, nil
	})
}

// mutate applies fn to the locked review and writes it back. The rollup is
// recomputed in the same transaction when fn reports a rating-visible change.
func (s *reviewService) mutate(ctx context.Context, reviewID int64, fn func(r *model.Review) (bool, error)) (*model.Review, error) {
	current, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if current == nil {
		return nil, model.ErrReviewNotFound
	}

	tx, err := s.reviewRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer repository.Rollback(ctx, tx, s.logger)

	if _, err := s.productRepo.LockByID(ctx, tx, current.ProductID); err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}

	review, err := s.reviewRepo.LockByID(ctx, tx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock review: %w", err)
	}
	if review == nil {
		return nil, model.ErrReviewNotFound
	}

	rollup, err := fn(review)
	if err != nil {
		return nil, err
	}

	if err := s.reviewRepo.Update(ctx, tx, review); err != nil {
		return nil, err
	}

	if rollup {
		if _, err := s.recompute(ctx, tx, review.ProductID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("review_id", reviewID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to commit review: %w", err)
	}

	if rollup {
		s.cache.Invalidate(ctx, review.ProductID)
	}
	return review, nil
}

func (s *reviewService) MarkHelpful(ctx context.Context, reviewID int64) error {
	return s.reviewRepo.IncrementHelpful(ctx, reviewID)
}

// DeleteReview removes the review and recomputes the rollup in one transaction.
func (s *reviewService) DeleteReview(ctx context.Context, reviewID int64) error {
	current, err := s.reviewRepo.GetByID(ctx, reviewID)
	if err != nil {
		return fmt.Errorf("failed to get review: %w", err)
	}
	if current == nil {
		return model.ErrReviewNotFound
	}

	tx, err := s.reviewRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer repository.Rollback(ctx, tx, s.logger)

	if _, err := s.productRepo.LockByID(ctx, tx, current.ProductID); err != nil {
		return fmt.Errorf("failed to lock product: %w", err)
	}

	if err := s.reviewRepo.Delete(ctx, tx, reviewID); err != nil {
		return err
	}

	if _, err := s.recompute(ctx, tx, current.ProductID); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("review_id", reviewID).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit review deletion: %w", err)
	}

	s.logger.Info().Int64("review_id", reviewID).Int64("product_id", current.ProductID).Msg("review deleted")
	s.cache.Invalidate(ctx, current.ProductID)
	return nil
}

func (s *reviewService) ListProductReviews(ctx context.Context, productID int64, limit, offset int) ([]model.Review, error) {
	limit, offset = clampPage(limit, offset)

	reviews, err := s.reviewRepo.ListByProduct(ctx, productID, true, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to list reviews")
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (s *reviewService) RecomputeProductRating(ctx context.Context, productID int64) (*model.RatingSummary, error) {
	tx, err := s.reviewRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer repository.Rollback(ctx, tx, s.logger)

	product, err := s.productRepo.LockByID(ctx, tx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	summary, err := s.recompute(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("product_id", productID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to commit rating: %w", err)
	}

	s.cache.Invalidate(ctx, productID)
	return summary, nil
}

func (s *reviewService) recompute(ctx context.Context, tx pgx.Tx, productID int64) (*model.RatingSummary, error) {
	return recomputeRating(ctx, tx, s.reviewRepo, s.productRepo, productID, s.logger)
}

// recomputeRating rebuilds the rollup from approved reviews. The caller holds
// the product row lock.
func recomputeRating(
	ctx context.Context,
	tx pgx.Tx,
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	productID int64,
	logger zerolog.Logger,
) (*model.RatingSummary, error) {
	sum, count, err := reviews.ApprovedStats(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	summary := model.RatingSummary{
		ProductID:   productID,
		Rating:      model.ComputeRating(sum, count),
		ReviewCount: int(count),
	}
	if err := products.UpdateRating(ctx, tx, summary); err != nil {
		return nil, err
	}

	logger.Debug().
		Int64("product_id", productID).
		Int("review_count", summary.ReviewCount).
		Msg("rating recomputed")
	return &summary, nil
}
