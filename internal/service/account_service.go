package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"storefront/internal/credential"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/rs/zerolog"
)

type accountService struct {
	userRepo    repository.UserRepository
	adminRepo   repository.AdminRepository
	reviewRepo  repository.ReviewRepository
	productRepo repository.ProductRepository
	hasher      *credential.Hasher
	validator   *validation.Validator
	cache       ProductCache
	logger      zerolog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(
	userRepo repository.UserRepository,
	adminRepo repository.AdminRepository,
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	hasher *credential.Hasher,
	validator *validation.Validator,
	cache ProductCache,
	logger zerolog.Logger,
) AccountService {
	if cache == nil {
		cache = noCache{}
	}
	return &accountService{
		userRepo:    userRepo,
		adminRepo:   adminRepo,
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		hasher:      hasher,
		validator:   validator,
		cache:       cache,
		logger:      logger.With().Str("service", "account").Logger(),
	}
}

func (s *accountService) RegisterUser(ctx context.Context, req *model.RegisterUserRequest) (*model.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user registered")
	return user, nil
}

func (s *accountService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *accountService) UpdateUserProfile(ctx context.Context, id int64, req *model.UpdateProfileRequest) (*model.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Phone = req.Phone
	user.Address = req.Address
	user.City = req.City
	user.State = req.State
	user.PostalCode = req.PostalCode
	user.Country = req.Country

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *accountService) DeactivateUser(ctx context.Context, id int64) error {
	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", id).Msg("user deactivated")
	return nil
}

// DeleteUser removes the user's reviews and rebuilds the rollups of the
// products they reviewed before removing the account itself. Product rows
// are locked before any review row is touched, the same order review writes
// use.
func (s *accountService) DeleteUser(ctx context.Context, id int64) error {
	tx, err := s.userRepo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer repository.Rollback(ctx, tx, s.logger)

	reviewed, err := s.reviewRepo.ProductIDsByUser(ctx, tx, id)
	if err != nil {
		return err
	}
	if _, err := s.productRepo.LockByIDs(ctx, tx, reviewed); err != nil {
		return fmt.Errorf("failed to lock products: %w", err)
	}

	deleted, err := s.reviewRepo.DeleteByUser(ctx, tx, id)
	if err != nil {
		return err
	}

	// A review written after the product list was read is locked late.
	var late []int64
	for _, productID := range deleted {
		if _, ok := slices.BinarySearch(reviewed, productID); !ok && !slices.Contains(late, productID) {
			late = append(late, productID)
		}
	}
	if len(late) > 0 {
		slices.Sort(late)
		if _, err := s.productRepo.LockByIDs(ctx, tx, late); err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}
		reviewed = append(reviewed, late...)
		slices.Sort(reviewed)
	}

	for _, productID := range reviewed {
		if _, err := recomputeRating(ctx, tx, s.reviewRepo, s.productRepo, productID, s.logger); err != nil {
			return err
		}
	}

	if err := s.userRepo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit user deletion: %w", err)
	}

	s.logger.Info().Int64("user_id", id).Int("reviews_products", len(reviewed)).Msg("user deleted")
	s.cache.Invalidate(ctx, reviewed...)
	return nil
}

func (s *accountService) CreateAdmin(ctx context.Context, req *model.CreateAdminRequest) (*model.Admin, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	admin := &model.Admin{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         req.Role,
	}
	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("admin_id", admin.ID).Str("role", admin.Role).Msg("admin created")
	return admin, nil
}

// AuthenticateAdmin reports unknown, inactive and mismatched accounts alike
// as ErrInvalidCredentials.
func (s *accountService) AuthenticateAdmin(ctx context.Context, email, password string) (*model.Admin, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if admin == nil || !admin.IsActive {
		s.logger.Warn().Msg("admin login rejected")
		return nil, model.ErrInvalidCredentials
	}

	if err := s.hasher.Compare(admin.PasswordHash, password); err != nil {
		if errors.Is(err, credential.ErrMismatch) {
			s.logger.Warn().Int64("admin_id", admin.ID).Msg("admin login rejected")
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.adminRepo.TouchLastLogin(ctx, admin.ID); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("admin_id", admin.ID).Msg("admin logged in")
	return admin, nil
}
