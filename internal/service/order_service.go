package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/validation"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
	pricing     pricing.Policy
	validator   *validation.Validator
	dispatcher  notify.Dispatcher
	cache       ProductCache
	logger      zerolog.Logger
}

// NewOrderService creates a new order service. A nil cache disables invalidation.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
	policy pricing.Policy,
	validator *validation.Validator,
	dispatcher notify.Dispatcher,
	cache ProductCache,
	logger zerolog.Logger,
) OrderService {
	if cache == nil {
		cache = noCache{}
	}
	if dispatcher == nil {
		dispatcher = notify.Nop{}
	}
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		pricing:     policy,
		validator:   validator,
		dispatcher:  dispatcher,
		cache:       cache,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder places an order. Every failure, including validation, is
// returned as *model.OrderCreationError with nothing persisted.
func (s *orderService) CreateOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	order, err := s.createOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order creation failed")
		return nil, &model.OrderCreationError{Cause: err}
	}

	span.SetAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("order.number", order.OrderNumber),
	)

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Int64("user_id", order.UserID).
		Int("item_count", len(order.Items)).
		Str("total", order.Total.StringFixed(model.MoneyScale)).
		Msg("order created successfully")

	s.cache.Invalidate(ctx, productIDs(order.Items)...)
	s.notify(ctx, notify.KindOrderPlaced, order)

	return order, nil
}

func (s *orderService) createOrder(ctx context.Context, req *model.CreateOrderRequest) (*model.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	lines := mergeLines(req.Items)
	ids := make([]int64, 0, len(lines))
	for id := range lines {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", req.UserID).Msg("failed to load customer")
		return nil, fmt.Errorf("failed to load customer: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound.WithMessage("user %d not found", req.UserID)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer repository.Rollback(ctx, tx, s.logger)

	locked, err := s.productRepo.LockByIDs(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}
	byID := make(map[int64]*model.Product, len(locked))
	for i := range locked {
		byID[locked[i].ID] = &locked[i]
	}

	items := make([]model.OrderItem, 0, len(ids))
	for _, line := range req.Items {
		qty, pending := lines[line.ProductID]
		if !pending {
			continue
		}
		delete(lines, line.ProductID)

		product, ok := byID[line.ProductID]
		if !ok || !product.IsActive {
			return nil, model.ErrProductNotFound.WithMessage("product %d not found", line.ProductID)
		}
		if product.Stock < qty {
			s.logger.Warn().
				Int64("product_id", product.ID).
				Int("stock", product.Stock).
				Int("requested", qty).
				Msg("insufficient stock")
			return nil, model.ErrInsufficientStock.
				WithMessage("product %d has %d in stock, %d requested", product.ID, product.Stock, qty).
				WithField("productId", fmt.Sprint(product.ID))
		}
		items = append(items, model.NewOrderItem(product, qty))
	}

	placedAt := time.Now().UTC()
	order := &model.Order{
		UserID:             user.ID,
		Status:             model.OrderStatusPending,
		PaymentStatus:      model.PaymentStatusPending,
		PaymentMethod:      req.Payment.Method,
		CustomerName:       user.FullName(),
		CustomerEmail:      user.Email,
		ShippingName:       req.Shipping.Name,
		ShippingAddress:    req.Shipping.Address,
		ShippingCity:       req.Shipping.City,
		ShippingState:      req.Shipping.State,
		ShippingPostalCode: req.Shipping.PostalCode,
		ShippingCountry:    req.Shipping.Country,
		ShippingPhone:      req.Shipping.Phone,
		Notes:              req.Notes,
		Items:              items,
	}

	quote := s.pricing.Quote(model.SumSubtotals(items))
	order.ApplyTotals(quote.Tax, quote.ShippingCost)
	if err := order.CheckTotals(); err != nil {
		return nil, err
	}

	if order.OrderNumber, err = s.orderRepo.NextOrderNumber(ctx, tx, placedAt); err != nil {
		return nil, err
	}

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err := s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		if err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	return order, nil
}

// mergeLines sums quantities of repeated products.
func mergeLines(lines []model.OrderItemRequest) map[int64]int {
	merged := make(map[int64]int, len(lines))
	for _, line := range lines {
		merged[line.ProductID] += line.Quantity
	}
	return merged
}

func productIDs(items []model.OrderItem) []int64 {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}
	return ids
}

// GetOrder retrieves an order with its items.
func (s *orderService) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Int64("order_id", id).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID int64, limit, offset int) ([]model.Order, error) {
	limit, offset = clampPage(limit, offset)

	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// TransitionOrderStatus holds the order row lock while checking and applying
// the transition. Cancelling returns every line's quantity to stock.
func (s *orderService) TransitionOrderStatus(ctx context.Context, orderID int64, next model.OrderStatus) (*model.Order, error) {
	ctx, span := tracer.Start(ctx, "OrderService.TransitionOrderStatus",
		trace.WithAttributes(attribute.Int64("order.id", orderID), attribute.String("order.status", string(next))))
	defer span.End()

	if !next.Valid() {
		return nil, model.ErrValidation.WithField("status", fmt.Sprintf("unknown order status %q", next))
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer repository.Rollback(ctx, tx, s.logger)

	order, err := s.orderRepo.LockByID(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, model.ErrInvalidStatusTransition.
			WithMessage("cannot move order %s from %s to %s", order.OrderNumber, order.Status, next)
	}

	if next == model.OrderStatusCancelled {
		for _, item := range order.Items {
			if err := s.productRepo.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return nil, err
			}
		}
	}

	previous := order.Status
	order.Status = next
	if err := s.orderRepo.UpdateStatus(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to commit status change: %w", err)
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("from", string(previous)).
		Str("to", string(next)).
		Msg("order status changed")

	if next == model.OrderStatusCancelled {
		s.cache.Invalidate(ctx, productIDs(order.Items)...)
	}
	s.notify(ctx, notify.KindOrderStatusChanged, order)

	return order, nil
}

// TransitionPaymentStatus applies the payment machine. A refund is only
// reachable from paid.
func (s *orderService) TransitionPaymentStatus(ctx context.Context, orderID int64, next model.PaymentStatus) (*model.Order, error) {
	if !next.Valid() {
		return nil, model.ErrValidation.WithField("status", fmt.Sprintf("unknown payment status %q", next))
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer repository.Rollback(ctx, tx, s.logger)

	order, err := s.orderRepo.LockByID(ctx, tx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	if !order.PaymentStatus.CanTransitionTo(next) {
		return nil, model.ErrInvalidPaymentTransition.
			WithMessage("cannot move payment of order %s from %s to %s", order.OrderNumber, order.PaymentStatus, next)
	}

	previous := order.PaymentStatus
	order.PaymentStatus = next
	if err := s.orderRepo.UpdatePaymentStatus(ctx, tx, order); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Int64("order_id", orderID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to commit payment status change: %w", err)
	}

	s.logger.Info().
		Int64("order_id", order.ID).
		Str("from", string(previous)).
		Str("to", string(next)).
		Msg("payment status changed")

	s.notify(ctx, notify.KindPaymentStatusChanged, order)

	return order, nil
}

func (s *orderService) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.orderRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("order_id", id).Msg("order deleted")
	return nil
}

// notify runs after commit; a failed dispatch never undoes the change.
func (s *orderService) notify(ctx context.Context, kind notify.Kind, order *model.Order) {
	if err := s.dispatcher.Dispatch(ctx, notify.NewOrderEvent(kind, order)); err != nil {
		s.logger.Warn().
			Err(err).
			Str("kind", string(kind)).
			Int64("order_id", order.ID).
			Msg("failed to dispatch notification")
	}
}
