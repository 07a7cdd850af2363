// Package worker runs periodic background jobs.
package worker

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DriftLister finds products whose stored rating rollup is stale.
type DriftLister interface {
	ListRatingDrift(ctx context.Context, limit int) ([]int64, error)
}

// RatingRecomputer rebuilds one product's rollup from its approved reviews.
type RatingRecomputer interface {
	RecomputeProductRating(ctx context.Context, productID int64) (*model.RatingSummary, error)
}

// RatingReconciler repairs product rating rollups that drifted from the
// reviews table.
type RatingReconciler struct {
	products  DriftLister
	reviews   RatingRecomputer
	interval  time.Duration
	batchSize int
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewRatingReconciler creates a reconciler running every interval.
func NewRatingReconciler(products DriftLister, reviews RatingRecomputer, interval time.Duration, logger zerolog.Logger) *RatingReconciler {
	return &RatingReconciler{
		products:  products,
		reviews:   reviews,
		interval:  interval,
		batchSize: 100,
		tracer:    otel.Tracer("storefront/internal/worker"),
		logger:    logger.With().Str("component", "rating-reconciler").Logger(),
	}
}

// Start runs RunOnce on every tick until ctx is done. A non-positive
// interval disables the loop.
func (r *RatingReconciler) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info().Msg("rating reconciler disabled")
		return
	}

	r.logger.Info().Dur("interval", r.interval).Msg("starting rating reconciler")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("rating reconciler stopping")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error().Err(err).Msg("rating reconciliation failed")
			}
		}
	}
}

// RunOnce repairs up to one batch of drifted products and returns how many
// were recomputed. A failure on one product is logged and skipped.
func (r *RatingReconciler) RunOnce(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "RatingReconciler.RunOnce")
	defer span.End()

	ids, err := r.products.ListRatingDrift(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list rating drift: %w", err)
	}
	span.SetAttributes(attribute.Int("drifted", len(ids)))

	if len(ids) == 0 {
		return 0, nil
	}

	fixed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}

		summary, err := r.reviews.RecomputeProductRating(ctx, id)
		if err != nil {
			r.logger.Warn().Err(err).Int64("product_id", id).Msg("failed to recompute rating")
			continue
		}
		fixed++

		r.logger.Debug().
			Int64("product_id", id).
			Int("review_count", summary.ReviewCount).
			Msg("rating recomputed")
	}

	r.logger.Info().
		Int("drifted", len(ids)).
		Int("fixed", fixed).
		Msg("rating reconciliation pass complete")

	return fixed, nil
}
