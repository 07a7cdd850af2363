package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// ReviewHandler handles review HTTP requests.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("handler", "review").Logger(),
	}
}

type updateReviewBody struct {
	UserID int64 `json:"userId"`
	model.UpdateReviewRequest
}

type moderateReviewBody struct {
	Approved *bool `json:"approved"`
}

type respondReviewBody struct {
	Response string `json:"response"`
}

// Create handles POST /api/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateReviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	review, err := h.service.CreateReview(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// ListByProduct handles GET /api/products/{id}/reviews.
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	reviews, err := h.service.ListProductReviews(r.Context(), productID, limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}

// Update handles PATCH /api/reviews/{id}. The body names the author.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var body updateReviewBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if body.UserID <= 0 {
		writeError(w, r, model.ErrValidation.WithField("userId", "userId is required"), h.logger)
		return
	}

	review, err := h.service.UpdateReview(r.Context(), id, body.UserID, &body.UpdateReviewRequest)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// Delete handles DELETE /api/reviews/{id}.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.DeleteReview(r.Context(), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkHelpful handles POST /api/reviews/{id}/helpful.
func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.MarkHelpful(r.Context(), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Moderate handles PATCH /api/admin/reviews/{id}/moderation.
func (h *ReviewHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var body moderateReviewBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if body.Approved == nil {
		writeError(w, r, model.ErrValidation.WithField("approved", "approved is required"), h.logger)
		return
	}

	review, err := h.service.ModerateReview(r.Context(), id, *body.Approved)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// Respond handles PUT /api/admin/reviews/{id}/response.
func (h *ReviewHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var body respondReviewBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	review, err := h.service.RespondToReview(r.Context(), id, body.Response)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, review)
}

// RecomputeRating handles POST /api/products/{id}/rating.
func (h *ReviewHandler) RecomputeRating(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	summary, err := h.service.RecomputeProductRating(r.Context(), productID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
