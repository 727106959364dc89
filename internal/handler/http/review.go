package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zarakkhan-dev/automated-review-system/internal/service"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/httputil"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/middleware"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SubmitReviewRequest is the JSON body for a review submission. A missing
// rating is derived from the comment.
type SubmitReviewRequest struct {
	ProductID string `json:"productId"`
	UserID    string `json:"userId"`
	Comment   string `json:"comment"`
	Rating    *int   `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// AddReplyRequest is the JSON body for a reply. With isAI set the stored
// text is written by the model.
type AddReplyRequest struct {
	Comment string `json:"comment"`
	IsAI    bool   `json:"isAI"`
}

// --- Handlers ---

// SubmitReview handles POST /api/v1/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	var req SubmitReviewRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	caller := middleware.UserIDFromContext(r.Context())
	if req.UserID == "" {
		req.UserID = caller
	} else if req.UserID != caller {
		httputil.WriteErrorCode(w, http.StatusForbidden, "FORBIDDEN", "cannot submit a review for another user")
		return
	}

	result, err := h.service.SubmitReview(r.Context(), service.SubmitReviewInput{
		ProductID: req.ProductID,
		UserID:    req.UserID,
		Comment:   req.Comment,
		Rating:    req.Rating,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, result)
}

// AddReply handles POST /api/v1/reviews/{id}/replies
func (h *ReviewHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	var req AddReplyRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	reply, err := h.service.AddReply(r.Context(), service.AddReplyInput{
		ReviewID: chi.URLParam(r, "id"),
		UserID:   middleware.UserIDFromContext(r.Context()),
		Comment:  req.Comment,
		IsAI:     req.IsAI,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, map[string]any{
		"success": true,
		"reply":   reply,
	})
}
