package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Zarakkhan-dev/automated-review-system/internal/aireview"
	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	"github.com/Zarakkhan-dev/automated-review-system/internal/event"
	"github.com/Zarakkhan-dev/automated-review-system/internal/repository"
	apperrors "github.com/Zarakkhan-dev/automated-review-system/pkg/errors"
)

// Regeneration triggers reported on review.ai_regenerated events.
const (
	TriggerSubmission = "submission"
	TriggerReconcile  = "reconcile"
)

// fallbackReplyRating stands in for an unrated review when drafting an AI
// reply.
const fallbackReplyRating = 3

// SubmitReviewInput holds the parameters for a review submission. A nil
// Rating asks the model to derive one from Comment.
type SubmitReviewInput struct {
	ProductID string
	UserID    string
	Comment   string
	Rating    *int
}

// SubmitReviewResult is returned to the submitting client.
type SubmitReviewResult struct {
	Success       bool                    `json:"success"`
	UserReview    *domain.Review          `json:"userReview"`
	AverageRating float64                 `json:"averageRating"`
	AIReview      *domain.AIReviewSummary `json:"aiReview"`
	AIReply       *domain.Reply           `json:"aiReply,omitempty"`
}

// AddReplyInput holds the parameters for replying to a review. With IsAI
// set, Comment is only the request and the stored text is model-written.
type AddReplyInput struct {
	ReviewID string
	UserID   string
	Comment  string
	IsAI     bool
}

// AIReviewPreview is an AI review drafted around a caller-chosen star
// rating. It is never persisted.
type AIReviewPreview struct {
	ProductID string    `json:"productId"`
	IsAI      bool      `json:"isAI"`
	AITitle   string    `json:"aiTitle"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewService runs the review aggregation workflow.
type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	users    repository.UserRepository
	cache    repository.ProductCache
	ai       *aireview.Helpers
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewReviewService creates a review service. cache may be nil.
func NewReviewService(
	reviews repository.ReviewRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	cache repository.ProductCache,
	ai *aireview.Helpers,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		users:    users,
		cache:    cache,
		ai:       ai,
		producer: producer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SubmitReview stores a user review, refreshes the product's average and
// AI review, and drafts a welcome reply on the product's first review.
// Generation failures never fail the call; repository failures do, and
// writes already committed stay committed.
func (s *ReviewService) SubmitReview(ctx context.Context, input SubmitReviewInput) (*SubmitReviewResult, error) {
	input.Comment = strings.TrimSpace(input.Comment)
	if input.ProductID == "" || input.UserID == "" || input.Comment == "" {
		return nil, apperrors.InvalidInput("productId, userId and comment are required")
	}
	if err := validateID("product", input.ProductID); err != nil {
		return nil, err
	}
	if err := validateID("user", input.UserID); err != nil {
		return nil, err
	}
	if input.Rating != nil && !domain.IsValidRating(*input.Rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	rating, sentimentScore := 0, 0.0
	if input.Rating != nil {
		rating = *input.Rating
	} else {
		sentiment := s.ai.Sentiment.Score(ctx, input.Comment)
		rating, sentimentScore = sentiment.Rating, sentiment.Score
	}

	now := s.now()
	review := &domain.Review{
		ID:             uuid.NewString(),
		ProductID:      product.ID,
		UserID:         &user.ID,
		Rating:         rating,
		Comment:        input.Comment,
		SentimentScore: sentimentScore,
		Replies:        []domain.Reply{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	inserted, err := s.reviews.InsertUserReview(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	review.Author = user.Author()

	aiReview, err := s.regenerate(ctx, product, inserted.AverageRating)
	if err != nil {
		return nil, err
	}

	result := &SubmitReviewResult{
		Success:       true,
		UserReview:    review,
		AverageRating: inserted.AverageRating,
		AIReview: &domain.AIReviewSummary{
			ID:             aiReview.ID,
			Title:          aiReview.AITitle,
			Content:        aiReview.Comment,
			Rating:         aiReview.Rating,
			SentimentScore: aiReview.SentimentScore,
		},
	}

	if inserted.IsFirstReview {
		reply := domain.Reply{
			ID:        uuid.NewString(),
			Comment:   s.ai.Replies.Reply(ctx, review.Comment, review.Rating),
			IsAI:      true,
			CreatedAt: s.now(),
		}
		if err := s.reviews.AppendReply(ctx, review.ID, reply); err != nil {
			return nil, fmt.Errorf("append welcome reply: %w", err)
		}
		review.Replies = append(review.Replies, reply)
		result.AIReply = &reply
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", product.ID),
		slog.String("user_id", user.ID),
		slog.Int("rating", review.Rating),
		slog.Bool("rating_derived", input.Rating == nil),
		slog.Float64("average_rating", inserted.AverageRating),
		slog.Bool("first_review", inserted.IsFirstReview),
	)

	if err := s.producer.PublishReviewSubmitted(ctx, review, inserted.AverageRating, inserted.IsFirstReview); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}
	s.publishRegenerated(ctx, aiReview, TriggerSubmission)
	s.invalidate(ctx, product.ID)

	return result, nil
}

// Regenerate recomputes a product's average rating and replaces its AI
// review from the current user reviews. It repairs products left stale by
// an aborted submission.
func (s *ReviewService) Regenerate(ctx context.Context, productID string) (*domain.Review, error) {
	if err := validateID("product", productID); err != nil {
		return nil, err
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	avg, err := s.reviews.RecomputeAverage(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("recompute average: %w", err)
	}

	aiReview, err := s.regenerate(ctx, product, avg)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "ai review regenerated",
		slog.String("product_id", productID),
		slog.Float64("average_rating", avg),
	)
	s.publishRegenerated(ctx, aiReview, TriggerReconcile)
	s.invalidate(ctx, productID)
	return aiReview, nil
}

// regenerate summarises the product's user reviews and stores the result as
// its single AI review. The summary steers the tone by the current average;
// the persisted comment is the flash blurb for the summary's sentiment.
//
// The review is stamped before the user reviews are read, so a regeneration
// that saw fewer reviews always carries the older timestamp and loses the
// upsert to one that saw more.
func (s *ReviewService) regenerate(ctx context.Context, product *domain.Product, average float64) (*domain.Review, error) {
	now := s.now()
	userReviews, err := s.reviews.ListUserReviews(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	comments := make([]string, 0, len(userReviews))
	for _, r := range userReviews {
		comments = append(comments, r.Comment)
	}

	priority := domain.PriorityScore(average)
	summary := s.ai.Summarizer.Summarize(ctx, product.Name, comments, &priority)
	sentiment := s.ai.Sentiment.Score(ctx, summary.Content)
	flash := s.ai.Flash.Comment(ctx, sentiment.Score)

	stored, err := s.reviews.UpsertAIReview(ctx, &domain.Review{
		ID:             uuid.NewString(),
		ProductID:      product.ID,
		Rating:         sentiment.Rating,
		Comment:        flash,
		IsAI:           true,
		AITitle:        summary.Title,
		SentimentScore: sentiment.Score,
		Replies:        []domain.Reply{},
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert ai review: %w", err)
	}
	return stored, nil
}

// AddReply appends a reply to a review. AI replies are drafted from the
// review's own text and rating.
func (s *ReviewService) AddReply(ctx context.Context, input AddReplyInput) (*domain.Reply, error) {
	input.Comment = strings.TrimSpace(input.Comment)
	if input.ReviewID == "" || input.UserID == "" || input.Comment == "" {
		return nil, apperrors.InvalidInput("Missing required fields")
	}
	if err := validateID("user", input.UserID); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := validateID("review", input.ReviewID); err != nil {
		return nil, err
	}
	review, err := s.reviews.GetByID(ctx, input.ReviewID)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}

	text := input.Comment
	if input.IsAI {
		rating := review.Rating
		if rating == 0 {
			rating = fallbackReplyRating
		}
		text = s.ai.Replies.Reply(ctx, review.Comment, rating)
	}

	reply := domain.Reply{
		ID:        uuid.NewString(),
		UserID:    &user.ID,
		Author:    user.Author(),
		Comment:   text,
		IsAI:      input.IsAI,
		CreatedAt: s.now(),
	}
	if err := s.reviews.AppendReply(ctx, review.ID, reply); err != nil {
		return nil, fmt.Errorf("append reply: %w", err)
	}

	s.logger.InfoContext(ctx, "reply added",
		slog.String("review_id", review.ID),
		slog.String("reply_id", reply.ID),
		slog.Bool("is_ai", reply.IsAI),
	)
	s.invalidate(ctx, review.ProductID)
	return &reply, nil
}

// PreviewAIReview drafts an AI review whose tone and rating follow the
// given star rating rather than the product's average. Up to ten rated
// user reviews back it.
func (s *ReviewService) PreviewAIReview(ctx context.Context, productID string, stars float64) (*AIReviewPreview, error) {
	if err := validateID("product", productID); err != nil {
		return nil, err
	}
	if stars < domain.MinRating || stars > domain.MaxRating {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	userReviews, err := s.reviews.ListUserReviews(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	rated := make([]aireview.RatedReview, 0, len(userReviews))
	for _, r := range userReviews {
		rated = append(rated, aireview.RatedReview{Rating: r.Rating, Comment: r.Comment})
	}

	summary := s.ai.Summarizer.Preview(ctx, product.Name, rated, stars)
	return &AIReviewPreview{
		ProductID: product.ID,
		IsAI:      true,
		AITitle:   summary.Title,
		Rating:    stars,
		Comment:   summary.Content,
		CreatedAt: s.now(),
	}, nil
}

func (s *ReviewService) publishRegenerated(ctx context.Context, review *domain.Review, trigger string) {
	if err := s.producer.PublishAIReviewRegenerated(ctx, review, trigger); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.ai_regenerated event",
			slog.String("product_id", review.ProductID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *ReviewService) invalidate(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, productID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}

// validateID rejects ids that are not UUIDs before they reach the database.
func validateID(kind, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("Invalid %s ID format", kind))
	}
	return nil
}
