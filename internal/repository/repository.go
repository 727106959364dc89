package repository

import (
	"context"

	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
)

// ReviewInsertResult reports what a user-review insert changed.
type ReviewInsertResult struct {
	// IsFirstReview is true when the product had no user reviews before the
	// insert.
	IsFirstReview bool
	// AverageRating is the product's recomputed average, already persisted.
	AverageRating float64
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A duplicate email yields an AlreadyExists error.
	Create(ctx context.Context, user *domain.User) error

	GetByID(ctx context.Context, id string) (*domain.User, error)

	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error

	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// List returns products newest first along with the total count.
	List(ctx context.Context, offset, limit int) ([]domain.Product, int, error)

	// ListHealth returns stored versus actual review aggregates for every
	// product.
	ListHealth(ctx context.Context) ([]domain.ProductHealth, error)
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// InsertUserReview stores a user review and recomputes the product's
	// average rating in one transaction. The product row is locked for the
	// duration, so concurrent submissions for one product are serialised.
	InsertUserReview(ctx context.Context, review *domain.Review) (*ReviewInsertResult, error)

	// ListUserReviews returns a product's non-AI reviews oldest first, with
	// authors resolved.
	ListUserReviews(ctx context.Context, productID string) ([]domain.Review, error)

	// GetAIReview returns the product's AI review or a NotFound error.
	GetAIReview(ctx context.Context, productID string) (*domain.Review, error)

	// UpsertAIReview replaces the product's AI review unless the stored one
	// is newer. The stored row is returned either way.
	UpsertAIReview(ctx context.Context, review *domain.Review) (*domain.Review, error)

	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// AppendReply atomically appends reply to the review's reply list.
	AppendReply(ctx context.Context, reviewID string, reply domain.Reply) error

	// RecomputeAverage recalculates and stores the product's average rating.
	RecomputeAverage(ctx context.Context, productID string) (float64, error)
}

// ChatRepository defines the interface for chat persistence operations.
// Every lookup is scoped to the owning user; a chat owned by someone else
// is reported as not found.
type ChatRepository interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Chat, error)

	Create(ctx context.Context, chat *domain.Chat) error

	Get(ctx context.Context, id, userID string) (*domain.Chat, error)

	ListMessages(ctx context.Context, chatID string) ([]domain.Message, error)

	Rename(ctx context.Context, id, userID, title string) (*domain.Chat, error)

	// Delete removes the chat and its messages.
	Delete(ctx context.Context, id, userID string) error

	// AddMessage stores msg and bumps the chat's updated_at.
	AddMessage(ctx context.Context, msg *domain.Message) error
}

// ProductCache is a read-through cache for product detail pages.
type ProductCache interface {
	// Get returns a NotFound error on a miss.
	Get(ctx context.Context, productID string) (*domain.ProductDetail, error)

	Set(ctx context.Context, detail *domain.ProductDetail) error

	Invalidate(ctx context.Context, productID string) error
}
