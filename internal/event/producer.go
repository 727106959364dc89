package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	pkgkafka "github.com/Zarakkhan-dev/automated-review-system/pkg/kafka"
)

// Kafka topics for review-system events.
const (
	TopicReviewSubmitted     = "reviews.review.submitted"
	TopicReviewAIRegenerated = "reviews.review.ai_regenerated"
	TopicProductCreated      = "reviews.product.created"
	TopicUserRegistered      = "reviews.user.registered"
)

// Event type names carried in the envelope.
const (
	TypeReviewSubmitted     = "review.submitted"
	TypeReviewAIRegenerated = "review.ai_regenerated"
	TypeProductCreated      = "product.created"
	TypeUserRegistered      = "user.registered"
)

const (
	AggregateTypeProduct = "product"
	AggregateTypeUser    = "user"
)

const SourceReviewService = "review-service"

type ReviewSubmittedData struct {
	ReviewID      string  `json:"review_id"`
	ProductID     string  `json:"product_id"`
	UserID        string  `json:"user_id"`
	Rating        int     `json:"rating"`
	AverageRating float64 `json:"average_rating"`
	FirstReview   bool    `json:"first_review"`
}

type ReviewAIRegeneratedData struct {
	ReviewID       string  `json:"review_id"`
	ProductID      string  `json:"product_id"`
	Title          string  `json:"title"`
	Rating         int     `json:"rating"`
	SentimentScore float64 `json:"sentiment_score"`
	Trigger        string  `json:"trigger"`
}

type ProductCreatedData struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
}

type UserRegisteredData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Producer publishes domain events. Events are keyed by product id (or user
// id) so all events for one product stay ordered on a partition.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) PublishReviewSubmitted(ctx context.Context, review *domain.Review, average float64, first bool) error {
	data := ReviewSubmittedData{
		ReviewID:      review.ID,
		ProductID:     review.ProductID,
		Rating:        review.Rating,
		AverageRating: average,
		FirstReview:   first,
	}
	if review.UserID != nil {
		data.UserID = *review.UserID
	}
	return p.publish(ctx, TopicReviewSubmitted, TypeReviewSubmitted, review.ProductID, AggregateTypeProduct, data)
}

// PublishAIReviewRegenerated announces a replaced AI review. trigger names
// what caused it, e.g. "submission" or "reconcile".
func (p *Producer) PublishAIReviewRegenerated(ctx context.Context, review *domain.Review, trigger string) error {
	data := ReviewAIRegeneratedData{
		ReviewID:       review.ID,
		ProductID:      review.ProductID,
		Title:          review.AITitle,
		Rating:         review.Rating,
		SentimentScore: review.SentimentScore,
		Trigger:        trigger,
	}
	return p.publish(ctx, TopicReviewAIRegenerated, TypeReviewAIRegenerated, review.ProductID, AggregateTypeProduct, data)
}

func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	data := ProductCreatedData{
		ID:       product.ID,
		Name:     product.Name,
		Price:    product.Price,
		ImageURL: product.ImageURL,
	}
	return p.publish(ctx, TopicProductCreated, TypeProductCreated, product.ID, AggregateTypeProduct, data)
}

func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	data := UserRegisteredData{ID: user.ID, Name: user.Name, Email: user.Email}
	return p.publish(ctx, TopicUserRegistered, TypeUserRegistered, user.ID, AggregateTypeUser, data)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) error {
	ev, err := pkgkafka.NewEvent(eventType, aggregateID, aggregateType, SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	if err := p.kafka.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}
