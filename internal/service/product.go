package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	"github.com/Zarakkhan-dev/automated-review-system/internal/event"
	"github.com/Zarakkhan-dev/automated-review-system/internal/repository"
	"github.com/Zarakkhan-dev/automated-review-system/internal/storage"
	apperrors "github.com/Zarakkhan-dev/automated-review-system/pkg/errors"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/pagination"
)

// CreateProductInput holds the parameters for creating a product. Image is
// read once and streamed to object storage.
type CreateProductInput struct {
	Name             string
	Description      string
	Price            float64
	Image            io.Reader
	ImageName        string
	ImageContentType string
	ImageSize        int64
}

// ProductService implements the product catalog operations.
type ProductService struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	cache    repository.ProductCache
	storage  storage.Storage
	producer *event.Producer
	logger   *slog.Logger
}

// NewProductService creates a product service. cache may be nil.
func NewProductService(
	products repository.ProductRepository,
	reviews repository.ReviewRepository,
	cache repository.ProductCache,
	store storage.Storage,
	producer *event.Producer,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products: products,
		reviews:  reviews,
		cache:    cache,
		storage:  store,
		producer: producer,
		logger:   logger,
	}
}

// CreateProduct uploads the image and stores the product. The uploaded
// object is removed again if the insert fails.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	if input.Name == "" || input.Description == "" || input.Price <= 0 || input.Image == nil {
		return nil, apperrors.InvalidInput("Missing required fields")
	}

	key := storage.ProductImageKey(input.Name, input.ImageName)
	uploaded, err := s.storage.Upload(ctx, &storage.UploadInput{
		Key:         key,
		ContentType: input.ImageContentType,
		Size:        input.ImageSize,
		Data:        input.Image,
	})
	if err != nil {
		return nil, fmt.Errorf("upload product image: %w", err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    uploaded.URL,
		Price:       input.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		if delErr := s.storage.Delete(ctx, uploaded.Key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned product image",
				slog.String("key", uploaded.Key),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("create product: %w", err)
	}

	if err := s.producer.PublishProductCreated(ctx, product); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", product.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("name", product.Name),
		slog.String("image_key", uploaded.Key),
	)
	return product, nil
}

// ListProducts returns one page of products, newest first.
func (s *ProductService) ListProducts(ctx context.Context, params pagination.Params) (pagination.Page[domain.Product], error) {
	products, total, err := s.products.List(ctx, params.Offset(), params.Limit())
	if err != nil {
		return pagination.Page[domain.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return pagination.NewPage(products, total, params), nil
}

// GetProductDetail returns the product page payload, read through the
// cache. Cache failures degrade to a database read.
func (s *ProductService) GetProductDetail(ctx context.Context, id string) (*domain.ProductDetail, error) {
	if err := validateID("product", id); err != nil {
		return nil, err
	}

	if s.cache != nil {
		detail, err := s.cache.Get(ctx, id)
		if err == nil {
			return detail, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "product cache read failed",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}

	ai, err := s.reviews.GetAIReview(ctx, id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("get ai review: %w", err)
		}
		ai = nil
	}

	users, err := s.reviews.ListUserReviews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}

	detail := domain.NewProductDetail(*product, ai, users)
	if s.cache != nil {
		if err := s.cache.Set(ctx, detail); err != nil {
			s.logger.WarnContext(ctx, "product cache write failed",
				slog.String("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return detail, nil
}
