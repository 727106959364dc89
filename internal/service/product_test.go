package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	"github.com/Zarakkhan-dev/automated-review-system/internal/event"
	"github.com/Zarakkhan-dev/automated-review-system/internal/storage/memory"
	apperrors "github.com/Zarakkhan-dev/automated-review-system/pkg/errors"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/pagination"
)

func validProductInput() CreateProductInput {
	return CreateProductInput{
		Name:             "Steel Kettle",
		Description:      "1.7L brushed steel kettle",
		Price:            39.99,
		Image:            strings.NewReader("png-bytes"),
		ImageName:        "kettle.PNG",
		ImageContentType: "image/png",
		ImageSize:        9,
	}
}

// ============================================================================
// CreateProduct
// ============================================================================

func TestCreateProduct_Success(t *testing.T) {
	products := new(mockProductRepository)
	store := memory.New("http://cdn.test")
	producer, rec := newTestProducer()
	svc := NewProductService(products, nil, nil, store, producer, newTestLogger())

	products.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).Return(nil)

	product, err := svc.CreateProduct(context.Background(), validProductInput())
	require.NoError(t, err)

	assert.Equal(t, "Steel Kettle", product.Name)
	assert.Equal(t, 39.99, product.Price)
	assert.Zero(t, product.AverageRating)
	assert.True(t, strings.HasPrefix(product.ImageURL, "http://cdn.test/products/"))
	assert.True(t, strings.HasSuffix(product.ImageURL, "-steel-kettle.png"))

	key := strings.TrimPrefix(product.ImageURL, "http://cdn.test/")
	data, contentType, ok := store.Object(key)
	require.True(t, ok)
	assert.Equal(t, "png-bytes", string(data))
	assert.Equal(t, "image/png", contentType)

	assert.Equal(t, []string{event.TopicProductCreated}, rec.Topics())
	products.AssertExpectations(t)
}

func TestCreateProduct_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateProductInput)
	}{
		{"no name", func(in *CreateProductInput) { in.Name = " " }},
		{"no description", func(in *CreateProductInput) { in.Description = "" }},
		{"zero price", func(in *CreateProductInput) { in.Price = 0 }},
		{"negative price", func(in *CreateProductInput) { in.Price = -3 }},
		{"no image", func(in *CreateProductInput) { in.Image = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := new(mockProductRepository)
			producer, _ := newTestProducer()
			svc := NewProductService(products, nil, nil, memory.New("http://cdn.test"), producer, newTestLogger())

			input := validProductInput()
			tt.mutate(&input)
			_, err := svc.CreateProduct(context.Background(), input)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "Missing required fields", appErr.Message)
			products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateProduct_RemovesImageWhenInsertFails(t *testing.T) {
	products := new(mockProductRepository)
	store := memory.New("http://cdn.test")
	producer, rec := newTestProducer()
	svc := NewProductService(products, nil, nil, store, producer, newTestLogger())

	var created *domain.Product
	products.On("Create", mock.Anything, mock.AnythingOfType("*domain.Product")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Product) }).
		Return(errors.New("db down"))

	_, err := svc.CreateProduct(context.Background(), validProductInput())
	require.Error(t, err)

	require.NotNil(t, created)
	key := strings.TrimPrefix(created.ImageURL, "http://cdn.test/")
	_, _, ok := store.Object(key)
	assert.False(t, ok)
	assert.Empty(t, rec.Messages())
}

// ============================================================================
// ListProducts
// ============================================================================

func TestListProducts(t *testing.T) {
	products := new(mockProductRepository)
	producer, _ := newTestProducer()
	svc := NewProductService(products, nil, nil, memory.New(""), producer, newTestLogger())

	items := []domain.Product{{ID: "a"}, {ID: "b"}}
	products.On("List", mock.Anything, 20, 20).Return(items, 42, nil)

	page, err := svc.ListProducts(context.Background(), pagination.Params{Page: 2, PerPage: 20})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 42, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
}

func TestListProducts_Error(t *testing.T) {
	products := new(mockProductRepository)
	producer, _ := newTestProducer()
	svc := NewProductService(products, nil, nil, memory.New(""), producer, newTestLogger())

	products.On("List", mock.Anything, 0, 20).Return(nil, 0, errors.New("db down"))

	_, err := svc.ListProducts(context.Background(), pagination.Params{Page: 1, PerPage: 20})
	assert.Error(t, err)
}

// ============================================================================
// GetProductDetail
// ============================================================================

func TestGetProductDetail_CacheHit(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	cache := new(mockProductCache)
	producer, _ := newTestProducer()
	svc := NewProductService(products, reviews, cache, memory.New(""), producer, newTestLogger())

	id := uuid.NewString()
	cached := &domain.ProductDetail{Product: domain.Product{ID: id, Name: "Kettle"}}
	cache.On("Get", mock.Anything, id).Return(cached, nil)

	detail, err := svc.GetProductDetail(context.Background(), id)
	require.NoError(t, err)
	assert.Same(t, cached, detail)
	products.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetProductDetail_CacheMissFillsCache(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	cache := new(mockProductCache)
	producer, _ := newTestProducer()
	svc := NewProductService(products, reviews, cache, memory.New(""), producer, newTestLogger())

	id := uuid.NewString()
	cache.On("Get", mock.Anything, id).Return(nil, apperrors.NotFound("product detail", id))
	products.On("GetByID", mock.Anything, id).Return(&domain.Product{ID: id, Name: "Kettle", AverageRating: 1}, nil)
	reviews.On("GetAIReview", mock.Anything, id).Return(&domain.Review{ID: "ai", IsAI: true}, nil)
	reviews.On("ListUserReviews", mock.Anything, id).Return([]domain.Review{{Rating: 4}, {Rating: 5}}, nil)
	cache.On("Set", mock.Anything, mock.AnythingOfType("*domain.ProductDetail")).Return(nil)

	detail, err := svc.GetProductDetail(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 4.5, detail.Product.AverageRating)
	assert.Equal(t, 2, detail.Meta.TotalReviews)
	require.NotNil(t, detail.Reviews.AI)
	assert.Equal(t, "ai", detail.Reviews.AI.ID)
	cache.AssertExpectations(t)
}

func TestGetProductDetail_CacheFailureFallsBack(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	cache := new(mockProductCache)
	producer, _ := newTestProducer()
	svc := NewProductService(products, reviews, cache, memory.New(""), producer, newTestLogger())

	id := uuid.NewString()
	cache.On("Get", mock.Anything, id).Return(nil, errors.New("redis down"))
	products.On("GetByID", mock.Anything, id).Return(&domain.Product{ID: id}, nil)
	reviews.On("GetAIReview", mock.Anything, id).Return(nil, apperrors.NotFound("AI review", ""))
	reviews.On("ListUserReviews", mock.Anything, id).Return([]domain.Review{}, nil)
	cache.On("Set", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	detail, err := svc.GetProductDetail(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, detail.Reviews.AI)
	assert.Empty(t, detail.Reviews.Users)
}

func TestGetProductDetail_NotFound(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	producer, _ := newTestProducer()
	svc := NewProductService(products, reviews, nil, memory.New(""), producer, newTestLogger())

	id := uuid.NewString()
	products.On("GetByID", mock.Anything, id).Return(nil, apperrors.NotFound("Product", ""))

	_, err := svc.GetProductDetail(context.Background(), id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetProductDetail_InvalidID(t *testing.T) {
	producer, _ := newTestProducer()
	svc := NewProductService(new(mockProductRepository), nil, nil, memory.New(""), producer, newTestLogger())

	_, err := svc.GetProductDetail(context.Background(), "42")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestGetProductDetail_AIReviewError(t *testing.T) {
	products := new(mockProductRepository)
	reviews := new(mockReviewRepository)
	producer, _ := newTestProducer()
	svc := NewProductService(products, reviews, nil, memory.New(""), producer, newTestLogger())

	id := uuid.NewString()
	products.On("GetByID", mock.Anything, id).Return(&domain.Product{ID: id}, nil)
	reviews.On("GetAIReview", mock.Anything, id).Return(nil, errors.New("db down"))

	_, err := svc.GetProductDetail(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}
