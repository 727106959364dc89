package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Zarakkhan-dev/automated-review-system/internal/ai"
	"github.com/Zarakkhan-dev/automated-review-system/internal/aireview"
	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	"github.com/Zarakkhan-dev/automated-review-system/internal/event"
	"github.com/Zarakkhan-dev/automated-review-system/internal/repository"
	apperrors "github.com/Zarakkhan-dev/automated-review-system/pkg/errors"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/kafka/kafkatest"
)

// ============================================================================
// Shared helpers
// ============================================================================

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer() (*event.Producer, *kafkatest.Recorder) {
	kp, rec := kafkatest.NewProducer(newTestLogger())
	return event.NewProducer(kp, newTestLogger()), rec
}

func newTestHelpers(t *testing.T, gen ai.Generator) *aireview.Helpers {
	t.Helper()
	h, err := aireview.NewHelpers(gen, 0, newTestLogger())
	require.NoError(t, err)
	return h
}

func intPtr(i int) *int { return &i }

const (
	summaryAnswer = "Title: Built To Last\nSummary: Owners praise the build quality and finish."
	flashAnswer   = "Customers are delighted with this one."
	replyAnswer   = "Thank you so much for the kind words!"
	previewAnswer = `{"title": "Four Stars Of Steel", "summary": "A 4-star kettle that owners enjoy."}`
)

// scriptedModel answers each helper's prompt with a fixed text. Sentiment
// follows a few keywords so end-to-end flows behave like a real model.
func scriptedModel() *ai.FakeGenerator {
	return ai.NewFakeGenerator(func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Respond with ONLY a number"):
			lower := strings.ToLower(prompt)
			switch {
			case strings.Contains(lower, "terrible"), strings.Contains(lower, "broke"):
				return "1", nil
			case strings.Contains(lower, "excellent"), strings.Contains(lower, "praise"):
				return "5", nil
			default:
				return "3", nil
			}
		case strings.Contains(prompt, "Customer Comments:"):
			return summaryAnswer, nil
		case strings.Contains(prompt, "overall customer sentiment"):
			return flashAnswer, nil
		case strings.Contains(prompt, "replying to a customer review"):
			return replyAnswer, nil
		case strings.Contains(prompt, "Respond with JSON only"):
			return previewAnswer, nil
		}
		return "", errors.New("unexpected prompt")
	})
}

// ============================================================================
// In-memory store
// ============================================================================

// memStore implements the user, product and review repositories over
// maps, so workflow tests can inspect what was persisted.
type memStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	products map[string]domain.Product
	reviews  []domain.Review
}

var (
	_ repository.ProductRepository = (*memStore)(nil)
	_ repository.UserRepository    = memUsers{}
	_ repository.ReviewRepository  = memReviews{}
)

func newMemStore() *memStore {
	return &memStore{users: map[string]domain.User{}, products: map[string]domain.Product{}}
}

func (m *memStore) addUser(id, name string) {
	m.users[id] = domain.User{ID: id, Name: name, Email: name + "@example.com"}
}

func (m *memStore) addProduct(id, name string) {
	m.products[id] = domain.Product{ID: id, Name: name}
}

func (m *memStore) Create(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = *p
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, apperrors.NotFound("Product", "")
	}
	return &p, nil
}

func (m *memStore) List(_ context.Context, offset, limit int) ([]domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.Product
	for _, p := range m.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (m *memStore) ListHealth(context.Context) ([]domain.ProductHealth, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ProductHealth
	for _, p := range m.products {
		h := domain.ProductHealth{ProductID: p.ID, ProductName: p.Name, StoredAverage: p.AverageRating}
		h.ActualAverage = m.averageLocked(p.ID)
		for _, r := range m.reviews {
			if r.ProductID != p.ID {
				continue
			}
			if r.IsAI {
				h.HasAIReview = true
			} else {
				h.UserReviews++
			}
		}
		out = append(out, h)
	}
	return out, nil
}

// memUsers adapts memStore to repository.UserRepository, whose method
// names collide with the product repository's.
type memUsers struct{ *memStore }

func (u memUsers) Create(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.users {
		if existing.Email == user.Email {
			return apperrors.AlreadyExists("Email already exists")
		}
	}
	u.users[user.ID] = *user
	return nil
}

func (u memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return nil, apperrors.NotFound("User", "")
	}
	return &user, nil
}

func (u memUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, apperrors.NotFound("User", "")
}

// memReviews adapts memStore to repository.ReviewRepository.
type memReviews struct{ *memStore }

func (r memReviews) InsertUserReview(_ context.Context, review *domain.Review) (*repository.ReviewInsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[review.ProductID]
	if !ok {
		return nil, apperrors.NotFound("Product", "")
	}
	prior := 0
	for _, existing := range r.reviews {
		if existing.ProductID == review.ProductID && !existing.IsAI {
			prior++
		}
	}
	stored := *review
	stored.Replies = append([]domain.Reply{}, review.Replies...)
	r.reviews = append(r.reviews, stored)

	p.AverageRating = r.averageLocked(p.ID)
	r.products[p.ID] = p
	return &repository.ReviewInsertResult{IsFirstReview: prior == 0, AverageRating: p.AverageRating}, nil
}

func (r memReviews) ListUserReviews(_ context.Context, productID string) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Review{}
	for _, rv := range r.reviews {
		if rv.ProductID == productID && !rv.IsAI {
			out = append(out, rv)
		}
	}
	return out, nil
}

func (r memReviews) GetAIReview(_ context.Context, productID string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.IsAI {
			return &rv, nil
		}
	}
	return nil, apperrors.NotFound("AI review", "")
}

func (r memReviews) UpsertAIReview(_ context.Context, review *domain.Review) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rv := range r.reviews {
		if rv.ProductID == review.ProductID && rv.IsAI {
			if rv.UpdatedAt.After(review.UpdatedAt) {
				return &rv, nil
			}
			updated := *review
			updated.ID = rv.ID
			updated.CreatedAt = rv.CreatedAt
			r.reviews[i] = updated
			return &updated, nil
		}
	}
	r.reviews = append(r.reviews, *review)
	stored := *review
	return &stored, nil
}

func (r memReviews) GetByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ID == id {
			return &rv, nil
		}
	}
	return nil, apperrors.NotFound("Review", "")
}

func (r memReviews) AppendReply(_ context.Context, reviewID string, reply domain.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.reviews {
		if r.reviews[i].ID == reviewID {
			r.reviews[i].Replies = append(r.reviews[i].Replies, reply)
			return nil
		}
	}
	return apperrors.NotFound("Review", "")
}

func (r memReviews) RecomputeAverage(_ context.Context, productID string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return 0, apperrors.NotFound("Product", "")
	}
	p.AverageRating = r.averageLocked(productID)
	r.products[productID] = p
	return p.AverageRating, nil
}

func (m *memStore) averageLocked(productID string) float64 {
	var ratings []int
	for _, rv := range m.reviews {
		if rv.ProductID == productID && !rv.IsAI {
			ratings = append(ratings, rv.Rating)
		}
	}
	return domain.AverageRating(ratings)
}

func (m *memStore) count(productID string, isAI bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rv := range m.reviews {
		if rv.ProductID == productID && rv.IsAI == isAI {
			n++
		}
	}
	return n
}

// ============================================================================
// testify mocks
// ============================================================================

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) InsertUserReview(ctx context.Context, review *domain.Review) (*repository.ReviewInsertResult, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ReviewInsertResult), args.Error(1)
}

func (m *mockReviewRepository) ListUserReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Review), args.Error(1)
}

func (m *mockReviewRepository) GetAIReview(ctx context.Context, productID string) (*domain.Review, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) UpsertAIReview(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) AppendReply(ctx context.Context, reviewID string, reply domain.Reply) error {
	args := m.Called(ctx, reviewID, reply)
	return args.Error(0)
}

func (m *mockReviewRepository) RecomputeAverage(ctx context.Context, productID string) (float64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(float64), args.Error(1)
}

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, offset, limit int) ([]domain.Product, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) ListHealth(ctx context.Context) ([]domain.ProductHealth, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProductHealth), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockProductCache struct {
	mock.Mock
}

func (m *mockProductCache) Get(ctx context.Context, productID string) (*domain.ProductDetail, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductDetail), args.Error(1)
}

func (m *mockProductCache) Set(ctx context.Context, detail *domain.ProductDetail) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

func (m *mockProductCache) Invalidate(ctx context.Context, productID string) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

type mockChatRepository struct {
	mock.Mock
}

func (m *mockChatRepository) ListByUser(ctx context.Context, userID string) ([]domain.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Chat), args.Error(1)
}

func (m *mockChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *mockChatRepository) Get(ctx context.Context, id, userID string) (*domain.Chat, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *mockChatRepository) ListMessages(ctx context.Context, chatID string) ([]domain.Message, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *mockChatRepository) Rename(ctx context.Context, id, userID, title string) (*domain.Chat, error) {
	args := m.Called(ctx, id, userID, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *mockChatRepository) Delete(ctx context.Context, id, userID string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockChatRepository) AddMessage(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
