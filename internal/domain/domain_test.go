package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []int
		want    float64
	}{
		{"no reviews", nil, 0},
		{"single", []int{5}, 5},
		{"half", []int{4, 5}, 4.5},
		{"rounds up", []int{1, 2, 2}, 1.7},
		{"rounds down", []int{1, 1, 2}, 1.3},
		{"zero ratings count", []int{0, 5}, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageRating(tt.ratings))
		})
	}
}

func TestIsValidRating(t *testing.T) {
	assert.True(t, IsValidRating(0))
	assert.True(t, IsValidRating(5))
	assert.False(t, IsValidRating(-1))
	assert.False(t, IsValidRating(6))
}

func TestPriorityScore(t *testing.T) {
	assert.Equal(t, 1.0, PriorityScore(5))
	assert.Equal(t, 0.5, PriorityScore(3))
	assert.Equal(t, 0.0, PriorityScore(1))
	assert.Equal(t, 0.0, PriorityScore(0))
	assert.Equal(t, 1.0, PriorityScore(7))
}

func TestNewProductDetail_RecomputesAverage(t *testing.T) {
	p := Product{ID: "p1", Name: "Kettle", AverageRating: 1}
	users := []Review{{Rating: 4}, {Rating: 5}}

	detail := NewProductDetail(p, nil, users)

	assert.Equal(t, 4.5, detail.Product.AverageRating)
	assert.Equal(t, 4.5, detail.Meta.AverageRating)
	assert.Equal(t, 2, detail.Meta.TotalReviews)
	assert.Nil(t, detail.Reviews.AI)
}

func TestNewProductDetail_NoReviews(t *testing.T) {
	detail := NewProductDetail(Product{ID: "p1"}, nil, nil)
	assert.NotNil(t, detail.Reviews.Users)
	assert.Zero(t, detail.Meta.AverageRating)
}

func TestProductHealth_NeedsRepair(t *testing.T) {
	assert.False(t, ProductHealth{StoredAverage: 4.5, ActualAverage: 4.5, UserReviews: 2, HasAIReview: true}.NeedsRepair())
	assert.True(t, ProductHealth{StoredAverage: 4, ActualAverage: 4.5, UserReviews: 2, HasAIReview: true}.NeedsRepair())
	assert.True(t, ProductHealth{StoredAverage: 4.5, ActualAverage: 4.5, UserReviews: 2}.NeedsRepair())
	assert.False(t, ProductHealth{}.NeedsRepair())
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleUser))
	assert.True(t, IsValidRole(RoleModel))
	assert.False(t, IsValidRole("system"))
}
