package domain

import "time"

// Product is a catalog item. AverageRating is denormalized from the
// product's user reviews and recomputed on every submission.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	ImageURL      string    `json:"image"`
	Price         float64   `json:"price"`
	AverageRating float64   `json:"averageRating"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProductDetail is the product page payload: the product, its AI review and
// user reviews, and aggregate counts.
type ProductDetail struct {
	Product Product        `json:"product"`
	Reviews ProductReviews `json:"reviews"`
	Meta    ReviewMeta     `json:"meta"`
}

type ProductReviews struct {
	AI    *Review  `json:"ai"`
	Users []Review `json:"users"`
}

type ReviewMeta struct {
	TotalReviews  int     `json:"totalReviews"`
	AverageRating float64 `json:"averageRating"`
}

// NewProductDetail assembles a detail view, recomputing the average from
// the user reviews rather than trusting the stored value.
func NewProductDetail(p Product, ai *Review, users []Review) *ProductDetail {
	if users == nil {
		users = []Review{}
	}
	ratings := make([]int, 0, len(users))
	for _, r := range users {
		ratings = append(ratings, r.Rating)
	}
	avg := AverageRating(ratings)
	p.AverageRating = avg

	return &ProductDetail{
		Product: p,
		Reviews: ProductReviews{AI: ai, Users: users},
		Meta:    ReviewMeta{TotalReviews: len(users), AverageRating: avg},
	}
}

// ProductHealth compares a product's stored aggregate with what its reviews
// currently imply.
type ProductHealth struct {
	ProductID     string
	ProductName   string
	StoredAverage float64
	ActualAverage float64
	UserReviews   int
	HasAIReview   bool
}

// NeedsRepair reports whether the stored average is stale or the AI review
// is missing for a product that has user reviews.
func (h ProductHealth) NeedsRepair() bool {
	if RoundAverage(h.StoredAverage) != RoundAverage(h.ActualAverage) {
		return true
	}
	return h.UserReviews > 0 && !h.HasAIReview
}
