package domain

import (
	"math"
	"time"
)

// Rating bounds. Zero is a legal stored rating; the model-derived rating is
// always at least MinModelRating.
const (
	MinRating      = 0
	MaxRating      = 5
	MinModelRating = 1
)

// Author is the public projection of a user attached to a review or reply.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Review is a product review. Exactly one review per product may have IsAI
// set; it is regenerated after every user submission.
type Review struct {
	ID             string    `json:"id"`
	ProductID      string    `json:"productId"`
	UserID         *string   `json:"userId"`
	Author         *Author   `json:"author,omitempty"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment"`
	IsAI           bool      `json:"isAI"`
	AITitle        string    `json:"aiTitle"`
	SentimentScore float64   `json:"sentimentScore"`
	Replies        []Reply   `json:"replies"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Reply is nested under a review and is append-only.
type Reply struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"userId"`
	Author    *Author   `json:"author,omitempty"`
	Comment   string    `json:"comment"`
	IsAI      bool      `json:"isAI"`
	CreatedAt time.Time `json:"createdAt"`
}

// AIReviewSummary is the caller-facing view of a freshly generated AI review.
type AIReviewSummary struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Content        string  `json:"content"`
	Rating         int     `json:"rating"`
	SentimentScore float64 `json:"sentimentScore"`
}

// IsValidRating reports whether r may be stored on a review.
func IsValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// AverageRating returns the mean of ratings rounded to one decimal place,
// or 0 for an empty set.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return RoundAverage(float64(sum) / float64(len(ratings)))
}

// RoundAverage rounds to one decimal place, halves away from zero.
func RoundAverage(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// PriorityScore maps a star rating in [1,5] onto the [0,1] sentiment scale.
// Ratings below one map to zero.
func PriorityScore(stars float64) float64 {
	if stars < 1 {
		return 0
	}
	return math.Min((stars-1)/4, 1)
}
