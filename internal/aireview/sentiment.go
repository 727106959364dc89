// Package aireview turns review text into model-written artefacts: a
// sentiment rating, a product summary, a mood blurb and owner replies.
// Every helper fails soft; a backend error yields a fixed fallback value
// and is logged, never returned.
package aireview

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Zarakkhan-dev/automated-review-system/internal/ai"
)

// Sentiment is a rating in [1,5] and the same value on a [0,1] scale.
type Sentiment struct {
	Score  float64 `json:"score"`
	Rating int     `json:"rating"`
}

// Neutral is returned whenever the model cannot be consulted or parsed.
var Neutral = Sentiment{Score: 0.5, Rating: 3}

var firstInt = regexp.MustCompile(`-?\d+`)

const sentimentPrompt = `Analyze the following customer review and determine its sentiment.
Rate it from 1 to 5 where:
1 = Very negative
2 = Negative
3 = Neutral
4 = Positive
5 = Very positive

Review:
%q

Respond with ONLY a number 1-5 and nothing else.`

// SentimentScorer rates free text through the model. Successful results
// are memoised by text; failures are not.
type SentimentScorer struct {
	gen    ai.Generator
	cache  *lru.Cache[string, Sentiment]
	logger *slog.Logger
}

// NewSentimentScorer builds a scorer. cacheSize <= 0 disables the memo.
func NewSentimentScorer(gen ai.Generator, cacheSize int, logger *slog.Logger) (*SentimentScorer, error) {
	s := &SentimentScorer{gen: gen, logger: logger}
	if cacheSize > 0 {
		cache, err := lru.New[string, Sentiment](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create sentiment cache: %w", err)
		}
		s.cache = cache
	}
	return s, nil
}

// Score returns the text's sentiment, or Neutral when the model fails or
// its answer holds no integer.
func (s *SentimentScorer) Score(ctx context.Context, text string) Sentiment {
	key := cacheKey(text)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v
		}
	}

	raw, err := s.gen.Generate(ctx, fmt.Sprintf(sentimentPrompt, strings.TrimSpace(text)))
	if err != nil {
		s.logger.WarnContext(ctx, "sentiment scoring failed, using neutral",
			slog.String("helper", "sentiment"),
			slog.String("error", err.Error()),
		)
		return Neutral
	}

	rating, ok := ParseRating(raw)
	if !ok {
		s.logger.WarnContext(ctx, "sentiment response unparsable, using neutral",
			slog.String("helper", "sentiment"),
			slog.String("response", raw),
		)
		return Neutral
	}

	out := Sentiment{Score: RatingToScore(rating), Rating: rating}
	if s.cache != nil {
		s.cache.Add(key, out)
	}
	return out
}

// ParseRating takes the first integer in raw and clamps it to [1,5].
func ParseRating(raw string) (int, bool) {
	m := firstInt.FindString(raw)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Only overflow gets here; the sign still says which end to clamp to.
		if strings.HasPrefix(m, "-") {
			return 1, true
		}
		return 5, true
	}
	return min(max(n, 1), 5), true
}

// RatingToScore maps 1..5 onto 0..1, rounded to four decimals.
func RatingToScore(rating int) float64 {
	return math.Round(float64(rating-1)/4*1e4) / 1e4
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(sum[:])
}
