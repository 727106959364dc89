package aireview

import (
	"log/slog"

	"github.com/Zarakkhan-dev/automated-review-system/internal/ai"
)

// Helpers bundles the four generation helpers over one shared client.
type Helpers struct {
	Sentiment  *SentimentScorer
	Summarizer *Summarizer
	Flash      *FlashCommenter
	Replies    *ReplyGenerator
}

func NewHelpers(gen ai.Generator, sentimentCacheSize int, logger *slog.Logger) (*Helpers, error) {
	sentiment, err := NewSentimentScorer(gen, sentimentCacheSize, logger)
	if err != nil {
		return nil, err
	}
	return &Helpers{
		Sentiment:  sentiment,
		Summarizer: NewSummarizer(gen, logger),
		Flash:      NewFlashCommenter(gen, logger),
		Replies:    NewReplyGenerator(gen, logger),
	}, nil
}
