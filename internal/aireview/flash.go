package aireview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Zarakkhan-dev/automated-review-system/internal/ai"
)

const NoComment = "No comment available."

const flashPrompt = `The overall customer sentiment is %q.

Write a realistic and brief 2-3 line product summary that reflects this tone. Stay factual, avoid exaggeration and do not refer to any specific review.`

// Mood buckets a score for the flash comment prompt.
func Mood(score float64) string {
	switch {
	case score >= 0.7:
		return "extremely positive"
	case score >= 0.4:
		return "generally positive"
	case score >= 0.1:
		return "mixed"
	case score >= -0.3:
		return "somewhat negative"
	default:
		return "strongly negative"
	}
}

// FlashCommenter writes a short blurb from a sentiment score alone. The
// prompt carries only the mood, so no review text can leak into it.
type FlashCommenter struct {
	gen    ai.Generator
	logger *slog.Logger
}

func NewFlashCommenter(gen ai.Generator, logger *slog.Logger) *FlashCommenter {
	return &FlashCommenter{gen: gen, logger: logger}
}

func (f *FlashCommenter) Comment(ctx context.Context, score float64) string {
	raw, err := f.gen.Generate(ctx, fmt.Sprintf(flashPrompt, Mood(score)))
	if err != nil {
		f.logger.WarnContext(ctx, "flash comment failed, using fallback",
			slog.String("helper", "flash"),
			slog.String("error", err.Error()),
		)
		return NoComment
	}
	if text := strings.TrimSpace(raw); text != "" {
		return text
	}
	return NoComment
}
