package aireview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Zarakkhan-dev/automated-review-system/internal/ai"
)

// Reply tones.
const (
	TonePositive     = "positive and appreciative"
	ToneProfessional = "professional and understanding"
	ToneApologetic   = "apologetic and concerned"
)

const replyPrompt = `You are replying to a customer review on behalf of the business.
Tone: %s.
Customer rating: %d out of 5.

Review:
%q

Write a 1-2 sentence reply in the business's voice. Do not add a greeting line or sign-off.`

// ReplyTone is a pure function of the rating.
func ReplyTone(rating int) string {
	switch {
	case rating >= 4:
		return TonePositive
	case rating >= 2:
		return ToneProfessional
	default:
		return ToneApologetic
	}
}

// FallbackReply is used when the model cannot answer.
func FallbackReply(rating int) string {
	if rating >= 3 {
		return "Thank you for your review!"
	}
	return "Thank you for your feedback."
}

type ReplyGenerator struct {
	gen    ai.Generator
	logger *slog.Logger
}

func NewReplyGenerator(gen ai.Generator, logger *slog.Logger) *ReplyGenerator {
	return &ReplyGenerator{gen: gen, logger: logger}
}

func (r *ReplyGenerator) Reply(ctx context.Context, reviewText string, rating int) string {
	raw, err := r.gen.Generate(ctx, fmt.Sprintf(replyPrompt, ReplyTone(rating), rating, strings.TrimSpace(reviewText)))
	if err != nil {
		r.logger.WarnContext(ctx, "reply generation failed, using fallback",
			slog.String("helper", "reply"),
			slog.String("error", err.Error()),
		)
		return FallbackReply(rating)
	}
	if text := strings.TrimSpace(raw); text != "" {
		return text
	}
	return FallbackReply(rating)
}
