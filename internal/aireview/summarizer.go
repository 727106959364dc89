package aireview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Zarakkhan-dev/automated-review-system/internal/ai"
)

// Fallback texts.
const (
	MissingTitle       = "AI Review Summary"
	MissingContent     = "This product received mixed feedback."
	UnavailableTitle   = "Product Overview"
	UnavailableContent = "AI analysis currently unavailable."
	NoReviewsEvidence  = "(No valid reviews provided)"
)

// MaxEvidence is how many review texts reach the prompt. The rest are
// dropped silently.
const MaxEvidence = 5

var (
	titleLabel   = regexp.MustCompile(`(?i)Title:\s*(.+)`)
	summaryLabel = regexp.MustCompile(`(?is)Summary:\s*(.+)`)
	titleStart   = regexp.MustCompile(`(?im)^\s*\**Title:`)
)

const summaryPrompt = `Product: %q
Average Sentiment Score: %.2f (%s)

Customer Comments:
%s

Summary:
Write a 3-4 line honest review summary based ONLY on the comments above. Describe the overall experience customers report. Do not invent details, use placeholder text or lean on generic marketing buzzwords.

Title:
Write a 3-5 word title that fits the tone.`

// Summary is a generated review headline and body.
type Summary struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// SentimentTier frames a [-1,1] score for the summary prompt.
func SentimentTier(score float64) string {
	switch {
	case score >= 0.7:
		return "overwhelmingly positive"
	case score >= 0.4:
		return "generally positive"
	case score >= 0.1:
		return "mixed"
	case score >= -0.2:
		return "somewhat negative"
	default:
		return "very negative"
	}
}

type Summarizer struct {
	gen    ai.Generator
	logger *slog.Logger
}

func NewSummarizer(gen ai.Generator, logger *slog.Logger) *Summarizer {
	return &Summarizer{gen: gen, logger: logger}
}

// Summarize writes a title and summary from at most MaxEvidence reviews.
// A nil priority scores as 0.
func (s *Summarizer) Summarize(ctx context.Context, productName string, reviews []string, priority *float64) Summary {
	score := 0.0
	if priority != nil {
		score = *priority
	}

	prompt := fmt.Sprintf(summaryPrompt, productName, score, SentimentTier(score), evidence(reviews))
	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "summary generation failed, using fallback",
			slog.String("helper", "summarizer"),
			slog.String("error", err.Error()),
		)
		return Summary{Title: UnavailableTitle, Content: UnavailableContent}
	}

	return ParseSummary(raw)
}

// RatedReview is a review text with its star rating, 0 when unrated.
type RatedReview struct {
	Rating  int
	Comment string
}

// MaxPreviewEvidence is how many reviews reach the preview prompt.
const MaxPreviewEvidence = 10

const previewPrompt = `Analyze this product and write a short AI review.
The AI rating of %s stars is the PRIMARY factor; the %d customer reviews support it.

Product: %q
AI Rating: %s stars
Customer Reviews:
%s

Write:
1. A catchy title of at most 10 words that reflects the AI rating.
2. A balanced summary of at most 150 words that opens by acknowledging the AI rating, mentions key points from the reviews and gives an overall assessment.

Keep the tone professional but approachable.
Respond with JSON only: {"title": string, "summary": string}`

// Preview drafts a review around a caller-chosen star rating from at most
// MaxPreviewEvidence rated reviews. When the model fails or its answer is
// not the requested JSON, the summary is built from the rating and the
// first reviews.
func (s *Summarizer) Preview(ctx context.Context, productName string, reviews []RatedReview, stars float64) Summary {
	rating := strconv.FormatFloat(stars, 'f', -1, 64)
	prompt := fmt.Sprintf(previewPrompt, rating, len(reviews), productName, rating, ratedEvidence(reviews))

	raw, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "preview generation failed, using fallback",
			slog.String("helper", "summarizer"),
			slog.String("error", err.Error()),
		)
		return PreviewFallback(reviews, stars)
	}

	var answer struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(stripFence(raw)), &answer); err != nil {
		s.logger.WarnContext(ctx, "preview answer is not JSON, using fallback",
			slog.String("helper", "summarizer"),
			slog.String("error", err.Error()),
		)
		return PreviewFallback(reviews, stars)
	}

	out := PreviewFallback(reviews, stars)
	if t := cleanLine(answer.Title); t != "" {
		out.Title = t
	}
	if c := strings.TrimSpace(answer.Summary); c != "" {
		out.Content = c
	}
	return out
}

// PreviewFallback is the preview written without the model.
func PreviewFallback(reviews []RatedReview, stars float64) Summary {
	rating := strconv.FormatFloat(stars, 'f', -1, 64)
	verdict := "has some limitations"
	if stars >= 3.5 {
		verdict = "performs well"
	}
	content := fmt.Sprintf("Based on our AI assessment (%s stars) and customer feedback, this product %s.", rating, verdict)

	var quotes []string
	for _, r := range reviews[:min(3, len(reviews))] {
		quotes = append(quotes, truncate(strings.TrimSpace(r.Comment), 50)+"...")
	}
	if len(quotes) > 0 {
		content += " Customers mention: " + strings.Join(quotes, " ")
	}
	return Summary{Title: fmt.Sprintf("AI Rating: %s Stars", rating), Content: content}
}

func ratedEvidence(reviews []RatedReview) string {
	shown := reviews[:min(MaxPreviewEvidence, len(reviews))]
	if len(shown) == 0 {
		return NoReviewsEvidence
	}
	lines := make([]string, 0, len(shown)+1)
	for i, r := range shown {
		stars := ""
		if r.Rating > 0 {
			stars = fmt.Sprintf("%d stars: ", r.Rating)
		}
		lines = append(lines, fmt.Sprintf("%d. %s%s", i+1, stars, strings.TrimSpace(r.Comment)))
	}
	if len(reviews) > len(shown) {
		lines = append(lines, fmt.Sprintf("(Showing %d of %d reviews)", len(shown), len(reviews)))
	}
	return strings.Join(lines, "\n")
}

// stripFence removes a markdown code fence around a JSON answer.
func stripFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimPrefix(raw, "json")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ParseSummary pulls the labelled sections out of a model answer. Each
// missing section falls back on its own.
func ParseSummary(raw string) Summary {
	out := Summary{Title: MissingTitle, Content: MissingContent}

	if m := titleLabel.FindStringSubmatch(raw); m != nil {
		if t := cleanLine(m[1]); t != "" {
			out.Title = t
		}
	}

	if m := summaryLabel.FindStringSubmatch(raw); m != nil {
		body := m[1]
		if loc := titleStart.FindStringIndex(body); loc != nil {
			body = body[:loc[0]]
		}
		if c := strings.TrimSpace(body); c != "" {
			out.Content = c
		}
	}

	return out
}

func evidence(reviews []string) string {
	if len(reviews) > MaxEvidence {
		reviews = reviews[:MaxEvidence]
	}
	var lines []string
	for _, r := range reviews {
		if r = strings.TrimSpace(r); r != "" {
			lines = append(lines, "• "+r)
		}
	}
	if len(lines) == 0 {
		return NoReviewsEvidence
	}
	return strings.Join(lines, "\n")
}

func cleanLine(s string) string {
	return strings.Trim(strings.TrimSpace(s), `*"`)
}
