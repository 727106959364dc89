package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	"github.com/Zarakkhan-dev/automated-review-system/internal/repository"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/database"
	apperrors "github.com/Zarakkhan-dev/automated-review-system/pkg/errors"
)

const reviewSelect = `
	SELECT rv.id, rv.product_id, rv.user_id, u.name, rv.rating, rv.comment, rv.is_ai,
	       rv.ai_title, rv.sentiment_score, rv.replies, rv.created_at, rv.updated_at
	FROM reviews rv
	LEFT JOIN users u ON u.id = rv.user_id`

const reviewReturning = `
	RETURNING id, product_id, user_id, NULL::text, rating, comment, is_ai,
	          ai_title, sentiment_score, replies, created_at, updated_at`

// recomputeAverage stores round(avg, 1) of the product's user ratings, or 0
// when there are none.
const recomputeAverage = `
	UPDATE products
	SET average_rating = agg.avg, updated_at = NOW()
	FROM (
		SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0)::float8 AS avg
		FROM reviews
		WHERE product_id = $1 AND NOT is_ai
	) agg
	WHERE products.id = $1
	RETURNING products.average_rating`

// ReviewRepository implements review persistence operations using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

// InsertUserReview locks the product row, counts prior user reviews, inserts
// the review and stores the recomputed average, all in one transaction.
func (r *ReviewRepository) InsertUserReview(ctx context.Context, review *domain.Review) (_ *repository.ReviewInsertResult, err error) {
	ctx, end := database.TraceQuery(ctx, "InsertUserReview", "insert user review tx")
	defer func() { end(err) }()

	replies, err := marshalReplies(review.Replies)
	if err != nil {
		return nil, err
	}

	var result repository.ReviewInsertResult
	err = database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		var productID string
		if err := tx.QueryRow(ctx,
			`SELECT id FROM products WHERE id = $1 FOR UPDATE`, review.ProductID,
		).Scan(&productID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NotFound("Product", "")
			}
			return fmt.Errorf("lock product: %w", err)
		}

		var prior int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM reviews WHERE product_id = $1 AND NOT is_ai`, review.ProductID,
		).Scan(&prior); err != nil {
			return fmt.Errorf("count user reviews: %w", err)
		}
		result.IsFirstReview = prior == 0

		if _, err := tx.Exec(ctx, `
			INSERT INTO reviews (id, product_id, user_id, rating, comment, is_ai, ai_title,
			                     sentiment_score, replies, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, FALSE, '', $6, $7, $8, $9)`,
			review.ID,
			review.ProductID,
			review.UserID,
			review.Rating,
			review.Comment,
			review.SentimentScore,
			replies,
			review.CreatedAt,
			review.UpdatedAt,
		); err != nil {
			return fmt.Errorf("insert review: %w", err)
		}

		if err := tx.QueryRow(ctx, recomputeAverage, review.ProductID).Scan(&result.AverageRating); err != nil {
			return fmt.Errorf("update average rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListUserReviews returns the product's user reviews oldest first.
func (r *ReviewRepository) ListUserReviews(ctx context.Context, productID string) (_ []domain.Review, err error) {
	query := reviewSelect + `
		WHERE rv.product_id = $1 AND NOT rv.is_ai
		ORDER BY rv.created_at, rv.id`

	ctx, end := database.TraceQuery(ctx, "ListUserReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *rv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, nil
}

// GetAIReview returns the product's AI review.
func (r *ReviewRepository) GetAIReview(ctx context.Context, productID string) (_ *domain.Review, err error) {
	query := reviewSelect + ` WHERE rv.product_id = $1 AND rv.is_ai`

	ctx, end := database.TraceQuery(ctx, "GetAIReview", query)
	defer func() { end(err) }()

	rv, err := scanReview(r.pool.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("AI review", "")
		}
		return nil, err
	}
	return rv, nil
}

// GetByID retrieves a review by its unique identifier.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (_ *domain.Review, err error) {
	query := reviewSelect + ` WHERE rv.id = $1`

	ctx, end := database.TraceQuery(ctx, "GetReview", query)
	defer func() { end(err) }()

	rv, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Review", "")
		}
		return nil, err
	}
	return rv, nil
}

// UpsertAIReview writes the product's single AI review. The conflict target
// is the partial unique index on (product_id) WHERE is_ai; the update only
// applies when the incoming review is at least as new as the stored one.
// When a newer review wins, that review is returned instead.
func (r *ReviewRepository) UpsertAIReview(ctx context.Context, review *domain.Review) (_ *domain.Review, err error) {
	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, comment, is_ai, ai_title,
		                     sentiment_score, replies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, '[]'::jsonb, $8, $9)
		ON CONFLICT (product_id) WHERE is_ai DO UPDATE
		SET rating          = EXCLUDED.rating,
		    comment         = EXCLUDED.comment,
		    ai_title        = EXCLUDED.ai_title,
		    sentiment_score = EXCLUDED.sentiment_score,
		    replies         = '[]'::jsonb,
		    created_at      = EXCLUDED.created_at,
		    updated_at      = EXCLUDED.updated_at
		WHERE reviews.updated_at <= EXCLUDED.updated_at` + reviewReturning

	ctx, end := database.TraceQuery(ctx, "UpsertAIReview", query)
	defer func() { end(err) }()

	stored, err := scanReview(r.pool.QueryRow(ctx, query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Comment,
		review.AITitle,
		review.SentimentScore,
		review.CreatedAt,
		review.UpdatedAt,
	))
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("upsert ai review: %w", err)
	}

	// A concurrent regeneration committed a newer review first.
	return r.GetAIReview(ctx, review.ProductID)
}

// AppendReply appends reply to the review's JSONB reply array in place.
func (r *ReviewRepository) AppendReply(ctx context.Context, reviewID string, reply domain.Reply) (err error) {
	query := `
		UPDATE reviews
		SET replies = replies || jsonb_build_array($2::jsonb), updated_at = NOW()
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "AppendReply", query)
	defer func() { end(err) }()

	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, reviewID, data)
	if err != nil {
		return fmt.Errorf("append reply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("Review", "")
	}

	return nil
}

// RecomputeAverage recalculates and stores the product's average rating.
func (r *ReviewRepository) RecomputeAverage(ctx context.Context, productID string) (_ float64, err error) {
	ctx, end := database.TraceQuery(ctx, "RecomputeAverage", recomputeAverage)
	defer func() { end(err) }()

	var avg float64
	if err = r.pool.QueryRow(ctx, recomputeAverage, productID).Scan(&avg); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("Product", "")
		}
		return 0, fmt.Errorf("recompute average rating: %w", err)
	}

	return avg, nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		rv         domain.Review
		authorName *string
		replies    []byte
	)
	err := row.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&authorName,
		&rv.Rating,
		&rv.Comment,
		&rv.IsAI,
		&rv.AITitle,
		&rv.SentimentScore,
		&replies,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan review row: %w", err)
	}

	if rv.UserID != nil && authorName != nil {
		rv.Author = &domain.Author{ID: *rv.UserID, Name: *authorName}
	}

	rv.Replies = []domain.Reply{}
	if len(replies) > 0 {
		if err := json.Unmarshal(replies, &rv.Replies); err != nil {
			return nil, fmt.Errorf("unmarshal replies: %w", err)
		}
	}

	return &rv, nil
}

func marshalReplies(replies []domain.Reply) ([]byte, error) {
	if replies == nil {
		replies = []domain.Reply{}
	}
	data, err := json.Marshal(replies)
	if err != nil {
		return nil, fmt.Errorf("marshal replies: %w", err)
	}
	return data, nil
}
