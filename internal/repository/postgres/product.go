package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/database"
	apperrors "github.com/Zarakkhan-dev/automated-review-system/pkg/errors"
)

const productColumns = `id, name, description, image_url, price::float8, average_rating, created_at, updated_at`

// ProductRepository implements product persistence operations using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product into the database.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (id, name, description, image_url, price, average_rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.ImageURL,
		p.Price,
		p.AverageRating,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its unique identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (_ *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	var p domain.Product
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.ImageURL,
		&p.Price,
		&p.AverageRating,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Product", "")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// List returns a page of products, newest first, along with the total count.
func (r *ProductRepository) List(ctx context.Context, offset, limit int) (_ []domain.Product, _ int, err error) {
	query := `
		SELECT ` + productColumns + `, count(*) OVER() AS total_count
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)
	for rows.Next() {
		var p domain.Product
		if err = rows.Scan(
			&p.ID,
			&p.Name,
			&p.Description,
			&p.ImageURL,
			&p.Price,
			&p.AverageRating,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// ListHealth compares every product's stored average with the average its
// user reviews imply, and reports whether an AI review exists.
func (r *ProductRepository) ListHealth(ctx context.Context) (_ []domain.ProductHealth, err error) {
	query := `
		SELECT p.id, p.name, p.average_rating,
		       COALESCE(ROUND((AVG(rv.rating) FILTER (WHERE NOT rv.is_ai))::numeric, 1), 0)::float8,
		       COUNT(rv.id) FILTER (WHERE NOT rv.is_ai),
		       COALESCE(BOOL_OR(rv.is_ai), false)
		FROM products p
		LEFT JOIN reviews rv ON rv.product_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at`

	ctx, end := database.TraceQuery(ctx, "ListProductHealth", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list product health: %w", err)
	}
	defer rows.Close()

	var out []domain.ProductHealth
	for rows.Next() {
		var h domain.ProductHealth
		if err = rows.Scan(
			&h.ProductID,
			&h.ProductName,
			&h.StoredAverage,
			&h.ActualAverage,
			&h.UserReviews,
			&h.HasAIReview,
		); err != nil {
			return nil, fmt.Errorf("scan product health row: %w", err)
		}
		out = append(out, h)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product health rows: %w", err)
	}

	return out, nil
}
