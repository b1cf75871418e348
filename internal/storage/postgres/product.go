package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shelf-proposal-api/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// GetBySKU looks up a catalog item. Returns product.ErrNotFound when the
// SKU is unknown.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*product.Product, error) {
	const q = `
		SELECT sku, name, description, title, brand, price, image_url
		FROM products
		WHERE sku = $1`

	var p product.Product
	err := r.pool.QueryRow(ctx, q, sku).Scan(
		&p.SKU, &p.Name, &p.Description, &p.Title, &p.Brand, &p.Price, &p.ImageURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", sku, err)
	}
	return &p, nil
}

// Upsert inserts or replaces a catalog item.
func (r *ProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	const q = `
		INSERT INTO products (sku, name, description, title, brand, price, image_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (sku) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			title = EXCLUDED.title,
			brand = EXCLUDED.brand,
			price = EXCLUDED.price,
			image_url = EXCLUDED.image_url,
			updated_at = now()`

	_, err := r.pool.Exec(ctx, q, p.SKU, p.Name, p.Description, p.Title, p.Brand, p.Price, p.ImageURL)
	if err != nil {
		return fmt.Errorf("upserting product %q: %w", p.SKU, err)
	}
	return nil
}
