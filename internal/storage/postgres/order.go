package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shelf-proposal-api/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Each
// snapshot is one JSONB record keyed by (seller_key, order_number).
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Put stores an order snapshot. A replay with the same number overwrites
// the previous snapshot rather than failing.
func (r *OrderRepository) Put(ctx context.Context, sellerKey string, o *order.Order) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encoding order %q: %w", o.Number, err)
	}

	const q = `
		INSERT INTO orders (seller_key, order_number, status, record, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (seller_key, order_number) DO UPDATE SET
			status = EXCLUDED.status,
			record = EXCLUDED.record`

	if _, err := r.pool.Exec(ctx, q, sellerKey, o.Number, string(o.Status), raw, o.CreatedAt); err != nil {
		return fmt.Errorf("storing order %q: %w", o.Number, err)
	}
	return nil
}

// Get loads one order snapshot.
func (r *OrderRepository) Get(ctx context.Context, sellerKey, number string) (*order.Order, error) {
	const q = `SELECT record FROM orders WHERE seller_key = $1 AND order_number = $2`

	var raw []byte
	if err := r.pool.QueryRow(ctx, q, sellerKey, number).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", number, err)
	}

	var o order.Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("decoding order %q: %w", number, err)
	}
	return &o, nil
}

// ListBySeller returns the seller's orders, newest first.
func (r *OrderRepository) ListBySeller(ctx context.Context, sellerKey string) ([]order.Order, error) {
	const q = `
		SELECT record FROM orders
		WHERE seller_key = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, sellerKey)
	if err != nil {
		return nil, fmt.Errorf("listing orders for %q: %w", sellerKey, err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		var o order.Order
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("decoding order row: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}
	return out, nil
}
