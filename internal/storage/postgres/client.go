package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shelf-proposal-api/internal/domain/client"
)

var _ client.Repository = (*ClientRepository)(nil)

// ClientRepository implements client.Repository backed by PostgreSQL. The
// full profile is stored as one JSONB document per tax key.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository returns a ClientRepository that uses the given pool.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// Get loads a client profile. Returns client.ErrNotFound on a miss.
func (r *ClientRepository) Get(ctx context.Context, taxKey string) (*client.Client, error) {
	const q = `SELECT profile FROM clients WHERE tax_key = $1`

	var raw []byte
	if err := r.pool.QueryRow(ctx, q, taxKey).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, client.ErrNotFound
		}
		return nil, fmt.Errorf("getting client %q: %w", taxKey, err)
	}

	var c client.Client
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decoding client %q: %w", taxKey, err)
	}
	return &c, nil
}

// Upsert stores the full profile under the tax key.
func (r *ClientRepository) Upsert(ctx context.Context, taxKey string, c *client.Client) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding client %q: %w", taxKey, err)
	}

	const q = `
		INSERT INTO clients (tax_key, profile, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (tax_key) DO UPDATE SET
			profile = EXCLUDED.profile,
			updated_at = now()`

	if _, err := r.pool.Exec(ctx, q, taxKey, raw); err != nil {
		return fmt.Errorf("upserting client %q: %w", taxKey, err)
	}
	return nil
}
