package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shelf-proposal-api/internal/domain/auth"
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository provides API key lookups backed by PostgreSQL. The
// owning seller's profile blob is fetched in the same query so a session
// can be resolved in one round trip.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up an API key by its HMAC-SHA256 hash.
// Returns an error wrapping pgx.ErrNoRows when no matching key exists.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.APIKeyInfo, error) {
	const q = `
		SELECT k.id, k.key_hash, k.name, k.seller_id, s.profile
		FROM api_keys k
		JOIN sellers s ON s.id = k.seller_id
		WHERE k.key_hash = $1`

	var info auth.APIKeyInfo
	err := r.pool.QueryRow(ctx, q, hash).Scan(
		&info.ID, &info.KeyHash, &info.Name, &info.SellerID, &info.SellerProfile,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("api key not found: %w", err)
		}
		return nil, fmt.Errorf("finding api key by hash: %w", err)
	}
	return &info, nil
}

// UpsertSeller stores a seller account with its raw profile blob.
func UpsertSeller(ctx context.Context, pool *pgxpool.Pool, id string, profile []byte) error {
	const q = `
		INSERT INTO sellers (id, profile)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET profile = EXCLUDED.profile`

	if _, err := pool.Exec(ctx, q, id, profile); err != nil {
		return fmt.Errorf("upserting seller %q: %w", id, err)
	}
	return nil
}

// UpsertAPIKey stores a hashed API key for a seller.
func UpsertAPIKey(ctx context.Context, pool *pgxpool.Pool, id, keyHash, sellerID, name string) error {
	const q = `
		INSERT INTO api_keys (id, key_hash, seller_id, name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			key_hash = EXCLUDED.key_hash,
			seller_id = EXCLUDED.seller_id,
			name = EXCLUDED.name`

	if _, err := pool.Exec(ctx, q, id, keyHash, sellerID, name); err != nil {
		return fmt.Errorf("upserting api key %q: %w", id, err)
	}
	return nil
}
