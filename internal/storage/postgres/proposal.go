package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/shelf-proposal-api/internal/domain/proposal"
)

var _ proposal.Repository = (*ProposalRepository)(nil)

// ProposalRepository implements proposal.Repository backed by PostgreSQL.
// The record column holds the complete proposal snapshot as JSONB; status
// and timestamps are mirrored into columns for listing.
type ProposalRepository struct {
	pool *pgxpool.Pool
}

// NewProposalRepository returns a ProposalRepository that uses the given pool.
func NewProposalRepository(pool *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{pool: pool}
}

// Create inserts a new proposal under the seller key.
func (r *ProposalRepository) Create(ctx context.Context, sellerKey string, p *proposal.Proposal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding proposal %q: %w", p.ID, err)
	}

	const q = `
		INSERT INTO proposals (seller_key, id, status, record, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.pool.Exec(ctx, q, sellerKey, p.ID, p.Status, raw, p.CreatedAt); err != nil {
		return fmt.Errorf("creating proposal %q: %w", p.ID, err)
	}
	return nil
}

// Update replaces an existing proposal. Returns proposal.ErrNotFound when
// no row matched.
func (r *ProposalRepository) Update(ctx context.Context, sellerKey string, p *proposal.Proposal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding proposal %q: %w", p.ID, err)
	}

	const q = `
		UPDATE proposals
		SET status = $3, record = $4, updated_at = now()
		WHERE seller_key = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, q, sellerKey, p.ID, p.Status, raw)
	if err != nil {
		return fmt.Errorf("updating proposal %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return proposal.ErrNotFound
	}
	return nil
}

// Delete removes a proposal. Returns proposal.ErrNotFound when no row
// matched.
func (r *ProposalRepository) Delete(ctx context.Context, sellerKey, id string) error {
	const q = `DELETE FROM proposals WHERE seller_key = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, q, sellerKey, id)
	if err != nil {
		return fmt.Errorf("deleting proposal %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return proposal.ErrNotFound
	}
	return nil
}

// Get loads a single proposal.
func (r *ProposalRepository) Get(ctx context.Context, sellerKey, id string) (*proposal.Proposal, error) {
	const q = `SELECT record FROM proposals WHERE seller_key = $1 AND id = $2`

	var raw []byte
	if err := r.pool.QueryRow(ctx, q, sellerKey, id).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, proposal.ErrNotFound
		}
		return nil, fmt.Errorf("getting proposal %q: %w", id, err)
	}

	var p proposal.Proposal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decoding proposal %q: %w", id, err)
	}
	return &p, nil
}

// ListBySeller returns the seller's proposals, newest first.
func (r *ProposalRepository) ListBySeller(ctx context.Context, sellerKey string) ([]proposal.Proposal, error) {
	const q = `
		SELECT record FROM proposals
		WHERE seller_key = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, q, sellerKey)
	if err != nil {
		return nil, fmt.Errorf("listing proposals for %q: %w", sellerKey, err)
	}
	defer rows.Close()

	var out []proposal.Proposal
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning proposal row: %w", err)
		}
		var p proposal.Proposal
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decoding proposal row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating proposals: %w", err)
	}
	return out, nil
}
