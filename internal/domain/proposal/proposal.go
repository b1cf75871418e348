// Package proposal manages saved quote records: a client snapshot plus the
// cart contents and totals at save time, keyed by seller.
package proposal

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/shelf-proposal-api/internal/domain/cart"
	"github.com/xenking/shelf-proposal-api/internal/domain/client"
	"github.com/xenking/shelf-proposal-api/internal/domain/seller"
)

// Proposal statuses as shown on the proposals screen.
const (
	StatusDraft    = "rascunho"
	StatusSent     = "enviado"
	StatusApproved = "aprovado"
	StatusRejected = "reprovado"
)

// ValidStatus reports whether s is one of the known proposal statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ErrNotFound is returned when a proposal id does not exist under the
// given seller key.
var ErrNotFound = errors.New("proposal not found")

// ErrEmptyCart blocks saving a proposal with no items.
var ErrEmptyCart = errors.New("cart is empty")

// Proposal is the persisted quote record. Items and Totals are snapshots:
// editing the live cart later does not change a saved proposal.
type Proposal struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	ClientSnapshot client.Client   `json:"clientSnapshot"`
	Items          []cart.LineItem `json:"items"`
	Totals         cart.Totals     `json:"totals"`
	Seller         *seller.Seller  `json:"seller"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt,omitempty"`
}

// Repository persists proposals partitioned by seller key.
type Repository interface {
	Create(ctx context.Context, sellerKey string, p *Proposal) error
	Update(ctx context.Context, sellerKey string, p *Proposal) error
	Delete(ctx context.Context, sellerKey, id string) error
	Get(ctx context.Context, sellerKey, id string) (*Proposal, error)
	ListBySeller(ctx context.Context, sellerKey string) ([]Proposal, error)
}
