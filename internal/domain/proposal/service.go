package proposal

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/shelf-proposal-api/internal/domain/cart"
	"github.com/xenking/shelf-proposal-api/internal/domain/client"
	"github.com/xenking/shelf-proposal-api/internal/domain/seller"
)

// SaveRequest is the input for saving a proposal from the live cart.
type SaveRequest struct {
	Client client.Client
	// EditID updates an existing proposal instead of creating a new one.
	EditID string
	Status string
}

// Service implements the proposal save/update flow.
type Service struct {
	proposals Repository
	clients   client.Repository
	carts     cart.Store
	now       func() time.Time
}

// NewService creates a proposal Service.
func NewService(proposals Repository, clients client.Repository, carts cart.Store) *Service {
	return &Service{
		proposals: proposals,
		clients:   clients,
		carts:     carts,
		now:       time.Now,
	}
}

// Save validates the client, upserts the client profile, snapshots the live
// cart into a proposal record and clears the cart. The cart is cleared only
// after the proposal write succeeded: a failed write must leave the cart
// intact for retry.
func (s *Service) Save(ctx context.Context, sess seller.Session, req SaveRequest) (*Proposal, error) {
	if err := req.Client.Validate(); err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, sess.Key())
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.clients.Upsert(ctx, req.Client.TaxKey(), &req.Client); err != nil {
		return nil, errors.Wrap(err, "upsert client")
	}

	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	now := s.now()
	p := &Proposal{
		Status:         status,
		ClientSnapshot: req.Client,
		Items:          c.Items,
		Totals:         c.Totals(),
		Seller:         sess.Seller,
		CreatedAt:      now,
	}

	if req.EditID != "" {
		p.ID = req.EditID
		p.UpdatedAt = now
		if err := s.proposals.Update(ctx, sess.Key(), p); err != nil {
			return nil, errors.Wrap(err, "update proposal")
		}
	} else {
		p.ID = uuid.New().String()
		if err := s.proposals.Create(ctx, sess.Key(), p); err != nil {
			return nil, errors.Wrap(err, "create proposal")
		}
	}

	if err := s.carts.Clear(ctx, sess.Key()); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	return p, nil
}

// SetStatus updates the status of a saved proposal.
func (s *Service) SetStatus(ctx context.Context, sess seller.Session, id, status string) (*Proposal, error) {
	p, err := s.proposals.Get(ctx, sess.Key(), id)
	if err != nil {
		return nil, err
	}
	p.Status = status
	p.UpdatedAt = s.now()
	if err := s.proposals.Update(ctx, sess.Key(), p); err != nil {
		return nil, errors.Wrap(err, "update proposal")
	}
	return p, nil
}

// Delete removes a saved proposal.
func (s *Service) Delete(ctx context.Context, sess seller.Session, id string) error {
	return s.proposals.Delete(ctx, sess.Key(), id)
}

// List returns the seller's proposals, newest first.
func (s *Service) List(ctx context.Context, sess seller.Session) ([]Proposal, error) {
	return s.proposals.ListBySeller(ctx, sess.Key())
}
