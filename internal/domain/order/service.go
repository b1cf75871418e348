package order

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/shelf-proposal-api/internal/domain/cart"
	"github.com/xenking/shelf-proposal-api/internal/domain/client"
	"github.com/xenking/shelf-proposal-api/internal/domain/payment"
	"github.com/xenking/shelf-proposal-api/internal/domain/seller"
	"github.com/xenking/shelf-proposal-api/internal/erp"
)

// ServiceConfig holds the submission policy knobs.
type ServiceConfig struct {
	// EcommerceID is the fixed channel identifier sent with every order.
	EcommerceID string
	// PixChannel is the settlement channel tag forced onto pix
	// installments.
	PixChannel string
	// BoletoChannel is the settlement channel tag forced onto boleto
	// installments. It is never user-visible.
	BoletoChannel string
	// DefaultNote is used when the request carries no note.
	DefaultNote string
}

// SubmitRequest is the input for submitting the live cart as an order.
type SubmitRequest struct {
	Client  client.Client
	Note    string
	Markers []string
}

// Service orchestrates order submission end to end.
type Service struct {
	cfg       ServiceConfig
	carts     cart.Store
	clients   client.Repository
	orders    Repository
	submitter erp.Submitter
	now       func() time.Time

	// inFlight holds the seller keys with a submission in progress. The
	// busy flag is per-process and non-reentrant, enough to stop a double
	// click from the same session; it is not a distributed lock.
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates an order Service.
func NewService(
	cfg ServiceConfig,
	carts cart.Store,
	clients client.Repository,
	orders Repository,
	submitter erp.Submitter,
) *Service {
	return &Service{
		cfg:       cfg,
		carts:     carts,
		clients:   clients,
		orders:    orders,
		submitter: submitter,
		now:       time.Now,
		inFlight:  make(map[string]struct{}),
	}
}

func (s *Service) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *Service) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, key)
}

// Submit validates the cart and client, reconciles payments, submits the
// order to the ERP, records the snapshot and clears the cart.
//
// Ordering matters at the tail: the snapshot is written before the cart is
// cleared, so a failed snapshot write never silently discards the cart.
// Any failure before or during ERP submission leaves all local state
// intact for retry.
func (s *Service) Submit(ctx context.Context, sess seller.Session, req SubmitRequest) (*Order, error) {
	key := sess.Key()
	if !s.acquire(key) {
		return nil, ErrSubmissionInFlight
	}
	defer s.release(key)

	if err := req.Client.Validate(); err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(err, "load cart")
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	totals := c.Totals()
	allocs := payment.DefaultAllocations(c.Payments, totals.NetTotal)

	// Reconciliation is a hard precondition: no network call is made while
	// the declared payments do not balance the total.
	summary := payment.Reconcile(allocs, totals.NetTotal)
	if !summary.Balanced(totals.NetTotal) {
		return nil, &ReconciliationError{
			Allocated:  summary.AllocatedTotal.StringFixed(2),
			NetTotal:   totals.NetTotal.StringFixed(2),
			BalanceDue: summary.BalanceDue.StringFixed(2),
		}
	}

	status := payment.DecideStatus(allocs)
	number := s.orderNumber(sess)
	payload := s.buildPayload(sess, req, c, totals, allocs, status, number)

	conf, err := s.submitter.Submit(ctx, payload)
	if err != nil {
		// Rejections and network failures alike: state stays untouched.
		return nil, err
	}

	o := &Order{
		Number:         number,
		Status:         status,
		ClientSnapshot: req.Client,
		Items:          c.Items,
		Totals:         totals,
		Payments:       allocs,
		Payload:        payload,
		Confirmation:   conf.Raw,
		ERPNumber:      conf.Number,
		Seller:         sess.Seller,
		CreatedAt:      s.now(),
	}
	if err := s.orders.Put(ctx, key, o); err != nil {
		return nil, errors.Wrap(err, "persist order snapshot")
	}

	// Client profile upsert after confirmation is best effort: the order
	// is already durable, a stale profile only affects the next autofill.
	_ = s.clients.Upsert(ctx, req.Client.TaxKey(), &req.Client)

	if err := s.carts.Clear(ctx, key); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	return o, nil
}

// List returns the seller's submitted orders, newest first.
func (s *Service) List(ctx context.Context, sess seller.Session) ([]Order, error) {
	return s.orders.ListBySeller(ctx, sess.Key())
}

// Get returns a single submitted order.
func (s *Service) Get(ctx context.Context, sess seller.Session, number string) (*Order, error) {
	return s.orders.Get(ctx, sess.Key(), number)
}
