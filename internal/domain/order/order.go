// Package order implements order submission: validation, payment
// reconciliation, the outbound ERP payload, and the durable snapshot
// recorded after the ERP confirms.
package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/shelf-proposal-api/internal/domain/cart"
	"github.com/xenking/shelf-proposal-api/internal/domain/client"
	"github.com/xenking/shelf-proposal-api/internal/domain/payment"
	"github.com/xenking/shelf-proposal-api/internal/domain/seller"
	"github.com/xenking/shelf-proposal-api/internal/erp"
)

// Sentinel errors for submission validation.
var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrNotFound  = errors.New("order not found")
	// ErrSubmissionInFlight rejects a second concurrent submission from
	// the same session.
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

// ReconciliationError blocks submission when the declared payments do not
// cover the order total within payment.Tolerance.
type ReconciliationError struct {
	Allocated  string
	NetTotal   string
	BalanceDue string
}

func (e *ReconciliationError) Error() string {
	return "payments (" + e.Allocated + ") do not match order total (" + e.NetTotal + ")"
}

// Order is the snapshot persisted after the ERP accepts the submission.
// Payload and Confirmation retain the exact bytes exchanged with the ERP.
type Order struct {
	Number         string               `json:"number"`
	Status         payment.Status       `json:"status"`
	ClientSnapshot client.Client        `json:"clientSnapshot"`
	Items          []cart.LineItem      `json:"items"`
	Totals         cart.Totals          `json:"totals"`
	Payments       []payment.Allocation `json:"payments"`
	Payload        *erp.OrderPayload    `json:"payload"`
	Confirmation   json.RawMessage      `json:"confirmation"`
	ERPNumber      string               `json:"erpNumber"`
	Seller         *seller.Seller       `json:"seller"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// Repository persists order snapshots keyed by seller key + order number.
type Repository interface {
	Put(ctx context.Context, sellerKey string, o *Order) error
	Get(ctx context.Context, sellerKey, number string) (*Order, error)
	ListBySeller(ctx context.Context, sellerKey string) ([]Order, error)
}
