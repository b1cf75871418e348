// Package handler exposes the HTTP API: cart state, proposals, order
// submission, and the auxiliary lookups (catalog, clients, postal codes).
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/shelf-proposal-api/internal/cep"
	"github.com/xenking/shelf-proposal-api/internal/domain/cart"
	"github.com/xenking/shelf-proposal-api/internal/domain/client"
	"github.com/xenking/shelf-proposal-api/internal/domain/order"
	"github.com/xenking/shelf-proposal-api/internal/domain/product"
	"github.com/xenking/shelf-proposal-api/internal/domain/proposal"
	"github.com/xenking/shelf-proposal-api/internal/erp"
)

// Handler carries the domain dependencies behind the HTTP API.
type Handler struct {
	carts     cart.Store
	products  product.Repository
	clients   client.Repository
	proposals *proposal.Service
	orders    *order.Service
	cep       cep.Resolver
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	carts cart.Store,
	products product.Repository,
	clients client.Repository,
	proposals *proposal.Service,
	orders *order.Service,
	cepResolver cep.Resolver,
) *Handler {
	return &Handler{
		carts:     carts,
		products:  products,
		clients:   clients,
		proposals: proposals,
		orders:    orders,
		cep:       cepResolver,
	}
}

// Routes registers every API route on a fresh mux. Auth wrapping happens
// at the app level so the mux stays testable in isolation.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddItem)
	mux.HandleFunc("PATCH /api/cart/items/{sku}", h.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{sku}", h.RemoveItem)
	mux.HandleFunc("PUT /api/cart/discount", h.SetDiscount)
	mux.HandleFunc("POST /api/cart/payments", h.AddPayment)
	mux.HandleFunc("PUT /api/cart/payments/{id}", h.UpdatePayment)
	mux.HandleFunc("DELETE /api/cart/payments/{id}", h.RemovePayment)
	mux.HandleFunc("GET /api/cart/summary", h.GetSummary)

	mux.HandleFunc("GET /api/products/{sku}", h.GetProduct)
	mux.HandleFunc("GET /api/clients/{taxId}", h.GetClient)
	mux.HandleFunc("PUT /api/clients/{taxId}", h.UpsertClient)
	mux.HandleFunc("GET /api/address/{cep}", h.LookupAddress)

	mux.HandleFunc("POST /api/proposals", h.SaveProposal)
	mux.HandleFunc("GET /api/proposals", h.ListProposals)
	mux.HandleFunc("PATCH /api/proposals/{id}", h.UpdateProposalStatus)
	mux.HandleFunc("DELETE /api/proposals/{id}", h.DeleteProposal)

	mux.HandleFunc("POST /api/orders", h.SubmitOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{number}", h.GetOrder)

	return mux
}

// errorResponse is the JSON error envelope shared by every route.
type errorResponse struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string, details ...string) {
	respondJSON(w, status, errorResponse{Code: status, Message: msg, Details: details})
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses.
// Unknown errors become 500 after being logged; their text is not leaked.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *client.ValidationError
		reconcileErr  *order.ReconciliationError
		rejectionErr  *erp.RejectionError
		transportErr  *erp.TransportError
	)

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.As(err, &reconcileErr):
		respondError(w, http.StatusUnprocessableEntity, reconcileErr.Error())
	case errors.Is(err, order.ErrEmptyCart) || errors.Is(err, proposal.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, order.ErrSubmissionInFlight):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, client.ErrNotFound),
		errors.Is(err, proposal.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, cep.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cep.ErrInvalidCEP):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &rejectionErr):
		// The provider's error list travels to the user verbatim.
		respondError(w, http.StatusBadGateway, "order rejected by ERP", rejectionErr.Messages...)
	case errors.As(err, &transportErr):
		respondError(w, http.StatusServiceUnavailable, "ERP unreachable, try again")
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
