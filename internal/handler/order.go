package handler

import (
	"net/http"

	"github.com/xenking/shelf-proposal-api/internal/domain/client"
	"github.com/xenking/shelf-proposal-api/internal/domain/order"
)

type submitOrderRequest struct {
	Client  client.Client `json:"client"`
	Note    string        `json:"note"`
	Markers []string      `json:"markers"`
}

// SubmitOrder submits the live cart to the ERP. Reconciliation failures,
// a busy seller session and provider rejections map to distinct statuses
// via respondDomainError.
func (h *Handler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	sess := SessionFromContext(r.Context())
	o, err := h.orders.Submit(r.Context(), sess, order.SubmitRequest{
		Client:  req.Client,
		Note:    req.Note,
		Markers: req.Markers,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, o)
}

// ListOrders returns the caller's submitted orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	list, err := h.orders.List(r.Context(), sess)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []order.Order{}
	}
	respondJSON(w, http.StatusOK, list)
}

// GetOrder returns a single submitted order by its local number.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	o, err := h.orders.Get(r.Context(), sess, r.PathValue("number"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}
