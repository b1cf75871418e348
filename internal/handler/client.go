package handler

import (
	"net/http"

	"github.com/xenking/shelf-proposal-api/internal/domain/client"
)

// GetProduct returns a single catalog entry by SKU.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetBySKU(r.Context(), r.PathValue("sku"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// GetClient looks up a stored client profile by tax ID. The path value is
// normalized to digits before lookup, so formatted and bare IDs hit the
// same record.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	key := client.OnlyDigits(r.PathValue("taxId"))
	if key == "" {
		respondError(w, http.StatusBadRequest, "invalid tax id")
		return
	}
	cl, err := h.clients.Get(r.Context(), key)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cl)
}

// UpsertClient validates and stores a client profile under its normalized
// tax ID. The path tax ID wins over whatever the body carries.
func (h *Handler) UpsertClient(w http.ResponseWriter, r *http.Request) {
	var cl client.Client
	if err := decodeBody(r, &cl); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	cl.TaxID = r.PathValue("taxId")
	if err := cl.Validate(); err != nil {
		respondDomainError(w, r, err)
		return
	}
	if err := h.clients.Upsert(r.Context(), cl.TaxKey(), &cl); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cl)
}

// LookupAddress resolves a postal code through the address provider.
func (h *Handler) LookupAddress(w http.ResponseWriter, r *http.Request) {
	addr, err := h.cep.Lookup(r.Context(), r.PathValue("cep"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, addr)
}
