package handler

import (
	"net/http"

	"github.com/xenking/shelf-proposal-api/internal/domain/client"
	"github.com/xenking/shelf-proposal-api/internal/domain/proposal"
)

type saveProposalRequest struct {
	Client client.Client `json:"client"`
	EditID string        `json:"editId"`
	Status string        `json:"status"`
}

// SaveProposal snapshots the live cart into a proposal. With editId set
// it overwrites the named proposal, otherwise a new one is created. The
// cart is cleared on success.
func (h *Handler) SaveProposal(w http.ResponseWriter, r *http.Request) {
	var req saveProposalRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Status != "" && !proposal.ValidStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "unknown proposal status")
		return
	}
	sess := SessionFromContext(r.Context())
	p, err := h.proposals.Save(r.Context(), sess, proposal.SaveRequest{
		Client: req.Client,
		EditID: req.EditID,
		Status: req.Status,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	status := http.StatusCreated
	if req.EditID != "" {
		status = http.StatusOK
	}
	respondJSON(w, status, p)
}

// ListProposals returns the caller's proposals, newest first.
func (h *Handler) ListProposals(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	list, err := h.proposals.List(r.Context(), sess)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if list == nil {
		list = []proposal.Proposal{}
	}
	respondJSON(w, http.StatusOK, list)
}

type updateProposalRequest struct {
	Status string `json:"status"`
}

// UpdateProposalStatus moves a proposal through its lifecycle.
func (h *Handler) UpdateProposalStatus(w http.ResponseWriter, r *http.Request) {
	var req updateProposalRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if !proposal.ValidStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "unknown proposal status")
		return
	}
	sess := SessionFromContext(r.Context())
	p, err := h.proposals.SetStatus(r.Context(), sess, r.PathValue("id"), req.Status)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DeleteProposal removes a proposal permanently.
func (h *Handler) DeleteProposal(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := h.proposals.Delete(r.Context(), sess, r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
