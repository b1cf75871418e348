package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/xenking/shelf-proposal-api/internal/domain/cart"
	"github.com/xenking/shelf-proposal-api/internal/domain/payment"
)

// cartView is the cart response shape: the stored state plus the totals
// recomputed for this response.
type cartView struct {
	Items         []cart.LineItem      `json:"items"`
	Mode          cart.DiscountMode    `json:"mode"`
	GlobalPercent decimal.Decimal      `json:"globalPercent"`
	Payments      []payment.Allocation `json:"payments"`
	Totals        cart.Totals          `json:"totals"`
}

func newCartView(c *cart.Cart) cartView {
	items := c.Items
	if items == nil {
		items = []cart.LineItem{}
	}
	payments := c.Payments
	if payments == nil {
		payments = []payment.Allocation{}
	}
	return cartView{
		Items:         items,
		Mode:          c.Mode,
		GlobalPercent: cart.ClampPercent(c.GlobalPercent),
		Payments:      payments,
		Totals:        c.Totals(),
	}
}

func (h *Handler) loadCart(r *http.Request) (*cart.Cart, string, error) {
	key := SessionFromContext(r.Context()).Key()
	c, err := h.carts.Get(r.Context(), key)
	return c, key, err
}

func (h *Handler) respondCart(w http.ResponseWriter, r *http.Request, key string, c *cart.Cart) {
	if err := h.carts.Save(r.Context(), key, c); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartView(c))
}

// GetCart returns the caller's cart with fresh totals.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, _, err := h.loadCart(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartView(c))
}

type addItemRequest struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

// AddItem adds a catalog product to the cart, merging quantities when the
// SKU is already present. Price and display fields are snapshotted from
// the catalog at add time.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.SKU == "" {
		respondError(w, http.StatusBadRequest, "sku is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		respondError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	p, err := h.products.GetBySKU(r.Context(), req.SKU)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	c, key, err := h.loadCart(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	c.AddItem(cart.LineItem{
		SKU:       p.SKU,
		Quantity:  req.Quantity,
		UnitPrice: p.Price,
		Name:      p.DisplayName(),
		Brand:     p.Brand,
		ImageURL:  p.ImageURL,
	})
	h.respondCart(w, r, key, c)
}

type updateItemRequest struct {
	Quantity        *int             `json:"quantity"`
	DiscountPercent *decimal.Decimal `json:"discountPercent"`
}

// UpdateItem patches a line's quantity or per-item discount percent. A
// quantity of zero removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sku := r.PathValue("sku")
	var req updateItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	c, key, err := h.loadCart(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	item := c.FindItem(sku)
	if item == nil {
		respondError(w, http.StatusNotFound, "item not in cart")
		return
	}

	if req.Quantity != nil {
		switch {
		case *req.Quantity < 0:
			respondError(w, http.StatusBadRequest, "quantity must not be negative")
			return
		case *req.Quantity == 0:
			c.RemoveItem(sku)
		default:
			item.Quantity = *req.Quantity
		}
	}
	if req.DiscountPercent != nil {
		c.SetItemDiscount(sku, *req.DiscountPercent)
	}
	h.respondCart(w, r, key, c)
}

// RemoveItem deletes a line from the cart. Removing an absent SKU is a
// no-op, not an error.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, key, err := h.loadCart(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	c.RemoveItem(r.PathValue("sku"))
	h.respondCart(w, r, key, c)
}

type setDiscountRequest struct {
	Mode          string           `json:"mode"`
	GlobalPercent *decimal.Decimal `json:"globalPercent"`
}

// SetDiscount switches the discount mode and optionally the global
// percent. Per-item percents are kept when switching modes so the user
// can toggle back without losing them.
func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req setDiscountRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	c, key, err := h.loadCart(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if req.Mode != "" {
		c.SetMode(cart.ParseMode(req.Mode))
	}
	if req.GlobalPercent != nil {
		c.SetGlobalPercent(*req.GlobalPercent)
	}
	h.respondCart(w, r, key, c)
}

// AddPayment appends a payment allocation. The body is the discriminated
// allocation shape; the server assigns the ID.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var alloc payment.Allocation
	if err := decodeBody(r, &alloc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payment")
		return
	}
	if alloc.Amount.IsNegative() {
		respondError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}

	c, key, err := h.loadCart(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	c.AddPayment(alloc)
	h.respondCart(w, r, key, c)
}

// UpdatePayment replaces an existing allocation in place, keyed by the
// path ID. The body's ID field is ignored.
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid payment id")
		return
	}
	var alloc payment.Allocation
	if err := decodeBody(r, &alloc); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payment")
		return
	}
	if alloc.Amount.IsNegative() {
		respondError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}
	alloc.ID = id

	c, key, err := h.loadCart(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	if !c.UpdatePayment(alloc) {
		respondError(w, http.StatusNotFound, "payment not found")
		return
	}
	h.respondCart(w, r, key, c)
}

// RemovePayment deletes an allocation. Absent IDs are a no-op.
func (h *Handler) RemovePayment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid payment id")
		return
	}
	c, key, err := h.loadCart(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	c.RemovePayment(id)
	h.respondCart(w, r, key, c)
}

// summaryView reports the reconciliation state of the declared payments
// against the current cart totals.
type summaryView struct {
	Totals   cart.Totals     `json:"totals"`
	Payments payment.Summary `json:"payments"`
	Balanced bool            `json:"balanced"`
	Status   payment.Status  `json:"status"`
}

// GetSummary returns the cart totals together with the payment
// reconciliation summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	c, _, err := h.loadCart(r)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	totals := c.Totals()
	sum := payment.Reconcile(c.Payments, totals.NetTotal)
	respondJSON(w, http.StatusOK, summaryView{
		Totals:   totals,
		Payments: sum,
		Balanced: sum.Balanced(totals.NetTotal),
		Status:   payment.DecideStatus(c.Payments),
	})
}
