package payment

import "github.com/shopspring/decimal"

// Tolerance is the maximum accepted gap between the allocated sum and the
// order total. Amounts entered by hand accumulate rounding at currency
// precision, so reconciliation compares within a small epsilon rather than
// for exact equality.
var Tolerance = decimal.RequireFromString("0.02")

// Status is the settlement state assigned to a submitted order.
type Status string

const (
	// StatusOpen marks orders that include a deferred instrument (boleto)
	// and therefore need manual financial follow-up.
	StatusOpen Status = "open"
	// StatusApproved marks orders fully covered by immediate instruments.
	StatusApproved Status = "approved"
)

// Summary is the result of reconciling declared allocations against the
// order's net total.
type Summary struct {
	AllocatedTotal decimal.Decimal `json:"allocatedTotal"`
	BalanceDue     decimal.Decimal `json:"balanceDue"`
	ChangeDue      decimal.Decimal `json:"changeDue"`
}

// Reconcile sums the allocations and derives the outstanding balance and
// the change owed. At most one of BalanceDue and ChangeDue is positive;
// both are zero exactly when the allocated sum equals the net total.
func Reconcile(allocs []Allocation, netTotal decimal.Decimal) Summary {
	allocated := decimal.Zero
	for _, a := range allocs {
		allocated = allocated.Add(a.Amount)
	}
	balance := netTotal.Sub(allocated)
	change := allocated.Sub(netTotal)
	if balance.IsNegative() {
		balance = decimal.Zero
	}
	if change.IsNegative() {
		change = decimal.Zero
	}
	return Summary{AllocatedTotal: allocated, BalanceDue: balance, ChangeDue: change}
}

// Balanced reports whether the allocated sum matches the net total within
// Tolerance. The check is always enforced, including for single-allocation
// payments.
func (s Summary) Balanced(netTotal decimal.Decimal) bool {
	return s.AllocatedTotal.Sub(netTotal).Abs().LessThanOrEqual(Tolerance)
}

// DefaultAllocations substitutes the legacy single-payment flow: an empty
// allocation set at submission time becomes one cash allocation covering
// the full net total.
func DefaultAllocations(allocs []Allocation, netTotal decimal.Decimal) []Allocation {
	if len(allocs) > 0 {
		return allocs
	}
	a := NewAllocation(KindCash, netTotal)
	a.ID = 1
	return []Allocation{a}
}

// DecideStatus returns StatusOpen when any allocation is a boleto,
// regardless of the other instruments present, and StatusApproved
// otherwise.
func DecideStatus(allocs []Allocation) Status {
	for _, a := range allocs {
		if a.Kind == KindBoleto {
			return StatusOpen
		}
	}
	return StatusApproved
}
