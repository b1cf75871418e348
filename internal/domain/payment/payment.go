// Package payment models the payment allocations declared against an order
// and the reconciliation of their sum with the order total.
package payment

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported payment instruments.
type Kind string

const (
	KindCash   Kind = "dinheiro"
	KindPix    Kind = "pix"
	KindDebit  Kind = "debito"
	KindCredit Kind = "credito"
	KindBoleto Kind = "boleto"
)

// ErrUnknownKind is returned when decoding an allocation with an
// unrecognized kind discriminator.
var ErrUnknownKind = errors.New("unknown payment kind")

// ParseKind validates a wire value.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindCash, KindPix, KindDebit, KindCredit, KindBoleto:
		return Kind(s), nil
	}
	return "", errors.Wrapf(ErrUnknownKind, "%q", s)
}

// Detail carries the kind-specific payload of an allocation. Exactly one
// concrete type corresponds to each group of kinds.
type Detail interface {
	isDetail()
}

// CreditDetail is attached to credit card allocations.
type CreditDetail struct {
	Gateway      string `json:"gateway,omitempty"`
	Installments int    `json:"installments"`
}

// BoletoDetail is attached to bill-of-exchange allocations. DueDate uses
// the vendor's dd/mm/aaaa convention and is passed through as entered.
type BoletoDetail struct {
	DueDays string `json:"dueDays,omitempty"`
	DueDate string `json:"dueDate,omitempty"`
	Note    string `json:"note,omitempty"`
}

// SimpleDetail is attached to cash, pix and debit allocations.
type SimpleDetail struct {
	Note string `json:"note,omitempty"`
}

func (CreditDetail) isDetail() {}
func (BoletoDetail) isDetail() {}
func (SimpleDetail) isDetail() {}

// Allocation is a single declared payment against the order total. The
// Detail field holds the kind-specific payload; an allocation whose Kind
// and Detail disagree is invalid.
type Allocation struct {
	ID     int
	Kind   Kind
	Amount decimal.Decimal
	Detail Detail
}

// NewAllocation builds an allocation with the default detail for its kind.
func NewAllocation(kind Kind, amount decimal.Decimal) Allocation {
	return Allocation{Kind: kind, Amount: amount, Detail: defaultDetail(kind)}
}

func defaultDetail(kind Kind) Detail {
	switch kind {
	case KindCredit:
		return CreditDetail{Installments: 1}
	case KindBoleto:
		return BoletoDetail{}
	default:
		return SimpleDetail{}
	}
}

// Note returns the free-form note regardless of kind.
func (a Allocation) Note() string {
	switch d := a.Detail.(type) {
	case BoletoDetail:
		return d.Note
	case SimpleDetail:
		return d.Note
	default:
		return ""
	}
}

// allocationJSON is the persisted wire shape. The kind string discriminates
// which detail fields are meaningful.
type allocationJSON struct {
	ID     int             `json:"id"`
	Kind   string          `json:"kind"`
	Amount decimal.Decimal `json:"amount"`

	Gateway      string `json:"gateway,omitempty"`
	Installments int    `json:"installments,omitempty"`
	DueDays      string `json:"dueDays,omitempty"`
	DueDate      string `json:"dueDate,omitempty"`
	Note         string `json:"note,omitempty"`
}

// MarshalJSON flattens the tagged union into the discriminated wire shape.
func (a Allocation) MarshalJSON() ([]byte, error) {
	out := allocationJSON{ID: a.ID, Kind: string(a.Kind), Amount: a.Amount}
	switch d := a.Detail.(type) {
	case CreditDetail:
		out.Gateway = d.Gateway
		out.Installments = d.Installments
	case BoletoDetail:
		out.DueDays = d.DueDays
		out.DueDate = d.DueDate
		out.Note = d.Note
	case SimpleDetail:
		out.Note = d.Note
	}
	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the tagged union from the wire shape, rejecting
// unknown kinds.
func (a *Allocation) UnmarshalJSON(data []byte) error {
	var raw allocationJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return err
	}
	a.ID = raw.ID
	a.Kind = kind
	a.Amount = raw.Amount
	switch kind {
	case KindCredit:
		if raw.Installments <= 0 {
			raw.Installments = 1
		}
		a.Detail = CreditDetail{Gateway: raw.Gateway, Installments: raw.Installments}
	case KindBoleto:
		a.Detail = BoletoDetail{DueDays: raw.DueDays, DueDate: raw.DueDate, Note: raw.Note}
	default:
		a.Detail = SimpleDetail{Note: raw.Note}
	}
	return nil
}
