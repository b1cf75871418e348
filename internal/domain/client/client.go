// Package client models the customer profile captured with a proposal or
// order: identity, contact and billing/shipping addresses.
package client

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no profile exists for a tax key. Callers
// that autofill forms treat it as a soft miss, not a failure.
var ErrNotFound = errors.New("client not found")

// ValidationError is a user-correctable input problem. It blocks the
// triggering action and is shown inline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Address is a Brazilian street address as captured from CEP lookup plus
// manual completion.
type Address struct {
	CEP        string `json:"cep"`
	Street     string `json:"street"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	Number     string `json:"number"`
	Complement string `json:"complement"`
}

// Client is the customer profile. ShippingAddress is set only when
// DifferentDelivery is true.
type Client struct {
	Name              string   `json:"name"`
	PersonType        string   `json:"personType"`
	TaxID             string   `json:"taxId"`
	Phone             string   `json:"phone"`
	Email             string   `json:"email"`
	DifferentDelivery bool     `json:"differentDelivery"`
	BillingAddress    Address  `json:"billingAddress"`
	ShippingAddress   *Address `json:"shippingAddress,omitempty"`
}

// Repository persists client profiles keyed by the sanitized tax id.
type Repository interface {
	Get(ctx context.Context, taxKey string) (*Client, error)
	Upsert(ctx context.Context, taxKey string, c *Client) error
}

// OnlyDigits strips every non-digit rune.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TaxKey is the persistence key derived from a CPF/CNPJ: digits only.
func (c *Client) TaxKey() string {
	return OnlyDigits(c.TaxID)
}

// Validate enforces the minimum data required before a proposal save or
// order submission: a real name and a plausible tax id (CPF has 11 digits,
// CNPJ has 14; 11 is the floor).
func (c *Client) Validate() error {
	if len(strings.TrimSpace(c.Name)) < 2 {
		return &ValidationError{Field: "name", Message: "name must have at least 2 characters"}
	}
	if len(c.TaxKey()) < 11 {
		return &ValidationError{Field: "taxId", Message: "tax id must have at least 11 digits"}
	}
	return nil
}

// VendorPersonType maps the captured person type onto the ERP's one-letter
// convention: J for legal entities, F for natural persons (the default).
func VendorPersonType(personType string) string {
	s := strings.ToLower(strings.TrimSpace(personType))
	if strings.Contains(s, "jur") || s == "pj" || s == "j" {
		return "J"
	}
	return "F"
}
