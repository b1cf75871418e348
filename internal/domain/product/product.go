// Package product exposes the catalog read model used for cart display
// hydration.
package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested SKU does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item. Name, Description and Title are alternate
// labels kept separately because the catalog feeds fill them unevenly.
type Product struct {
	SKU         string
	Name        string
	Description string
	Title       string
	Brand       string
	Price       decimal.Decimal
	ImageURL    string
}

// DisplayName picks the best available label: name, then description, then
// title. Catalog entries without any usable label still need something to
// show on the cart and order screens.
func (p *Product) DisplayName() string {
	for _, s := range []string{p.Name, p.Description, p.Title} {
		if v := strings.TrimSpace(s); v != "" {
			return v
		}
	}
	return "(sem nome)"
}

// Repository defines catalog persistence. Upsert exists for the ingest and
// seed tools; the API itself only reads.
type Repository interface {
	GetBySKU(ctx context.Context, sku string) (*Product, error)
	Upsert(ctx context.Context, p *Product) error
}
