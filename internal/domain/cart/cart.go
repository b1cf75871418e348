// Package cart holds the cart aggregate: line items, the discount mode
// toggle, and the totals calculator. All monetary math uses decimals.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/shelf-proposal-api/internal/domain/payment"
)

// MaxDiscountPercent is the upper bound for any discount percentage,
// per-item or global.
var MaxDiscountPercent = decimal.RequireFromString("1.5")

// DiscountMode selects how discounts are applied to the cart.
type DiscountMode string

const (
	// ModePerItem applies each line item's own discount percent.
	ModePerItem DiscountMode = "item"
	// ModeGlobal applies a single cart-wide percent to every line,
	// overriding the stored per-item percents without mutating them.
	ModeGlobal DiscountMode = "global"
)

// ParseMode normalizes a stored mode string. Unknown values fall back to
// per-item, matching how older carts were persisted.
func ParseMode(s string) DiscountMode {
	if DiscountMode(s) == ModeGlobal {
		return ModeGlobal
	}
	return ModePerItem
}

// LineItem is a single cart line. Name, Brand and ImageURL are display
// snapshots hydrated from the catalog; they may be empty.
type LineItem struct {
	SKU             string          `json:"sku"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	Name            string          `json:"name,omitempty"`
	Brand           string          `json:"brand,omitempty"`
	ImageURL        string          `json:"imageUrl,omitempty"`
}

// ClampPercent bounds a discount percent to [0, MaxDiscountPercent].
// It is applied both when a value enters the cart and again at calculation
// time: persisted carts may still carry unclamped values written by older
// clients.
func ClampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(MaxDiscountPercent) {
		return MaxDiscountPercent
	}
	return p
}

// Cart is the full per-seller session state: items, discount settings and
// declared payment allocations. It is persisted as a single blob and
// recomputed from scratch after every mutation.
type Cart struct {
	Items          []LineItem           `json:"items"`
	Mode           DiscountMode         `json:"mode"`
	GlobalPercent  decimal.Decimal      `json:"globalPercent"`
	Payments       []payment.Allocation `json:"payments"`
}

// New returns an empty cart in per-item mode.
func New() *Cart {
	return &Cart{Mode: ModePerItem}
}

// AddItem merges an item into the cart. An existing line with the same SKU
// has its quantity summed; its stored discount percent and display snapshot
// are kept. New lines get their percent clamped on entry.
func (c *Cart) AddItem(item LineItem) {
	for i := range c.Items {
		if c.Items[i].SKU == item.SKU {
			c.Items[i].Quantity += item.Quantity
			if c.Items[i].Name == "" {
				c.Items[i].Name = item.Name
			}
			if c.Items[i].Brand == "" {
				c.Items[i].Brand = item.Brand
			}
			if c.Items[i].ImageURL == "" {
				c.Items[i].ImageURL = item.ImageURL
			}
			return
		}
	}
	item.DiscountPercent = ClampPercent(item.DiscountPercent)
	c.Items = append(c.Items, item)
}

// RemoveItem deletes the line with the given SKU. Removing an unknown SKU
// is a no-op.
func (c *Cart) RemoveItem(sku string) {
	for i := range c.Items {
		if c.Items[i].SKU == sku {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

// FindItem returns the line with the given SKU, or nil.
func (c *Cart) FindItem(sku string) *LineItem {
	for i := range c.Items {
		if c.Items[i].SKU == sku {
			return &c.Items[i]
		}
	}
	return nil
}

// SetItemDiscount updates a line's own discount percent, clamped on entry.
// The stored value is used only while the cart is in per-item mode.
func (c *Cart) SetItemDiscount(sku string, percent decimal.Decimal) bool {
	item := c.FindItem(sku)
	if item == nil {
		return false
	}
	item.DiscountPercent = ClampPercent(percent)
	return true
}

// SetMode switches the discount mode. Stored per-item percents are never
// mutated by a mode switch.
func (c *Cart) SetMode(mode DiscountMode) {
	c.Mode = ParseMode(string(mode))
}

// SetGlobalPercent stores the cart-wide discount percent, clamped on entry.
func (c *Cart) SetGlobalPercent(percent decimal.Decimal) {
	c.GlobalPercent = ClampPercent(percent)
}

// AddPayment appends a payment allocation, assigning it the next sequential
// id within this cart.
func (c *Cart) AddPayment(alloc payment.Allocation) payment.Allocation {
	maxID := 0
	for _, p := range c.Payments {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	alloc.ID = maxID + 1
	c.Payments = append(c.Payments, alloc)
	return alloc
}

// UpdatePayment replaces the allocation with the same id. It reports
// whether a matching allocation was found.
func (c *Cart) UpdatePayment(alloc payment.Allocation) bool {
	for i := range c.Payments {
		if c.Payments[i].ID == alloc.ID {
			c.Payments[i] = alloc
			return true
		}
	}
	return false
}

// RemovePayment deletes the allocation with the given id.
func (c *Cart) RemovePayment(id int) {
	for i := range c.Payments {
		if c.Payments[i].ID == id {
			c.Payments = append(c.Payments[:i], c.Payments[i+1:]...)
			return
		}
	}
}

// Clear empties items, payments and discount settings. Called only after a
// proposal save or order submission has been confirmed durable.
func (c *Cart) Clear() {
	c.Items = nil
	c.Payments = nil
	c.Mode = ModePerItem
	c.GlobalPercent = decimal.Zero
}
