package cart

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals holds the derived cart totals. They are never a source of truth:
// every mutation recomputes them from the items, and only proposal/order
// records persist them, as snapshots.
type Totals struct {
	Mode          DiscountMode    `json:"mode"`
	GlobalPercent decimal.Decimal `json:"globalPercent"`
	GrossSubtotal decimal.Decimal `json:"grossSubtotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	NetTotal      decimal.Decimal `json:"netTotal"`
}

// EffectivePercent returns the discount percent actually applied to an
// item under the given mode. Both branches clamp: stored values may be
// stale and unclamped.
func EffectivePercent(item LineItem, mode DiscountMode, globalPercent decimal.Decimal) decimal.Decimal {
	if mode == ModeGlobal {
		return ClampPercent(globalPercent)
	}
	return ClampPercent(item.DiscountPercent)
}

// ComputeTotals derives the cart totals from the items and discount mode.
// NetTotal is exactly GrossSubtotal minus DiscountTotal.
func ComputeTotals(items []LineItem, mode DiscountMode, globalPercent decimal.Decimal) Totals {
	gross := decimal.Zero
	discount := decimal.Zero
	for _, item := range items {
		base := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		perc := EffectivePercent(item, mode, globalPercent)
		gross = gross.Add(base)
		discount = discount.Add(base.Mul(perc).Div(hundred))
	}
	return Totals{
		Mode:          ParseMode(string(mode)),
		GlobalPercent: ClampPercent(globalPercent),
		GrossSubtotal: gross,
		DiscountTotal: discount,
		NetTotal:      gross.Sub(discount),
	}
}

// Totals recomputes the cart's totals under its current discount settings.
func (c *Cart) Totals() Totals {
	return ComputeTotals(c.Items, c.Mode, c.GlobalPercent)
}

// DiscountedUnitPrice returns the item's unit price with its effective
// discount baked in, rounded to currency precision. This is the per-unit
// value sent downstream: the ERP receives discounted prices, not a
// separate discount field.
func DiscountedUnitPrice(item LineItem, mode DiscountMode, globalPercent decimal.Decimal) decimal.Decimal {
	perc := EffectivePercent(item, mode, globalPercent)
	factor := decimal.NewFromInt(1).Sub(perc.Div(hundred))
	return item.UnitPrice.Mul(factor).Round(2)
}
