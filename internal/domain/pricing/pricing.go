// Package pricing resolves the effective unit, case, and line prices for a
// cart line. Pricing is tiered on the ordered case quantity: inside the bulk
// band the discounted bulk unit price applies, everywhere else the base
// price does.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/catalog"
)

// Bulk tier band, both bounds inclusive. Quantities below and above the band
// price identically at the base unit price; there is no further tier past
// BulkMaxQty.
const (
	BulkMinQty = 6
	BulkMaxQty = 50
)

// UnitPrice returns the effective per-unit price for ordering qty cases of p.
// A non-positive qty is treated as 1. Inside the bulk band the bulk price
// applies unless the product has no positive bulk price, in which case the
// base price is kept.
func UnitPrice(p catalog.Product, qty int) decimal.Decimal {
	qty = normalizeQty(qty)

	if qty >= BulkMinQty && qty <= BulkMaxQty && p.UnitBulkPrice.IsPositive() {
		return p.UnitBulkPrice
	}
	if p.UnitBasePrice.IsNegative() {
		return decimal.Zero
	}
	return p.UnitBasePrice
}

// CasePrice returns the price of a single case at the given order quantity:
// the effective unit price times units-per-case. A units-per-case below 1
// counts as 1 so the line never silently zeroes out.
func CasePrice(p catalog.Product, qty int) decimal.Decimal {
	upc := p.UnitsPerCase
	if upc < 1 {
		upc = 1
	}
	return UnitPrice(p, qty).Mul(decimal.NewFromInt(int64(upc)))
}

// LineTotal returns the full line price: case price times case quantity.
// Full decimal precision is kept; rounding happens only at presentation.
func LineTotal(p catalog.Product, qty int) decimal.Decimal {
	qty = normalizeQty(qty)
	return CasePrice(p, qty).Mul(decimal.NewFromInt(int64(qty)))
}

func normalizeQty(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}
