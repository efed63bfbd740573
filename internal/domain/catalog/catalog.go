package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a distributor catalog item. Products are sold by the
// case: UnitsPerCase individual units bundle into one orderable quantity.
type Product struct {
	ID       string
	Name     string
	Category string
	// UnitBasePrice is the per-unit price at low order quantities.
	UnitBasePrice decimal.Decimal
	// UnitBulkPrice is the discounted per-unit price unlocked inside the
	// bulk quantity band. Zero means no bulk pricing for this product.
	UnitBulkPrice decimal.Decimal
	// UnitsPerCase converts a unit price into a case price. Always >= 1
	// after normalization.
	UnitsPerCase int
	Image        Image
}

// Image holds responsive image URLs for a product.
type Image struct {
	Thumbnail string
	Mobile    string
	Tablet    string
	Desktop   string
}

// Normalize repairs fields that arrive degraded from upstream data sources.
// A missing or non-positive UnitsPerCase becomes 1 so a line never silently
// prices to zero; negative prices clamp to zero.
func (p *Product) Normalize() {
	if p.UnitsPerCase < 1 {
		p.UnitsPerCase = 1
	}
	if p.UnitBasePrice.IsNegative() {
		p.UnitBasePrice = decimal.Zero
	}
	if p.UnitBulkPrice.IsNegative() {
		p.UnitBulkPrice = decimal.Zero
	}
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
