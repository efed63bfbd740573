package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/fees"
)

// ErrEmptyItems is returned when a checkout request carries no items.
var ErrEmptyItems = errors.New("items required")

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// TotalMismatchError indicates the client-claimed total drifted from the
// server-side recomputation beyond rounding tolerance, typically because
// settings or pricing changed after the client's last render.
type TotalMismatchError struct {
	Expected decimal.Decimal
	Claimed  decimal.Decimal
}

func (e *TotalMismatchError) Error() string {
	return fmt.Sprintf("order total mismatch: expected %s, claimed %s",
		e.Expected.StringFixed(2), e.Claimed.StringFixed(2))
}

// Item is a checkout line reference: a product and the case quantity ordered.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Request holds the checkout hand-off payload: the item snapshot and the
// amounts the client computed at the moment checkout was triggered.
type Request struct {
	Items    []Item
	Discount decimal.Decimal
	// ClaimedTotal is the total the client displayed. Zero skips the
	// consistency check.
	ClaimedTotal decimal.Decimal
}

// Confirmation is the server-side record of an initiated checkout.
type Confirmation struct {
	ID        string
	Items     []Item
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Breakdown fees.Breakdown
	CreatedAt time.Time
}

// Recorder persists checkout confirmations.
type Recorder interface {
	Record(ctx context.Context, conf *Confirmation) error
}

// SettingsSource supplies the merchant fee settings used to recompute the
// breakdown server-side.
type SettingsSource interface {
	Settings(ctx context.Context) (fees.Settings, error)
}
