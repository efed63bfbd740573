package cart

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/promo"
)

// discountPhase tracks the discount lifecycle. At most one discount is active
// at a time; a new application must be preceded by RemoveDiscount.
type discountPhase int

const (
	phaseNone discountPhase = iota
	phaseApplying
	phaseApplied
)

var (
	// ErrDiscountActive is returned when a discount is already applied.
	// The caller must RemoveDiscount first.
	ErrDiscountActive = errors.New("a discount is already applied")
	// ErrApplyInFlight is returned when a promo validation is already
	// outstanding. Applications are serialized.
	ErrApplyInFlight = errors.New("a discount application is already in flight")
	// ErrCartChanged is returned when the cart was mutated while a promo
	// validation was in flight; the stale result is discarded.
	ErrCartChanged = errors.New("cart changed during discount application")
)

// InvalidDiscountError indicates the discount amount or the cart state made
// the application invalid.
type InvalidDiscountError struct {
	Reason string
}

func (e *InvalidDiscountError) Error() string {
	return fmt.Sprintf("invalid discount: %s", e.Reason)
}

// ApplyDiscount applies an already-validated discount amount. It enforces the
// at-most-one-discount invariant and requires a positive computable subtotal
// at the moment of application.
func (c *Cart) ApplyDiscount(amount decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyDiscountLocked(amount)
}

func (c *Cart) applyDiscountLocked(amount decimal.Decimal) error {
	switch c.phase {
	case phaseApplied:
		return ErrDiscountActive
	case phaseApplying:
		return ErrApplyInFlight
	}
	if amount.IsNegative() {
		return &InvalidDiscountError{Reason: "amount must not be negative"}
	}
	if !c.subtotalLocked().IsPositive() {
		return &InvalidDiscountError{Reason: "cart subtotal must be positive"}
	}

	c.discount = amount
	c.phase = phaseApplied
	return nil
}

// RemoveDiscount clears the active discount. An in-flight application keeps
// running but its result will be discarded by the version guard if items
// changed; removing only a settled discount is always safe.
func (c *Cart) RemoveDiscount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == phaseApplying {
		return
	}
	c.discount = decimal.Zero
	c.phase = phaseNone
}

// ApplyCode validates code against the current subtotal via the remote
// validator and applies the resulting discount. The call is serialized: a
// second concurrent application fails with ErrApplyInFlight. The cart version
// is captured before the remote call; if any item mutation happens while the
// validation is outstanding the result is discarded with ErrCartChanged and
// the cart keeps its prior state.
func (c *Cart) ApplyCode(ctx context.Context, v promo.Validator, code string) (*promo.Discount, error) {
	c.mu.Lock()
	switch c.phase {
	case phaseApplied:
		c.mu.Unlock()
		return nil, ErrDiscountActive
	case phaseApplying:
		c.mu.Unlock()
		return nil, ErrApplyInFlight
	}
	subtotal := c.subtotalLocked()
	if !subtotal.IsPositive() {
		c.mu.Unlock()
		return nil, &InvalidDiscountError{Reason: "cart subtotal must be positive"}
	}
	version := c.version
	c.phase = phaseApplying
	c.mu.Unlock()

	d, err := v.Validate(ctx, code, subtotal)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// Failure returns to the no-discount state with prior contents intact.
		c.phase = phaseNone
		return nil, err
	}
	if c.version != version {
		c.phase = phaseNone
		return nil, ErrCartChanged
	}

	c.discount = d.Amount
	c.phase = phaseApplied
	return d, nil
}
