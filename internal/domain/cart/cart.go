// Package cart holds the per-session shopping cart state: an ordered list of
// line items keyed by product ID plus at most one active discount. All
// derived amounts (subtotal, fee breakdown) are recomputed from the items on
// every read; nothing is cached.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/catalog"
	"github.com/distrokart/storefront/internal/domain/fees"
	"github.com/distrokart/storefront/internal/domain/pricing"
)

// Line is a cart entry: a catalog product and the number of cases ordered.
type Line struct {
	Product  catalog.Product
	Quantity int
}

// Cart is the per-session cart state. It is scoped to a single user session;
// the mutex only serializes the discount application flow against concurrent
// item mutations, it does not make the cart a shared-across-sessions store.
type Cart struct {
	mu sync.Mutex

	items []*Line
	index map[string]*Line

	discount decimal.Decimal
	phase    discountPhase

	// version increments on every item mutation. An in-flight promo
	// validation captures it before the remote call and discards the result
	// if the cart changed underneath.
	version uint64
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{index: make(map[string]*Line)}
}

// AddItem puts qty cases of p into the cart. A non-positive qty counts as 1.
// Adding a product already in the cart increments its quantity instead of
// appending a duplicate line.
func (c *Cart) AddItem(p catalog.Product, qty int) {
	if qty < 1 {
		qty = 1
	}
	p.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.index[p.ID]; ok {
		line.Quantity += qty
	} else {
		line := &Line{Product: p, Quantity: qty}
		c.items = append(c.items, line)
		c.index[p.ID] = line
	}
	c.version++
}

// RemoveItem removes the line with the given product ID. Absent IDs are a
// no-op.
func (c *Cart) RemoveItem(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[id]; !ok {
		return
	}
	delete(c.index, id)
	for i, line := range c.items {
		if line.Product.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	c.version++
}

// UpdateQuantity sets the case quantity for the given product ID, clamped to
// a minimum of 1. A zero or negative quantity never removes the line; removal
// is an explicit operation. Absent IDs are a no-op.
func (c *Cart) UpdateQuantity(id string, qty int) {
	if qty < 1 {
		qty = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.index[id]
	if !ok {
		return
	}
	line.Quantity = qty
	c.version++
}

// Clear empties the cart and drops any active discount.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.index = make(map[string]*Line)
	c.discount = decimal.Zero
	c.phase = phaseNone
	c.version++
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.items))
	for i, line := range c.items {
		out[i] = *line
	}
	return out
}

// Subtotal returns the sum of line totals across all items, at full decimal
// precision.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtotalLocked()
}

func (c *Cart) subtotalLocked() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range c.items {
		sum = sum.Add(pricing.LineTotal(line.Product, line.Quantity))
	}
	return sum
}

// TotalItemCount returns the sum of case quantities across all lines.
func (c *Cart) TotalItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, line := range c.items {
		total += line.Quantity
	}
	return total
}

// Discount returns the currently applied discount amount, zero when none.
func (c *Cart) Discount() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discount
}

// Breakdown computes the fee breakdown for the current cart contents under
// the given merchant settings.
func (c *Cart) Breakdown(s fees.Settings) fees.Breakdown {
	c.mu.Lock()
	subtotal := c.subtotalLocked()
	discount := c.discount
	c.mu.Unlock()

	return fees.Compute(subtotal, discount, s)
}

// Snapshot is a consistent view of the cart taken at a single instant, used
// as the checkout hand-off payload.
type Snapshot struct {
	Items     []Line
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Breakdown fees.Breakdown
}

// Snapshot captures the cart lines, discount, and fee breakdown atomically so
// checkout consumes amounts that were all computed from the same state.
func (c *Cart) Snapshot(s fees.Settings) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Line, len(c.items))
	for i, line := range c.items {
		items[i] = *line
	}
	subtotal := c.subtotalLocked()

	return Snapshot{
		Items:     items,
		Subtotal:  subtotal,
		Discount:  c.discount,
		Breakdown: fees.Compute(subtotal, c.discount, s),
	}
}
