package fees

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Breakdown is the fee decomposition of a cart total. All components are
// non-negative; Total = EffectiveBase + Shipping + Tax + Surcharge.
type Breakdown struct {
	// EffectiveBase is the subtotal after discount, floored at zero. All
	// percentage-based fees are computed against it.
	EffectiveBase decimal.Decimal
	Shipping      decimal.Decimal
	Tax           decimal.Decimal
	Surcharge     decimal.Decimal
	Total         decimal.Decimal
}

// Rounded returns the breakdown with every component rounded to two decimal
// places for presentation. Internal aggregation keeps full precision.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		EffectiveBase: b.EffectiveBase.Round(2),
		Shipping:      b.Shipping.Round(2),
		Tax:           b.Tax.Round(2),
		Surcharge:     b.Surcharge.Round(2),
		Total:         b.Total.Round(2),
	}
}

// Compute calculates the fee breakdown for the given subtotal and discount
// under the merchant settings. It never fails: degraded settings produce
// zero-valued components, and a discount exceeding the subtotal clamps the
// base to zero rather than going negative.
func Compute(subtotal, discount decimal.Decimal, s Settings) Breakdown {
	base := floorAtZero(subtotal.Sub(floorAtZero(discount)))

	shipping := decimal.Zero
	if !deliveryWaived(base, s.FreeDeliveryThreshold) {
		shipping = applyRate(base, s.DeliveryFee)
	}

	tax := floorAtZero(base.Mul(s.TaxRate).Div(hundred))
	surcharge := applyRate(base, s.Surcharge)

	return Breakdown{
		EffectiveBase: base,
		Shipping:      shipping,
		Tax:           tax,
		Surcharge:     surcharge,
		Total:         base.Add(shipping).Add(tax).Add(surcharge),
	}
}

// deliveryWaived reports whether the free-delivery threshold applies. Only a
// positive flat-mode threshold can waive delivery; the percent variant has no
// defined base and never waives.
func deliveryWaived(base decimal.Decimal, threshold Rate) bool {
	if threshold.Mode != ModeFlat || !threshold.Value.IsPositive() {
		return false
	}
	return base.GreaterThanOrEqual(threshold.Value)
}

func applyRate(base decimal.Decimal, r Rate) decimal.Decimal {
	switch r.Mode {
	case ModePercent:
		return floorAtZero(base.Mul(r.Value).Div(hundred))
	default:
		return floorAtZero(r.Value)
	}
}

func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
