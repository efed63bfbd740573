package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func merchantSettings() Settings {
	return Settings{
		TaxRate:               d("8.875"),
		DeliveryFee:           Rate{Mode: ModeFlat, Value: d("9.99")},
		FreeDeliveryThreshold: Rate{Mode: ModeFlat, Value: d("500")},
		Surcharge:             Rate{Mode: ModeFlat, Value: d("0")},
	}
}

func TestCompute_AboveFreeDeliveryThreshold(t *testing.T) {
	b := Compute(d("900"), decimal.Zero, merchantSettings())

	assert.True(t, b.Shipping.IsZero(), "shipping: want 0, got %s", b.Shipping)
	assert.True(t, d("79.875").Equal(b.Tax), "tax: want 79.875, got %s", b.Tax)
	assert.True(t, b.Surcharge.IsZero())
	assert.True(t, d("979.875").Equal(b.Total), "total: want 979.875, got %s", b.Total)
}

func TestCompute_BelowThresholdWithDiscount(t *testing.T) {
	b := Compute(d("100"), d("20"), merchantSettings())

	assert.True(t, d("80").Equal(b.EffectiveBase))
	assert.True(t, d("9.99").Equal(b.Shipping), "shipping: want 9.99, got %s", b.Shipping)
	assert.True(t, d("7.1").Equal(b.Tax), "tax: want 7.1, got %s", b.Tax)
	assert.True(t, d("97.09").Equal(b.Total), "total: want 97.09, got %s", b.Total)
}

func TestCompute_ZeroDiscountTotalIsSumOfComponents(t *testing.T) {
	s := merchantSettings()
	s.Surcharge = Rate{Mode: ModePercent, Value: d("2")}

	subtotal := d("250")
	b := Compute(subtotal, decimal.Zero, s)

	sum := subtotal.Add(b.Shipping).Add(b.Tax).Add(b.Surcharge)
	assert.True(t, sum.Equal(b.Total), "total: want %s, got %s", sum, b.Total)
}

func TestCompute_DiscountExceedsSubtotal(t *testing.T) {
	b := Compute(d("50"), d("80"), merchantSettings())

	// Base clamps to zero; percentage fees vanish, the flat delivery fee
	// still applies since zero is below the threshold.
	assert.True(t, b.EffectiveBase.IsZero())
	assert.True(t, b.Tax.IsZero())
	assert.True(t, d("9.99").Equal(b.Shipping))
	assert.True(t, d("9.99").Equal(b.Total))
	assert.False(t, b.Total.IsNegative())
}

func TestCompute_PercentDeliveryFee(t *testing.T) {
	s := merchantSettings()
	s.DeliveryFee = Rate{Mode: ModePercent, Value: d("5")}

	b := Compute(d("200"), decimal.Zero, s)

	assert.True(t, d("10").Equal(b.Shipping), "shipping: want 10, got %s", b.Shipping)
}

func TestCompute_PercentThresholdNeverWaives(t *testing.T) {
	s := merchantSettings()
	s.FreeDeliveryThreshold = Rate{Mode: ModePercent, Value: d("10")}

	// Even a huge base keeps the delivery fee: a percent threshold has no
	// defined comparison base.
	b := Compute(d("100000"), decimal.Zero, s)
	assert.True(t, d("9.99").Equal(b.Shipping))
}

func TestCompute_ZeroThresholdNeverWaives(t *testing.T) {
	s := merchantSettings()
	s.FreeDeliveryThreshold = Rate{Mode: ModeFlat, Value: decimal.Zero}

	b := Compute(d("900"), decimal.Zero, s)
	assert.True(t, d("9.99").Equal(b.Shipping))
}

func TestCompute_MalformedSettingsDegradeToZeroFees(t *testing.T) {
	// Missing tax rate resolves the tax component to zero without failing.
	b := Compute(d("100"), decimal.Zero, Settings{})

	assert.True(t, b.Tax.IsZero())
	assert.True(t, b.Shipping.IsZero())
	assert.True(t, b.Surcharge.IsZero())
	assert.True(t, d("100").Equal(b.Total))
}

func TestCompute_NegativeDiscountTreatedAsZero(t *testing.T) {
	b := Compute(d("100"), d("-40"), merchantSettings())
	assert.True(t, d("100").Equal(b.EffectiveBase))
}

func TestRounded_TwoDecimalPlaces(t *testing.T) {
	b := Compute(d("900"), decimal.Zero, merchantSettings())
	r := b.Rounded()

	assert.Equal(t, "79.88", r.Tax.StringFixed(2))
	assert.Equal(t, "979.88", r.Total.StringFixed(2))
	// Full precision is preserved on the original.
	assert.True(t, d("79.875").Equal(b.Tax))
}
