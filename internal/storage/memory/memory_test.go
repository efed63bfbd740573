package memory

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distrokart/storefront/data"
	"github.com/distrokart/storefront/internal/domain/catalog"
	"github.com/distrokart/storefront/internal/domain/checkout"
	"github.com/distrokart/storefront/internal/domain/promo"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestParseProducts_Embedded(t *testing.T) {
	products, err := ParseProducts(data.Products)
	require.NoError(t, err)
	require.NotEmpty(t, products)

	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		assert.NotEmpty(t, p.ID)
		assert.GreaterOrEqual(t, p.UnitsPerCase, 1)
		assert.False(t, p.UnitBasePrice.IsNegative())
		byID[p.ID] = p
	}

	belts, ok := byID["candy-sour-belts"]
	require.True(t, ok)
	assert.True(t, d("0.10").Equal(belts.UnitBasePrice))
	assert.True(t, d("0.09").Equal(belts.UnitBulkPrice))
	assert.Equal(t, 1000, belts.UnitsPerCase)
}

func TestParseProducts_Malformed(t *testing.T) {
	_, err := ParseProducts([]byte(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestCatalogStore(t *testing.T) {
	products, err := ParseProducts(data.Products)
	require.NoError(t, err)
	store := NewCatalogStore(products, 0)
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		got, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, got, len(products))
	})
	t.Run("get by id", func(t *testing.T) {
		p, err := store.GetByID(ctx, "candy-sour-belts")
		require.NoError(t, err)
		assert.Equal(t, "candy-sour-belts", p.ID)
	})
	t.Run("unknown id", func(t *testing.T) {
		_, err := store.GetByID(ctx, "ghost")
		assert.ErrorIs(t, err, catalog.ErrNotFound)
	})
	t.Run("batch fetch skips missing and dedups", func(t *testing.T) {
		got, err := store.GetByIDs(ctx, []string{
			"candy-sour-belts", "ghost", "candy-sour-belts",
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "candy-sour-belts", got[0].ID)
	})
}

func TestCatalogStore_DelayHonoursCancellation(t *testing.T) {
	store := NewCatalogStore(nil, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := store.List(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func testRules() []promo.Rule {
	return []promo.Rule{
		{Code: "WELCOME10", Kind: promo.KindPercentage, Value: d("10"), Description: "10% off"},
		{Code: "pallet50", Kind: promo.KindFixed, Value: d("50"), MinSubtotal: d("1000")},
	}
}

func TestPromoStore_FindByCode(t *testing.T) {
	store := NewPromoStore(testRules(), 0)
	ctx := context.Background()

	t.Run("known code", func(t *testing.T) {
		rule, err := store.FindByCode(ctx, "WELCOME10")
		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", rule.Code)
	})
	t.Run("lookup is case-insensitive", func(t *testing.T) {
		rule, err := store.FindByCode(ctx, "  welcome10 ")
		require.NoError(t, err)
		assert.Equal(t, "WELCOME10", rule.Code)
	})
	t.Run("codes are normalized on load", func(t *testing.T) {
		rule, err := store.FindByCode(ctx, "PALLET50")
		require.NoError(t, err)
		assert.Equal(t, "PALLET50", rule.Code)
	})
	t.Run("unknown code", func(t *testing.T) {
		_, err := store.FindByCode(ctx, "NOPE")
		assert.ErrorIs(t, err, promo.ErrInvalidCode)
	})
	t.Run("empty code", func(t *testing.T) {
		_, err := store.FindByCode(ctx, "   ")
		assert.ErrorIs(t, err, promo.ErrInvalidCode)
	})
}

func TestPromoStore_LoadFilter(t *testing.T) {
	store := NewPromoStore(testRules(), 0)
	ctx := context.Background()

	// A replacement filter that knows WELCOME10 but not PALLET50.
	f := bloom.NewWithEstimates(minFilterCapacity, filterFPR)
	f.AddString("WELCOME10")
	f.AddString("MYSTERY99")
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	require.NoError(t, store.LoadFilter(&buf))

	_, err = store.FindByCode(ctx, "WELCOME10")
	assert.NoError(t, err)

	// Filtered out before the map is consulted.
	_, err = store.FindByCode(ctx, "PALLET50")
	assert.ErrorIs(t, err, promo.ErrInvalidCode)

	// Passes the filter but has no rule.
	_, err = store.FindByCode(ctx, "MYSTERY99")
	assert.ErrorIs(t, err, promo.ErrInvalidCode)
}

func TestPromoStore_LoadFilter_Garbage(t *testing.T) {
	store := NewPromoStore(testRules(), 0)
	err := store.LoadFilter(bytes.NewReader([]byte("not a filter")))
	assert.Error(t, err)

	// The original filter stays in place.
	_, err = store.FindByCode(context.Background(), "WELCOME10")
	assert.NoError(t, err)
}

func TestParsePromoRules_Embedded(t *testing.T) {
	rules, err := ParsePromoRules(data.PromoCodes)
	require.NoError(t, err)
	require.NotEmpty(t, rules)
	for _, r := range rules {
		assert.Equal(t, promo.Normalize(r.Code), r.Code)
		assert.Contains(t, []promo.Kind{promo.KindPercentage, promo.KindFixed}, r.Kind)
	}
}

func TestSettingsStore(t *testing.T) {
	raw := []byte(`{"taxRate": 8.875, "deliveryFee": {"type": "flat", "value": 9.99}}`)
	store := NewSettingsStore(raw, 0)
	ctx := context.Background()

	doc, err := store.Document(ctx)
	require.NoError(t, err)
	assert.Equal(t, raw, doc)

	s, err := store.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, d("8.875").Equal(s.TaxRate))
	assert.True(t, d("9.99").Equal(s.DeliveryFee.Value))
}

func TestSettingsStore_MalformedDegradesToZero(t *testing.T) {
	store := NewSettingsStore([]byte("][ garbage"), 0)
	s, err := store.Settings(context.Background())
	require.NoError(t, err)
	assert.True(t, s.TaxRate.IsZero())
	assert.True(t, s.DeliveryFee.Value.IsZero())
}

func TestCheckoutLog(t *testing.T) {
	log := NewCheckoutLog()
	ctx := context.Background()

	require.NoError(t, log.Record(ctx, &checkout.Confirmation{ID: "a"}))
	require.NoError(t, log.Record(ctx, &checkout.Confirmation{ID: "b"}))

	all := log.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)

	// The returned slice is a copy.
	all[0].ID = "mutated"
	assert.Equal(t, "a", log.All()[0].ID)
}
