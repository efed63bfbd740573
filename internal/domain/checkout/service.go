package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/catalog"
	"github.com/distrokart/storefront/internal/domain/fees"
	"github.com/distrokart/storefront/internal/domain/pricing"
)

// totalTolerance is the allowed drift between the client-claimed total and
// the server recomputation, covering presentation rounding.
var totalTolerance = decimal.NewFromFloat(0.01)

// Service re-prices a checkout snapshot server-side and records the
// confirmation. The client's cart math is advisory; the service's own
// pricing and fee pass is authoritative.
type Service struct {
	catalog  catalog.Repository
	settings SettingsSource
	records  Recorder
	now      func() time.Time
}

// NewService creates a checkout Service with the required dependencies.
func NewService(cat catalog.Repository, settings SettingsSource, records Recorder) *Service {
	return &Service{
		catalog:  cat,
		settings: settings,
		records:  records,
		now:      time.Now,
	}
}

// Initiate validates the item snapshot, re-prices it in a single catalog
// batch fetch, recomputes the fee breakdown, verifies the client-claimed
// total, records the confirmation, and returns it.
//
// A settings fetch failure does not block checkout: the breakdown degrades to
// zero-valued fees, the same availability trade-off the cart display makes.
func (s *Service) Initiate(ctx context.Context, req Request) (*Confirmation, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
		ids[i] = item.ProductID
	}

	fetched, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	productMap := make(map[string]catalog.Product, len(fetched))
	for _, p := range fetched {
		productMap[p.ID] = p
	}

	subtotal := decimal.Zero
	for _, item := range req.Items {
		p, ok := productMap[item.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: item.ProductID}
		}
		subtotal = subtotal.Add(pricing.LineTotal(p, item.Quantity))
	}

	// Clamp the discount into [0, subtotal]; the breakdown must never go
	// negative even on a malformed request.
	discount := req.Discount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	settings, err := s.settings.Settings(ctx)
	if err != nil {
		settings = fees.Settings{}
	}
	breakdown := fees.Compute(subtotal, discount, settings)

	if req.ClaimedTotal.IsPositive() {
		drift := breakdown.Total.Round(2).Sub(req.ClaimedTotal.Round(2)).Abs()
		if drift.GreaterThan(totalTolerance) {
			return nil, &TotalMismatchError{
				Expected: breakdown.Total,
				Claimed:  req.ClaimedTotal,
			}
		}
	}

	conf := &Confirmation{
		ID:        uuid.New().String(),
		Items:     req.Items,
		Subtotal:  subtotal,
		Discount:  discount,
		Breakdown: breakdown,
		CreatedAt: s.now(),
	}
	if err := s.records.Record(ctx, conf); err != nil {
		return nil, errors.Wrap(err, "record checkout")
	}

	return conf, nil
}
