package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/catalog"
)

var _ catalog.Repository = (*CatalogStore)(nil)

// CatalogStore implements catalog.Repository over a static product list.
type CatalogStore struct {
	products []catalog.Product
	byID     map[string]*catalog.Product
	delay    time.Duration
}

// NewCatalogStore builds a store over the given products. Products are
// normalized on the way in. delay is the artificial per-call latency.
func NewCatalogStore(products []catalog.Product, delay time.Duration) *CatalogStore {
	s := &CatalogStore{
		products: make([]catalog.Product, len(products)),
		byID:     make(map[string]*catalog.Product, len(products)),
		delay:    delay,
	}
	for i, p := range products {
		p.Normalize()
		s.products[i] = p
		s.byID[p.ID] = &s.products[i]
	}
	return s
}

// List returns every product in the catalog.
func (s *CatalogStore) List(ctx context.Context) ([]catalog.Product, error) {
	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}
	out := make([]catalog.Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// GetByID returns a single product or catalog.ErrNotFound.
func (s *CatalogStore) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}
	p, ok := s.byID[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// GetByIDs returns the products matching the given IDs. Missing IDs are
// simply absent from the result; callers decide whether that is an error.
func (s *CatalogStore) GetByIDs(ctx context.Context, ids []string) ([]catalog.Product, error) {
	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}
	out := make([]catalog.Product, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := s.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

// productJSON mirrors the catalog seed document shape.
type productJSON struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	UnitBasePrice decimal.Decimal `json:"unitBasePrice"`
	UnitBulkPrice decimal.Decimal `json:"unitBulkPrice"`
	UnitsPerCase  int             `json:"unitsPerCase"`
	Image         struct {
		Thumbnail string `json:"thumbnail"`
		Mobile    string `json:"mobile"`
		Tablet    string `json:"tablet"`
		Desktop   string `json:"desktop"`
	} `json:"image"`
}

// ParseProducts decodes a catalog seed document.
func ParseProducts(data []byte) ([]catalog.Product, error) {
	var rows []productJSON
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, "decode products")
	}

	out := make([]catalog.Product, len(rows))
	for i, r := range rows {
		p := catalog.Product{
			ID:            r.ID,
			Name:          r.Name,
			Category:      r.Category,
			UnitBasePrice: r.UnitBasePrice,
			UnitBulkPrice: r.UnitBulkPrice,
			UnitsPerCase:  r.UnitsPerCase,
			Image: catalog.Image{
				Thumbnail: r.Image.Thumbnail,
				Mobile:    r.Image.Mobile,
				Tablet:    r.Image.Tablet,
				Desktop:   r.Image.Desktop,
			},
		}
		p.Normalize()
		out[i] = p
	}
	return out, nil
}
