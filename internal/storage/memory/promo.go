package memory

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/promo"
)

var _ promo.Repository = (*PromoStore)(nil)

// minFilterCapacity keeps the bloom filter reasonably sized even for tiny
// seed rule sets.
const (
	minFilterCapacity = 1024
	filterFPR         = 0.001
)

// PromoStore implements promo.Repository over a static rule set. A bloom
// filter fronts the rule map so the overwhelmingly common case, an invalid
// code, is rejected without touching the map. The filter may be replaced
// with a larger one produced offline by the promo-ingest tool.
type PromoStore struct {
	rules  map[string]promo.Rule
	filter *bloom.BloomFilter
	delay  time.Duration
}

// NewPromoStore builds a store over the given rules, keyed by normalized
// code, with a bloom filter seeded from the same codes.
func NewPromoStore(rules []promo.Rule, delay time.Duration) *PromoStore {
	capacity := uint(len(rules))
	if capacity < minFilterCapacity {
		capacity = minFilterCapacity
	}

	s := &PromoStore{
		rules:  make(map[string]promo.Rule, len(rules)),
		filter: bloom.NewWithEstimates(capacity, filterFPR),
		delay:  delay,
	}
	for _, r := range rules {
		code := promo.Normalize(r.Code)
		r.Code = code
		s.rules[code] = r
		s.filter.AddString(code)
	}
	return s
}

// LoadFilter replaces the store's bloom filter with one serialized by the
// promo-ingest tool. The rule map is unchanged; codes present in the filter
// but absent from the map still resolve to promo.ErrInvalidCode.
func (s *PromoStore) LoadFilter(r io.Reader) error {
	f := &bloom.BloomFilter{}
	if _, err := f.ReadFrom(r); err != nil {
		return errors.Wrap(err, "read bloom filter")
	}
	s.filter = f
	return nil
}

// LoadFilterFile is LoadFilter over a file path.
func (s *PromoStore) LoadFilterFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()
	return s.LoadFilter(f)
}

// FindByCode looks up a promo rule by normalized code. It returns
// promo.ErrInvalidCode when the filter or the map rejects the code.
func (s *PromoStore) FindByCode(ctx context.Context, code string) (*promo.Rule, error) {
	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}

	code = promo.Normalize(code)
	if code == "" || !s.filter.TestString(code) {
		return nil, promo.ErrInvalidCode
	}
	rule, ok := s.rules[code]
	if !ok {
		return nil, promo.ErrInvalidCode
	}
	return &rule, nil
}

// ruleJSON mirrors the promo seed document shape.
type ruleJSON struct {
	Code        string          `json:"code"`
	Kind        string          `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	MinSubtotal decimal.Decimal `json:"minSubtotal"`
	Description string          `json:"description"`
}

// ParsePromoRules decodes a promo rule seed document.
func ParsePromoRules(data []byte) ([]promo.Rule, error) {
	var rows []ruleJSON
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, errors.Wrap(err, "decode promo rules")
	}

	out := make([]promo.Rule, len(rows))
	for i, r := range rows {
		out[i] = promo.Rule{
			Code:        promo.Normalize(r.Code),
			Kind:        promo.Kind(r.Kind),
			Value:       r.Value,
			MinSubtotal: r.MinSubtotal,
			Description: r.Description,
		}
	}
	return out, nil
}
