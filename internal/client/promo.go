package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/promo"
)

var _ promo.Validator = (*PromoClient)(nil)

// PromoClient applies promo codes against the remote pricing service. It
// implements promo.Validator, so a cart can apply codes through it directly;
// any rejection leaves the caller's prior discount state untouched.
type PromoClient struct {
	baseURL string
	http    *http.Client
}

// NewPromoClient creates a client for the given API base URL.
func NewPromoClient(baseURL string, timeout time.Duration) *PromoClient {
	return &PromoClient{
		baseURL: baseURL,
		http:    newHTTPClient(timeout),
	}
}

type promoApplyRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type promoApplyResponse struct {
	Discount    decimal.Decimal `json:"discount"`
	Description string          `json:"description"`
}

// Validate posts the code and subtotal to the promo endpoint and returns the
// computed discount. A 4xx rejection maps to promo.ErrInvalidCode; transport
// and server failures surface as wrapped errors.
func (c *PromoClient) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*promo.Discount, error) {
	payload, err := json.Marshal(promoApplyRequest{Code: code, Subtotal: subtotal})
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/promo/apply", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "apply promo")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, promo.ErrInvalidCode
	default:
		return nil, errors.Errorf("promo endpoint returned %d", resp.StatusCode)
	}

	var body promoApplyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "decode response")
	}
	if body.Discount.IsNegative() {
		return nil, errors.New("promo endpoint returned negative discount")
	}

	return &promo.Discount{
		Amount:      body.Discount,
		Description: body.Description,
	}, nil
}
