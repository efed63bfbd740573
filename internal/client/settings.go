package client

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/distrokart/storefront/internal/domain/fees"
)

// SettingsClient fetches merchant fee settings from the remote configuration
// endpoint. A fetch failure never blocks the cart: Settings returns
// zero-valued settings alongside the error so the caller can render with
// defaults and surface a non-fatal warning.
type SettingsClient struct {
	baseURL string
	http    *http.Client
	group   singleflight.Group
}

// NewSettingsClient creates a client for the given API base URL, e.g.
// "https://api.example.com".
func NewSettingsClient(baseURL string, timeout time.Duration) *SettingsClient {
	return &SettingsClient{
		baseURL: baseURL,
		http:    newHTTPClient(timeout),
	}
}

// Settings fetches and decodes the settings document. Concurrent callers
// share a single in-flight fetch. On any transport or server failure the
// zero-valued settings are returned together with the error; the cart
// renders with zero fees rather than failing.
func (c *SettingsClient) Settings(ctx context.Context) (fees.Settings, error) {
	v, err, _ := c.group.Do("settings", func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		zctx.From(ctx).Warn("Settings fetch failed, using zero defaults", zap.Error(err))
		return fees.Settings{}, err
	}
	return v.(fees.Settings), nil
}

func (c *SettingsClient) fetch(ctx context.Context) (fees.Settings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/settings", nil)
	if err != nil {
		return fees.Settings{}, errors.Wrap(err, "build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fees.Settings{}, errors.Wrap(err, "fetch settings")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fees.Settings{}, errors.Errorf("settings endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fees.Settings{}, errors.Wrap(err, "read settings body")
	}

	// Field-level garbage degrades inside the decode; only transport-level
	// failures surface as errors.
	return fees.DecodeSettings(body), nil
}
