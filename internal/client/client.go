// Package client provides typed HTTP clients for the storefront API
// boundary: merchant settings fetch and promo code application. These are
// the two remote calls the cart core depends on; both are built to degrade
// rather than block the cart UI.
package client

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

// newHTTPClient builds the shared client configuration: instrumented
// transport, bounded timeout.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   timeout,
	}
}
