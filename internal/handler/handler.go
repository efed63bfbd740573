// Package handler exposes the storefront API over plain net/http: the
// product catalog, merchant fee settings, promo application, and checkout
// initiation endpoints consumed by the storefront UI.
package handler

import (
	"context"
	"net/http"

	"github.com/distrokart/storefront/internal/domain/catalog"
	"github.com/distrokart/storefront/internal/domain/checkout"
	"github.com/distrokart/storefront/internal/domain/promo"
)

// RawSettingsSource serves the merchant settings document verbatim; clients
// own the tolerant decode and defaulting.
type RawSettingsSource interface {
	Document(ctx context.Context) ([]byte, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Handler implements the storefront API endpoints, delegating business logic
// to the injected domain dependencies.
type Handler struct {
	products     catalog.Repository
	promos       promo.Validator
	checkout     *checkout.Service
	settings     RawSettingsSource
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products catalog.Repository,
	promos promo.Validator,
	checkoutSvc *checkout.Service,
	settings RawSettingsSource,
) *Handler {
	return &Handler{
		products:     products,
		promos:       promos,
		checkout:     checkoutSvc,
		settings:     settings,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register mounts every API route on the given mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /api/settings", h.GetSettings)
	mux.HandleFunc("POST /api/promo/apply", h.ApplyPromo)
	mux.HandleFunc("POST /api/checkout", h.InitiateCheckout)
}
