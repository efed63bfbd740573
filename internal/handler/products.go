package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/distrokart/storefront/internal/domain/catalog"
)

// productResponse is the product JSON shape served to the storefront UI.
// Prices are serialized as JSON numbers.
type productResponse struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Category      string               `json:"category"`
	UnitBasePrice float64              `json:"unitBasePrice"`
	UnitBulkPrice float64              `json:"unitBulkPrice"`
	UnitsPerCase  int                  `json:"unitsPerCase"`
	Image         productImageResponse `json:"image"`
}

type productImageResponse struct {
	Thumbnail string `json:"thumbnail"`
	Mobile    string `json:"mobile"`
	Tablet    string `json:"tablet"`
	Desktop   string `json:"desktop"`
}

// ListProducts returns every product in the catalog.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondInternal(w, r, err, "List products")
		return
	}

	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProductResponse(p)
	}
	respondJSON(w, r, http.StatusOK, out)
}

// GetProduct returns a single product by ID.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, "product not found")
			return
		}
		respondInternal(w, r, err, "Get product")
		return
	}

	respondJSON(w, r, http.StatusOK, h.toProductResponse(*p))
}

// toProductResponse converts a domain product into the response shape.
// Image paths are prefixed with the configured imageBaseURL.
func (h *Handler) toProductResponse(p catalog.Product) productResponse {
	base := h.imageBaseURL
	return productResponse{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		UnitBasePrice: p.UnitBasePrice.InexactFloat64(),
		UnitBulkPrice: p.UnitBulkPrice.InexactFloat64(),
		UnitsPerCase:  p.UnitsPerCase,
		Image: productImageResponse{
			Thumbnail: base + p.Image.Thumbnail,
			Mobile:    base + p.Image.Mobile,
			Tablet:    base + p.Image.Tablet,
			Desktop:   base + p.Image.Desktop,
		},
	}
}
