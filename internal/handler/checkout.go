package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/checkout"
)

// checkoutRequest is the checkout hand-off payload: the cart item snapshot
// plus the amounts the client displayed.
type checkoutRequest struct {
	Items []struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// checkoutResponse confirms an initiated checkout with the authoritative
// server-side amounts.
type checkoutResponse struct {
	ID        string  `json:"id"`
	Subtotal  float64 `json:"subtotal"`
	Discount  float64 `json:"discount"`
	Shipping  float64 `json:"shipping"`
	Tax       float64 `json:"tax"`
	Surcharge float64 `json:"surCharge"`
	Total     float64 `json:"total"`
}

// InitiateCheckout consumes the cart snapshot, re-prices it server-side, and
// returns a confirmation with the final fee breakdown.
func (h *Handler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	items := make([]checkout.Item, len(req.Items))
	for i, item := range req.Items {
		items[i] = checkout.Item{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	conf, err := h.checkout.Initiate(r.Context(), checkout.Request{
		Items:        items,
		Discount:     req.Discount,
		ClaimedTotal: req.Total,
	})
	if err != nil {
		h.respondCheckoutError(w, r, err)
		return
	}

	rounded := conf.Breakdown.Rounded()
	respondJSON(w, r, http.StatusOK, checkoutResponse{
		ID:        conf.ID,
		Subtotal:  conf.Subtotal.Round(2).InexactFloat64(),
		Discount:  conf.Discount.Round(2).InexactFloat64(),
		Shipping:  rounded.Shipping.InexactFloat64(),
		Tax:       rounded.Tax.InexactFloat64(),
		Surcharge: rounded.Surcharge.InexactFloat64(),
		Total:     rounded.Total.InexactFloat64(),
	})
}

func (h *Handler) respondCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound    *checkout.ProductNotFoundError
		invalidQty  *checkout.InvalidQuantityError
		mismatchErr *checkout.TotalMismatchError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyItems):
		respondError(w, r, http.StatusBadRequest, "items required")
	case errors.As(err, &invalidQty):
		respondError(w, r, http.StatusUnprocessableEntity, invalidQty.Error())
	case errors.As(err, &notFound):
		respondError(w, r, http.StatusUnprocessableEntity, notFound.Error())
	case errors.As(err, &mismatchErr):
		respondError(w, r, http.StatusUnprocessableEntity, mismatchErr.Error())
	default:
		respondInternal(w, r, err, "Initiate checkout")
	}
}
