package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/distrokart/storefront/internal/domain/promo"
)

// promoApplyResponse is returned on successful promo application.
type promoApplyResponse struct {
	Discount    float64 `json:"discount"`
	Description string  `json:"description,omitempty"`
}

// ApplyPromo validates a promo code against the submitted subtotal and
// returns the computed discount. Rejections keep the caller's prior discount
// state: 422 for an unknown/ineligible code or non-positive subtotal, 400
// for an unreadable request.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<16))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "unreadable request body")
		return
	}

	code, subtotal, err := decodePromoRequest(body)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}
	if code == "" {
		respondError(w, r, http.StatusBadRequest, "code required")
		return
	}
	if !subtotal.IsPositive() {
		respondError(w, r, http.StatusUnprocessableEntity, "subtotal must be greater than 0")
		return
	}

	d, err := h.promos.Validate(r.Context(), code, subtotal)
	if err != nil {
		if errors.Is(err, promo.ErrInvalidCode) {
			respondError(w, r, http.StatusUnprocessableEntity, "invalid promo code")
			return
		}
		respondInternal(w, r, err, "Validate promo code")
		return
	}

	respondJSON(w, r, http.StatusOK, promoApplyResponse{
		Discount:    d.Amount.InexactFloat64(),
		Description: d.Description,
	})
}

// decodePromoRequest reads {code, subtotal} tolerantly: the subtotal may
// arrive as a JSON number or a numeric string, matching what loosely-typed
// storefront clients actually send.
func decodePromoRequest(body []byte) (code string, subtotal decimal.Decimal, err error) {
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return "", decimal.Zero, errors.New("expected object")
	}

	err = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "code":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "code")
			}
			code = v
			return nil
		case "subtotal":
			switch d.Next() {
			case jx.Number:
				n, err := d.Num()
				if err != nil {
					return errors.Wrap(err, "subtotal")
				}
				v, err := decimal.NewFromString(n.String())
				if err != nil {
					return errors.Wrap(err, "subtotal")
				}
				subtotal = v
			case jx.String:
				str, err := d.Str()
				if err != nil {
					return errors.Wrap(err, "subtotal")
				}
				v, err := decimal.NewFromString(str)
				if err != nil {
					return errors.Wrap(err, "subtotal")
				}
				subtotal = v
			default:
				return errors.New("subtotal must be a number")
			}
			return nil
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return "", decimal.Zero, err
	}
	return code, subtotal, nil
}
