// Package fees computes the shipping, tax, and surcharge components of a
// cart total from merchant-configured settings.
//
// Settings arrive from a remote configuration endpoint and are decoded
// tolerantly: a missing, malformed, or non-numeric field degrades to its
// zero value instead of failing the whole document. The worst outcome of a
// bad settings payload is a zero-valued fee component, never an error.
package fees

import (
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// Mode selects how a fee value is interpreted.
type Mode string

const (
	// ModeFlat treats the value as a fixed monetary amount.
	ModeFlat Mode = "flat"
	// ModePercent treats the value as a percentage of the effective base.
	ModePercent Mode = "percent"
)

// Rate is a fee component: a value plus the mode it is applied in.
type Rate struct {
	Mode  Mode
	Value decimal.Decimal
}

// Settings holds the merchant-configured fee parameters.
type Settings struct {
	// TaxRate is a percentage, e.g. 8.875 meaning 8.875%. Tax is always
	// percentage-based; there is no flat-tax variant.
	TaxRate decimal.Decimal
	// DeliveryFee is charged unless the free-delivery threshold waives it.
	DeliveryFee Rate
	// FreeDeliveryThreshold waives the delivery fee once the effective base
	// reaches its value. Only the flat mode is meaningful; a percent-mode
	// threshold never waives delivery.
	FreeDeliveryThreshold Rate
	// Surcharge is an additional fee distinct from tax and shipping.
	Surcharge Rate
}

// DecodeSettings parses a merchant settings document. It never fails on a
// malformed field: bad numbers become zero, unknown modes become flat, and
// unrecognized keys are skipped. A document that is not a JSON object yields
// zero-valued settings.
func DecodeSettings(data []byte) Settings {
	s := Settings{
		DeliveryFee:           Rate{Mode: ModeFlat},
		FreeDeliveryThreshold: Rate{Mode: ModeFlat},
		Surcharge:             Rate{Mode: ModeFlat},
	}

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return s
	}

	_ = d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "taxRate":
			s.TaxRate = decodeValue(d)
		case "deliveryFee":
			s.DeliveryFee = decodeRate(d)
		case "freeDeliveryThreshold":
			s.FreeDeliveryThreshold = decodeRate(d)
		case "surCharge":
			s.Surcharge = decodeRate(d)
		default:
			return d.Skip()
		}
		return nil
	})

	return s
}

// decodeValue extracts a non-negative decimal from a field that may be a
// bare number, a numeric string, or an object carrying a "value" key.
// Anything unparsable degrades to zero.
func decodeValue(d *jx.Decoder) decimal.Decimal {
	switch d.Next() {
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero
		}
		return parseDecimal(n.String())
	case jx.String:
		str, err := d.Str()
		if err != nil {
			return decimal.Zero
		}
		return parseDecimal(str)
	case jx.Object:
		var v decimal.Decimal
		_ = d.Obj(func(d *jx.Decoder, key string) error {
			if key == "value" {
				v = decodeValue(d)
				return nil
			}
			return d.Skip()
		})
		return v
	default:
		_ = d.Skip()
		return decimal.Zero
	}
}

// decodeRate extracts a {type, value} object. A bare number is accepted as a
// flat rate. Unknown or missing types default to flat.
func decodeRate(d *jx.Decoder) Rate {
	r := Rate{Mode: ModeFlat}

	switch d.Next() {
	case jx.Number, jx.String:
		r.Value = decodeValue(d)
		return r
	case jx.Object:
		_ = d.Obj(func(d *jx.Decoder, key string) error {
			switch key {
			case "type":
				if d.Next() != jx.String {
					return d.Skip()
				}
				str, err := d.Str()
				if err != nil {
					return err
				}
				if Mode(str) == ModePercent {
					r.Mode = ModePercent
				}
			case "value":
				r.Value = decodeValue(d)
			default:
				return d.Skip()
			}
			return nil
		})
		return r
	default:
		_ = d.Skip()
		return r
	}
}

func parseDecimal(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return decimal.Zero
	}
	return v
}
