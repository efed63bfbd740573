package promo

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Kind enumerates the supported promo discount strategies.
type Kind string

const (
	// KindPercentage applies a percentage-based discount to the subtotal.
	KindPercentage Kind = "percentage"
	// KindFixed applies a fixed monetary discount capped at the subtotal.
	KindFixed Kind = "fixed"
)

// ErrInvalidCode is returned when a promo code is not found, the subtotal is
// not a positive amount, or the cart does not satisfy the rule's minimum
// subtotal requirement.
var ErrInvalidCode = errors.New("invalid promo code")

// Rule defines a promo code's discount behaviour and eligibility constraints.
type Rule struct {
	Code        string
	Kind        Kind
	Value       decimal.Decimal
	MinSubtotal decimal.Decimal
	Description string
}

// Discount holds the computed discount amount and a human-readable description.
type Discount struct {
	Amount      decimal.Decimal
	Description string
}

// Repository provides lookup of promo rules by their code.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Rule, error)
}

// Normalize canonicalizes a promo code for lookup: trimmed and uppercased.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Apply calculates the discount for the given rule against a subtotal.
// It returns ErrInvalidCode when the subtotal is not positive or falls below
// the rule's minimum.
func Apply(rule *Rule, subtotal decimal.Decimal) (Discount, error) {
	if !subtotal.IsPositive() {
		return Discount{}, ErrInvalidCode
	}
	if rule.MinSubtotal.IsPositive() && subtotal.LessThan(rule.MinSubtotal) {
		return Discount{}, ErrInvalidCode
	}

	var amount decimal.Decimal
	switch rule.Kind {
	case KindPercentage:
		amount = subtotal.Mul(rule.Value).Div(decimal.NewFromInt(100))
	case KindFixed:
		amount = decimal.Min(rule.Value, subtotal)
	default:
		return Discount{}, errors.Errorf("unsupported discount kind: %q", rule.Kind)
	}

	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return Discount{
		Amount:      amount.Round(2),
		Description: rule.Description,
	}, nil
}
