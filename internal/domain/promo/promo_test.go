package promo

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"welcome10", "WELCOME10"},
		{"  Welcome10 ", "WELCOME10"},
		{"BULK15", "BULK15"},
		{"\tfreight20\n", "FREIGHT20"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		subtotal string
		want     string
		wantErr  error
	}{
		{
			name:     "percentage",
			rule:     Rule{Code: "WELCOME10", Kind: KindPercentage, Value: d("10")},
			subtotal: "200",
			want:     "20",
		},
		{
			name:     "percentage rounds to cents",
			rule:     Rule{Code: "WELCOME10", Kind: KindPercentage, Value: d("10")},
			subtotal: "13.33",
			want:     "1.33",
		},
		{
			name:     "fixed",
			rule:     Rule{Code: "FREIGHT20", Kind: KindFixed, Value: d("20")},
			subtotal: "200",
			want:     "20",
		},
		{
			name:     "fixed capped at subtotal",
			rule:     Rule{Code: "FREIGHT20", Kind: KindFixed, Value: d("20")},
			subtotal: "12.50",
			want:     "12.50",
		},
		{
			name:     "below minimum subtotal",
			rule:     Rule{Code: "PALLET50", Kind: KindFixed, Value: d("50"), MinSubtotal: d("1000")},
			subtotal: "999.99",
			wantErr:  ErrInvalidCode,
		},
		{
			name:     "at minimum subtotal",
			rule:     Rule{Code: "PALLET50", Kind: KindFixed, Value: d("50"), MinSubtotal: d("1000")},
			subtotal: "1000",
			want:     "50",
		},
		{
			name:     "zero subtotal",
			rule:     Rule{Code: "WELCOME10", Kind: KindPercentage, Value: d("10")},
			subtotal: "0",
			wantErr:  ErrInvalidCode,
		},
		{
			name:     "negative subtotal",
			rule:     Rule{Code: "WELCOME10", Kind: KindPercentage, Value: d("10")},
			subtotal: "-5",
			wantErr:  ErrInvalidCode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(&tt.rule, d(tt.subtotal))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, d(tt.want).Equal(got.Amount), "want %s got %s", tt.want, got.Amount)
		})
	}
}

func TestApply_UnsupportedKind(t *testing.T) {
	_, err := Apply(&Rule{Code: "X", Kind: Kind("bogo")}, d("100"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCode)
}

func TestApply_NegativeValueClampedToZero(t *testing.T) {
	got, err := Apply(&Rule{Code: "X", Kind: KindFixed, Value: d("-5")}, d("100"))
	require.NoError(t, err)
	assert.True(t, got.Amount.IsZero())
}

type repoFunc func(ctx context.Context, code string) (*Rule, error)

func (f repoFunc) FindByCode(ctx context.Context, code string) (*Rule, error) {
	return f(ctx, code)
}

func TestRepoValidator(t *testing.T) {
	rules := map[string]*Rule{
		"WELCOME10": {Code: "WELCOME10", Kind: KindPercentage, Value: d("10"), Description: "10% off"},
	}
	repo := repoFunc(func(_ context.Context, code string) (*Rule, error) {
		r, ok := rules[code]
		if !ok {
			return nil, ErrInvalidCode
		}
		return r, nil
	})
	v := NewRepoValidator(repo)

	t.Run("valid code", func(t *testing.T) {
		got, err := v.Validate(context.Background(), "welcome10", d("200"))
		require.NoError(t, err)
		assert.True(t, d("20").Equal(got.Amount))
		assert.Equal(t, "10% off", got.Description)
	})
	t.Run("unknown code", func(t *testing.T) {
		_, err := v.Validate(context.Background(), "NOPE", d("200"))
		assert.ErrorIs(t, err, ErrInvalidCode)
	})
	t.Run("repository failure is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		failing := NewRepoValidator(repoFunc(func(context.Context, string) (*Rule, error) {
			return nil, boom
		}))
		_, err := failing.Validate(context.Background(), "WELCOME10", d("200"))
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrInvalidCode)
	})
}
