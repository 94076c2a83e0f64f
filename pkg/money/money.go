package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// FiatPlaces is the precision fiat amounts are stored and rendered with.
	FiatPlaces = 2
	// CryptoPlaces is the storage precision of crypto amounts and balances.
	CryptoPlaces = 18
)

var (
	ErrInvalidAmount = errors.New("invalid decimal amount")
	hundred          = decimal.NewFromInt(100)
)

// Parse reads a decimal from its string form, ignoring surrounding spaces.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Amount is a request field holding a decimal. It decodes from a JSON
// string or a bare JSON number; range checks are left to the caller.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	*a = Amount(d.String())
	return nil
}

// String returns the decimal text.
func (a Amount) String() string {
	return string(a)
}

// ExceedsPlaces reports whether d carries more than places fractional digits.
func ExceedsPlaces(d decimal.Decimal, places int32) bool {
	return !d.Truncate(places).Equal(d)
}

// RoundFiat rounds half away from zero to FiatPlaces, which is half-up for
// the non-negative amounts the service deals with.
func RoundFiat(d decimal.Decimal) decimal.Decimal {
	return d.Round(FiatPlaces)
}

// FormatFiat renders d with exactly FiatPlaces decimals.
func FormatFiat(d decimal.Decimal) string {
	return d.StringFixed(FiatPlaces)
}

// Quote is the fiat price of a crypto amount at a frozen rate pair.
type Quote struct {
	FiatAmount       decimal.Decimal
	CommissionAmount decimal.Decimal
}

// PriceFiat computes crypto * rate * (1 + commission/100) rounded to fiat
// precision. CommissionAmount is the part attributable to the surcharge.
func PriceFiat(crypto, exchangeRate, commissionRate decimal.Decimal) Quote {
	base := crypto.Mul(exchangeRate)
	factor := decimal.NewFromInt(1).Add(commissionRate.Div(hundred))
	fiat := RoundFiat(base.Mul(factor))
	return Quote{
		FiatAmount:       fiat,
		CommissionAmount: fiat.Sub(RoundFiat(base)),
	}
}
