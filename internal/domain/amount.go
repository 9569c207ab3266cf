package domain

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Bounds on numeric input. Comparing decimals rescales both sides to a
// common exponent, so exponent and coefficient size are capped before any
// comparison takes place.
const (
	maxAmountExponent = 20
	maxAmountBits     = 128
	maxAmountText     = 64
)

// ErrOutOfRange is returned for numbers too large or too precise to accept
var ErrOutOfRange = errors.New("number out of range")

// CheckAmount rejects a decimal whose exponent or coefficient is outside
// the accepted bounds.
func CheckAmount(d decimal.Decimal) error {
	if e := d.Exponent(); e > maxAmountExponent || e < -maxAmountExponent {
		return ErrOutOfRange
	}
	if d.Coefficient().BitLen() > maxAmountBits {
		return ErrOutOfRange
	}
	return nil
}

// ParseAmount parses decimal text and applies CheckAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if len(s) > maxAmountText {
		return decimal.Zero, ErrOutOfRange
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
