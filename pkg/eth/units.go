package eth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned for amounts that cannot be represented in wei.
var ErrInvalidAmount = errors.New("invalid amount")

// ToWei converts a human-readable ether amount ("1.5") to wei.
// Negative values and more than EtherDecimals fractional digits are rejected.
func ToWei(ether string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(ether))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, ether)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, ether)
	}

	scaled := d.Shift(EtherDecimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %q has more than %d decimals", ErrInvalidAmount, ether, EtherDecimals)
	}
	return scaled.BigInt(), nil
}

// FromWei converts wei to ether. It never mutates wei.
func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals)
}

// Amount is a monetary value held in wei. The display unit is only
// produced on the way out (Ether, String, MarshalJSON), so an Amount
// cannot be scaled twice.
type Amount struct {
	wei *big.Int
}

// NewAmount copies wei into an Amount. A nil value is zero.
func NewAmount(wei *big.Int) Amount {
	if wei == nil {
		return Amount{}
	}
	return Amount{wei: new(big.Int).Set(wei)}
}

// ParseAmount parses an ether string into an Amount.
func ParseAmount(ether string) (Amount, error) {
	wei, err := ToWei(ether)
	if err != nil {
		return Amount{}, err
	}
	return Amount{wei: wei}, nil
}

// Wei returns a copy of the amount in wei.
func (a Amount) Wei() *big.Int {
	if a.wei == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.wei)
}

// Ether returns the amount in the display unit.
func (a Amount) Ether() decimal.Decimal {
	return FromWei(a.wei)
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.wei == nil || a.wei.Sign() == 0
}

// Equal compares two amounts in wei.
func (a Amount) Equal(b Amount) bool {
	return a.Wei().Cmp(b.Wei()) == 0
}

// Add returns a+b.
func (a Amount) Add(b Amount) Amount {
	return Amount{wei: new(big.Int).Add(a.Wei(), b.Wei())}
}

// String formats the amount in ether without trailing zeros.
func (a Amount) String() string {
	return a.Ether().String()
}

// MarshalJSON encodes the amount as an ether string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an ether string (or bare number) into wei.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*a = Amount{}
		return nil
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
