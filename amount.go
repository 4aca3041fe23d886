package htlc

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/iov-one/htlc/errors"
)

// All amounts of the bridged unit are unsigned 256-bit integers. Arithmetic
// never wraps: the helpers below fail with ErrOverflow instead.

// ZeroAmount returns a new zero amount.
func ZeroAmount() *uint256.Int {
	return new(uint256.Int)
}

// NewAmount is a shortcut for small amounts, mostly used in tests.
func NewAmount(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// AmountOrZero returns a, or a new zero amount if a is nil.
func AmountOrZero(a *uint256.Int) *uint256.Int {
	if a == nil {
		return ZeroAmount()
	}
	return a
}

// AddAmount returns a + b or ErrOverflow. A nil operand counts as zero.
func AddAmount(a, b *uint256.Int) (*uint256.Int, error) {
	a, b = AmountOrZero(a), AmountOrZero(b)
	sum := new(uint256.Int).Add(a, b)
	if sum.Lt(a) {
		return nil, errors.Wrapf(errors.ErrOverflow, "%s + %s", a.ToBig(), b.ToBig())
	}
	return sum, nil
}

// SubAmount returns a - b or ErrOverflow when b is greater than a. A nil
// operand counts as zero.
func SubAmount(a, b *uint256.Int) (*uint256.Int, error) {
	a, b = AmountOrZero(a), AmountOrZero(b)
	if a.Lt(b) {
		return nil, errors.Wrapf(errors.ErrOverflow, "%s - %s", a.ToBig(), b.ToBig())
	}
	return new(uint256.Int).Sub(a, b), nil
}

// AmountBytes serializes an amount as a 32 byte big endian value. A nil
// amount is serialized as zero.
func AmountBytes(a *uint256.Int) []byte {
	b := AmountOrZero(a).Bytes32()
	return b[:]
}

// AmountFromBytes is the inverse of AmountBytes. Shorter input is accepted
// and treated as a big endian number, empty input is zero.
func AmountFromBytes(b []byte) (*uint256.Int, error) {
	if len(b) > 32 {
		return nil, errors.Wrapf(errors.ErrAmount, "%d bytes", len(b))
	}
	return new(uint256.Int).SetBytes(b), nil
}

// ParseAmount reads a base 10 representation.
func ParseAmount(s string) (*uint256.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.ErrAmount.Newf("not a number: %q", s)
	}
	if v.Sign() < 0 {
		return nil, errors.ErrAmount.Newf("negative: %q", s)
	}
	a, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errors.ErrOverflow.Newf("does not fit 256 bits: %q", s)
	}
	return a, nil
}

// FormatAmount is the base 10 representation of an amount.
func FormatAmount(a *uint256.Int) string {
	if a == nil {
		return "0"
	}
	return a.ToBig().String()
}
