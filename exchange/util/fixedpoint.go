package util

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Binary fixed point over a 256-bit word: 112 integer bits, 112 fractional
// bits. A UQ112x112 value v represents the rational v / 2^112.

const (
	// Resolution is the number of fractional bits of a UQ112x112.
	Resolution = uint(112)
)

var (
	// Q112 = 2^112, the fixed point scale factor.
	Q112 = new(uint256.Int).Lsh(uint256.NewInt(1), Resolution)
)

type UQ112x112 struct {
	Raw uint256.Int
}

// UQ144x112 is the widened product of a UQ112x112 and an unsigned integer.
type UQ144x112 struct {
	Raw uint256.Int
}

// EncodeUQ112 encodes an unsigned integer x < 2^112 as a UQ112x112.
func EncodeUQ112(x *big.Int) (UQ112x112, error) {
	if x.Sign() < 0 || x.Cmp(MaxUint112) > 0 {
		return UQ112x112{}, errors.New("FixedPoint: OVERFLOW")
	}
	var u UQ112x112
	v, _ := uint256.FromBig(x)
	u.Raw.Lsh(v, Resolution)
	return u, nil
}

// FractionUQ112 returns numerator/denominator as a UQ112x112. Both arguments
// must be below 2^112 and the denominator non-zero.
func FractionUQ112(numerator, denominator *big.Int) (UQ112x112, error) {
	if !IsPlus(denominator) {
		return UQ112x112{}, errors.New("FixedPoint: DIV_BY_ZERO")
	}
	if numerator.Sign() < 0 || numerator.Cmp(MaxUint112) > 0 || denominator.Cmp(MaxUint112) > 0 {
		return UQ112x112{}, errors.New("FixedPoint: OVERFLOW")
	}
	num, _ := uint256.FromBig(numerator)
	den, _ := uint256.FromBig(denominator)
	var u UQ112x112
	u.Raw.Lsh(num, Resolution)
	u.Raw.Div(&u.Raw, den)
	return u, nil
}

// Decode truncates a UQ112x112 to its integer part.
func (u UQ112x112) Decode() *big.Int {
	var v uint256.Int
	v.Rsh(&u.Raw, Resolution)
	return v.ToBig()
}

// Mul multiplies a UQ112x112 by an unsigned integer into the widened
// UQ144x112 range, failing on overflow of the 256-bit word.
func (u UQ112x112) Mul(y *big.Int) (UQ144x112, error) {
	if y.Sign() < 0 {
		return UQ144x112{}, errors.New("FixedPoint: NEGATIVE")
	}
	v, of := uint256.FromBig(y)
	if of {
		return UQ144x112{}, errors.New("FixedPoint: OVERFLOW")
	}
	var w UQ144x112
	if _, of := w.Raw.MulOverflow(&u.Raw, v); of {
		return UQ144x112{}, errors.New("FixedPoint: OVERFLOW")
	}
	return w, nil
}

// Decode truncates a UQ144x112 to its integer part.
func (w UQ144x112) Decode() *big.Int {
	var v uint256.Int
	v.Rsh(&w.Raw, Resolution)
	return v.ToBig()
}

// Reciprocal returns 1/u as a UQ112x112. Fails for zero and for values so
// large that the reciprocal underflows to zero.
func (u UQ112x112) Reciprocal() (UQ112x112, error) {
	if u.Raw.IsZero() {
		return UQ112x112{}, errors.New("FixedPoint: DIV_BY_ZERO")
	}
	var r UQ112x112
	var q224 uint256.Int
	q224.Lsh(uint256.NewInt(1), 2*Resolution)
	r.Raw.Div(&q224, &u.Raw)
	if r.Raw.IsZero() {
		return UQ112x112{}, errors.New("FixedPoint: RECIPROCAL_ZERO")
	}
	return r, nil
}

// Sqrt returns the square root of u as a UQ112x112: sqrt(raw) << 56.
func (u UQ112x112) Sqrt() UQ112x112 {
	var r UQ112x112
	r.Raw.Sqrt(&u.Raw)
	r.Raw.Lsh(&r.Raw, Resolution/2)
	return r
}

// IsZero reports whether u holds no value.
func (u UQ112x112) IsZero() bool {
	return u.Raw.IsZero()
}
