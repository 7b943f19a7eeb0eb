package util

import (
	"math/big"
)

func IsPlus(a *big.Int) bool {
	return a.Cmp(Zero) > 0
}
func Clone(a *big.Int) *big.Int {
	return big.NewInt(0).Set(a)
}
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}
func Exp(a, b *big.Int) *big.Int {
	return big.NewInt(0).Exp(a, b, nil)
}
func Add(a, b *big.Int) *big.Int {
	return big.NewInt(0).Add(a, b)
}
func Sub(a, b *big.Int) *big.Int {
	return big.NewInt(0).Sub(a, b)
}
func Mul(a, b *big.Int) *big.Int {
	return big.NewInt(0).Mul(a, b)
}
func Div(a, b *big.Int) *big.Int {
	return big.NewInt(0).Div(a, b)
}
func AddC(a *big.Int, b int64) *big.Int {
	return big.NewInt(0).Add(a, big.NewInt(b))
}
func SubC(a *big.Int, b int64) *big.Int {
	return big.NewInt(0).Sub(a, big.NewInt(b))
}
func MulC(a *big.Int, b int64) *big.Int {
	return big.NewInt(0).Mul(a, big.NewInt(b))
}
func DivC(a *big.Int, b int64) *big.Int {
	return big.NewInt(0).Div(a, big.NewInt(b))
}
func MulDiv(a, b, denominator *big.Int) *big.Int {
	return Div(Mul(a, b), denominator)
}
func MulDivC(a, b *big.Int, denominator int64) *big.Int {
	return DivC(Mul(a, b), denominator)
}
func Pow10(a int) *big.Int {
	return Exp(big.NewInt(10), big.NewInt(int64(a)))
}

// Sqrt returns the integer square root floor(sqrt(a)) computed with the
// Babylonian method. Sqrt(a) = 0 for a <= 0.
func Sqrt(a *big.Int) *big.Int {
	if a.Cmp(Zero) <= 0 {
		return big.NewInt(0)
	}
	if a.Cmp(big.NewInt(3)) <= 0 {
		return big.NewInt(1)
	}
	z := Clone(a)
	x := AddC(Div(a, big.NewInt(2)), 1)
	for x.Cmp(z) < 0 {
		z = x
		x = Div(Add(Div(a, x), x), big.NewInt(2))
	}
	return z
}
