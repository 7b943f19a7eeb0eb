package trade

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	. "github.com/onefish6223/web3-defi/exchange/util"
)

const (
	// swap fee: 0.3% of the input, charged inside the constant product check
	FEE_NUMERATOR   = 997
	FEE_DENOMINATOR = 1000

	// pool shares permanently locked at genesis
	MINIMUM_LIQUIDITY = 1000
)

// SortTokens orders two token addresses into the canonical (token0, token1)
// pair ordering.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address, error) {
	if tokenA == tokenB {
		return ZeroAddress, ZeroAddress, ErrIdenticalAddresses
	}

	var token0, token1 common.Address
	if bytes.Compare(tokenA[:], tokenB[:]) < 0 {
		token0, token1 = tokenA, tokenB
	} else {
		token0, token1 = tokenB, tokenA
	}

	if token0 == ZeroAddress {
		return ZeroAddress, ZeroAddress, ErrZeroAddress
	}

	return token0, token1, nil
}

// PairFor calculates the deterministic address of the pair for two tokens
// without consulting the factory state.
func PairFor(factory, tokenA, tokenB common.Address) (common.Address, error) {
	token0, token1, err := SortTokens(tokenA, tokenB)
	if err != nil {
		return ZeroAddress, err
	}
	return pairAddress(factory, token0, token1), nil
}

func pairAddress(factory, token0, token1 common.Address) common.Address {
	base := make([]byte, 1+common.AddressLength*3)
	base[0] = 0xff
	copy(base[1:], factory[:])
	copy(base[1+common.AddressLength:], token0[:])
	copy(base[1+common.AddressLength*2:], token1[:])
	h := crypto.Keccak256(base)
	return common.BytesToAddress(h[12:])
}

// Quote converts an amount of one asset to the equivalent amount of the
// other at the current reserve ratio, with no fee.
func Quote(amountA, reserveA, reserveB *big.Int) (*big.Int, error) {
	if !IsPlus(amountA) {
		return nil, ErrInsufficientAmount
	}
	if !IsPlus(reserveA) || !IsPlus(reserveB) {
		return nil, ErrInsufficientLiquidity
	}
	return MulDiv(amountA, reserveB, reserveA), nil
}

// GetAmountOut returns the maximum output amount for a given input amount
// and pair reserves, charging the 0.3% fee on the input. Rounds down.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if !IsPlus(amountIn) {
		return nil, ErrInsufficientInputAmount
	}
	if !IsPlus(reserveIn) || !IsPlus(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}
	amountInWithFee := MulC(amountIn, FEE_NUMERATOR)
	numerator := Mul(amountInWithFee, reserveOut)
	denominator := Add(MulC(reserveIn, FEE_DENOMINATOR), amountInWithFee)
	return Div(numerator, denominator), nil
}

// GetAmountIn returns the required input amount for a desired output amount
// and pair reserves. Rounds up so the computed input always satisfies the
// pool's own forward check.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if !IsPlus(amountOut) {
		return nil, ErrInsufficientOutputAmount
	}
	if !IsPlus(reserveIn) || !IsPlus(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	numerator := MulC(Mul(reserveIn, amountOut), FEE_DENOMINATOR)
	denominator := MulC(Sub(reserveOut, amountOut), FEE_NUMERATOR)
	return Add(Div(numerator, denominator), One), nil
}
