package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/onefish6223/web3-defi/exchange/factory"
	"github.com/onefish6223/web3-defi/exchange/trade"
	. "github.com/onefish6223/web3-defi/exchange/util"
)

var (
	ErrInvalidPath            = errors.New("Router: INVALID_PATH")
	ErrPairNotExist           = errors.New("Router: PAIR_NOT_EXIST")
	ErrInsufficientInAmount   = errors.New("Router: INSUFFICIENT_IN_AMOUNT")
	ErrInsufficientOutAmount  = errors.New("Router: INSUFFICIENT_OUT_AMOUNT")
	ErrExpired                = errors.New("Router: EXPIRED")
	ErrInsufficientAAmount    = errors.New("Router: INSUFFICIENT_A_AMOUNT")
	ErrInsufficientBAmount    = errors.New("Router: INSUFFICIENT_B_AMOUNT")
	ErrExcessiveInputAmount   = errors.New("Router: EXCESSIVE_INPUT_AMOUNT")
	ErrInsufficientOutputOnce = errors.New("Router: INSUFFICIENT_OUTPUT_AMOUNT")
)

// getReserves fetches a pair's reserves ordered for the given input token.
func getReserves(f *factory.Factory, tokenA, tokenB common.Address) (*trade.UniSwap, *big.Int, *big.Int, error) {
	pair := f.GetPair(tokenA, tokenB)
	if pair == nil {
		return nil, nil, nil, ErrPairNotExist
	}
	reserve0, reserve1, _ := pair.Reserves()
	if tokenA == pair.Token0() {
		return pair, reserve0, reserve1, nil
	}
	return pair, reserve1, reserve0, nil
}

// GetAmountsOut performs chained GetAmountOut calculations along a path.
// The result agrees bit for bit with what sequential pool settlement pays.
func GetAmountsOut(f *factory.Factory, amountIn *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	if !IsPlus(amountIn) {
		return nil, ErrInsufficientInAmount
	}

	amounts := make([]*big.Int, len(path))
	amounts[0] = amountIn
	for i := 0; i < len(path)-1; i++ {
		_, reserveIn, reserveOut, err := getReserves(f, path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		am, err := trade.GetAmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
		amounts[i+1] = am
	}
	return amounts, nil
}

// GetAmountsIn performs chained GetAmountIn calculations backwards along a
// path.
func GetAmountsIn(f *factory.Factory, amountOut *big.Int, path []common.Address) ([]*big.Int, error) {
	if len(path) < 2 {
		return nil, ErrInvalidPath
	}
	if !IsPlus(amountOut) {
		return nil, ErrInsufficientOutAmount
	}

	amounts := make([]*big.Int, len(path))
	amounts[len(amounts)-1] = amountOut
	for i := len(path) - 1; i > 0; i-- {
		_, reserveIn, reserveOut, err := getReserves(f, path[i-1], path[i])
		if err != nil {
			return nil, err
		}
		am, err := trade.GetAmountIn(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
		amounts[i-1] = am
	}
	return amounts, nil
}
