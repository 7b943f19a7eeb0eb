// Package router is the thin convenience layer over the pool engine: it
// quotes multi-hop routes with the pure swap math and sequences the
// transfer/mint/burn/swap calls for common liquidity and trading flows. It
// holds no funds and no pricing logic of its own.
package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/onefish6223/web3-defi/exchange/factory"
	"github.com/onefish6223/web3-defi/exchange/trade"
)

type Router struct {
	addr    common.Address
	factory *factory.Factory
	ledger  trade.Ledger
	clock   trade.Clock
}

func NewRouter(addr common.Address, f *factory.Factory, ledger trade.Ledger, clock trade.Clock) *Router {
	if clock == nil {
		clock = trade.SystemClock
	}
	return &Router{addr: addr, factory: f, ledger: ledger, clock: clock}
}

func (r *Router) Address() common.Address {
	return r.addr
}

func (r *Router) ensure(deadline uint64) error {
	if deadline != 0 && r.clock() > deadline {
		return ErrExpired
	}
	return nil
}

// addLiquidityAmounts fits the desired deposit onto the current reserve
// ratio, preferring the full A amount when the matching B fits.
func (r *Router) addLiquidityAmounts(tokenA, tokenB common.Address, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int) (*big.Int, *big.Int, error) {
	_, reserveA, reserveB, err := getReserves(r.factory, tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	if reserveA.Sign() == 0 && reserveB.Sign() == 0 {
		return amountADesired, amountBDesired, nil
	}

	amountBOptimal, err := trade.Quote(amountADesired, reserveA, reserveB)
	if err != nil {
		return nil, nil, err
	}
	if amountBOptimal.Cmp(amountBDesired) <= 0 {
		if amountBOptimal.Cmp(amountBMin) < 0 {
			return nil, nil, ErrInsufficientBAmount
		}
		return amountADesired, amountBOptimal, nil
	}

	amountAOptimal, err := trade.Quote(amountBDesired, reserveB, reserveA)
	if err != nil {
		return nil, nil, err
	}
	if amountAOptimal.Cmp(amountADesired) > 0 || amountAOptimal.Cmp(amountAMin) < 0 {
		return nil, nil, ErrInsufficientAAmount
	}
	return amountAOptimal, amountBDesired, nil
}

// AddLiquidity deposits a ratio-fitted amount pair into the pool and mints
// pool shares to the recipient.
func (r *Router) AddLiquidity(caller, tokenA, tokenB common.Address, amountADesired, amountBDesired, amountAMin, amountBMin *big.Int, to common.Address, deadline uint64) (*big.Int, *big.Int, *big.Int, error) {
	if err := r.ensure(deadline); err != nil {
		return nil, nil, nil, err
	}
	amountA, amountB, err := r.addLiquidityAmounts(tokenA, tokenB, amountADesired, amountBDesired, amountAMin, amountBMin)
	if err != nil {
		return nil, nil, nil, err
	}
	pair := r.factory.GetPair(tokenA, tokenB)

	snapshot := r.ledger.Snapshot()
	if err := r.ledger.Transfer(tokenA, caller, pair.Address(), amountA); err != nil {
		r.ledger.RevertToSnapshot(snapshot)
		return nil, nil, nil, err
	}
	if err := r.ledger.Transfer(tokenB, caller, pair.Address(), amountB); err != nil {
		r.ledger.RevertToSnapshot(snapshot)
		return nil, nil, nil, err
	}
	liquidity, err := pair.Mint(to)
	if err != nil {
		r.ledger.RevertToSnapshot(snapshot)
		return nil, nil, nil, err
	}
	return amountA, amountB, liquidity, nil
}

// RemoveLiquidity redeems pool shares for the underlying pair amounts,
// enforcing minimum outputs.
func (r *Router) RemoveLiquidity(caller, tokenA, tokenB common.Address, liquidity, amountAMin, amountBMin *big.Int, to common.Address, deadline uint64) (*big.Int, *big.Int, error) {
	if err := r.ensure(deadline); err != nil {
		return nil, nil, err
	}
	pair := r.factory.GetPair(tokenA, tokenB)
	if pair == nil {
		return nil, nil, ErrPairNotExist
	}

	// minimums are checked against a dry-run quote before anything settles
	quote0, quote1, err := pair.QuoteBurn(liquidity)
	if err != nil {
		return nil, nil, err
	}
	var quoteA, quoteB *big.Int
	if tokenA == pair.Token0() {
		quoteA, quoteB = quote0, quote1
	} else {
		quoteA, quoteB = quote1, quote0
	}
	if quoteA.Cmp(amountAMin) < 0 {
		return nil, nil, ErrInsufficientAAmount
	}
	if quoteB.Cmp(amountBMin) < 0 {
		return nil, nil, ErrInsufficientBAmount
	}

	if err := pair.Transfer(caller, pair.Address(), liquidity); err != nil {
		return nil, nil, err
	}
	amount0, amount1, err := pair.Burn(to)
	if err != nil {
		// hand the shares back; burn left no other state behind
		_ = pair.Transfer(pair.Address(), caller, liquidity)
		return nil, nil, err
	}

	var amountA, amountB *big.Int
	if tokenA == pair.Token0() {
		amountA, amountB = amount0, amount1
	} else {
		amountA, amountB = amount1, amount0
	}
	return amountA, amountB, nil
}

// swapAlongPath settles precomputed hop amounts, sending each intermediate
// output straight to the next pair.
func (r *Router) swapAlongPath(amounts []*big.Int, path []common.Address, to common.Address) error {
	for i := 0; i < len(path)-1; i++ {
		pair := r.factory.GetPair(path[i], path[i+1])
		amountOut := amounts[i+1]

		var amount0Out, amount1Out *big.Int
		if path[i] == pair.Token0() {
			amount0Out, amount1Out = big.NewInt(0), amountOut
		} else {
			amount0Out, amount1Out = amountOut, big.NewInt(0)
		}

		recipient := to
		if i < len(path)-2 {
			next := r.factory.GetPair(path[i+1], path[i+2])
			if next == nil {
				return ErrPairNotExist
			}
			recipient = next.Address()
		}
		if err := pair.Swap(r.addr, amount0Out, amount1Out, recipient, nil); err != nil {
			return err
		}
	}
	return nil
}

// SwapExactTokensForTokens trades a fixed input along a path for as much
// output as the route yields, bounded below by amountOutMin.
func (r *Router) SwapExactTokensForTokens(caller common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline uint64) ([]*big.Int, error) {
	if err := r.ensure(deadline); err != nil {
		return nil, err
	}
	amounts, err := GetAmountsOut(r.factory, amountIn, path)
	if err != nil {
		return nil, err
	}
	if amounts[len(amounts)-1].Cmp(amountOutMin) < 0 {
		return nil, ErrInsufficientOutputOnce
	}

	first := r.factory.GetPair(path[0], path[1])
	snapshot := r.ledger.Snapshot()
	if err := r.ledger.Transfer(path[0], caller, first.Address(), amounts[0]); err != nil {
		r.ledger.RevertToSnapshot(snapshot)
		return nil, err
	}
	if err := r.swapAlongPath(amounts, path, to); err != nil {
		r.ledger.RevertToSnapshot(snapshot)
		return nil, err
	}
	return amounts, nil
}

// SwapTokensForExactTokens trades as little input as the route allows for a
// fixed output, bounded above by amountInMax.
func (r *Router) SwapTokensForExactTokens(caller common.Address, amountOut, amountInMax *big.Int, path []common.Address, to common.Address, deadline uint64) ([]*big.Int, error) {
	if err := r.ensure(deadline); err != nil {
		return nil, err
	}
	amounts, err := GetAmountsIn(r.factory, amountOut, path)
	if err != nil {
		return nil, err
	}
	if amounts[0].Cmp(amountInMax) > 0 {
		return nil, ErrExcessiveInputAmount
	}

	first := r.factory.GetPair(path[0], path[1])
	snapshot := r.ledger.Snapshot()
	if err := r.ledger.Transfer(path[0], caller, first.Address(), amounts[0]); err != nil {
		r.ledger.RevertToSnapshot(snapshot)
		return nil, err
	}
	if err := r.swapAlongPath(amounts, path, to); err != nil {
		r.ledger.RevertToSnapshot(snapshot)
		return nil, err
	}
	return amounts, nil
}
