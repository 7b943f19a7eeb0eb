// Package oracle derives a manipulation-resistant average price from a
// pool's cumulative price accumulators. The average is refreshed at most
// once per sampling period, so a single trade inside a period moves the
// next reported average by its size over the elapsed time only, never by
// the full instantaneous price deviation it caused.
package oracle

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/onefish6223/web3-defi/exchange/trade"
	. "github.com/onefish6223/web3-defi/exchange/util"
)

// DefaultPeriod is the reference sampling window in seconds.
const DefaultPeriod = uint64(24 * 60 * 60)

var (
	ErrNoReserves       = errors.New("Oracle: NO_RESERVES")
	ErrPeriodNotElapsed = errors.New("Oracle: PERIOD_NOT_ELAPSED")
	ErrInvalidToken     = errors.New("Oracle: INVALID_TOKEN")
)

type Oracle struct {
	mu sync.Mutex

	pair   *trade.UniSwap
	token0 common.Address
	token1 common.Address
	period uint64
	clock  trade.Clock

	price0CumulativeLast uint256.Int
	price1CumulativeLast uint256.Int
	blockTimestampLast   WrapTime

	price0Average UQ112x112
	price1Average UQ112x112
}

// NewOracle starts sampling a pair. The pair must already hold liquidity;
// there is no average to bootstrap from an empty pool.
func NewOracle(pair *trade.UniSwap, period uint64, clock trade.Clock) (*Oracle, error) {
	if period == 0 {
		period = DefaultPeriod
	}
	if clock == nil {
		clock = trade.SystemClock
	}
	reserve0, reserve1, blockTimestampLast := pair.Reserves()
	if !IsPlus(reserve0) || !IsPlus(reserve1) {
		return nil, ErrNoReserves
	}
	o := &Oracle{
		pair:                 pair,
		token0:               pair.Token0(),
		token1:               pair.Token1(),
		period:               period,
		clock:                clock,
		price0CumulativeLast: pair.Price0CumulativeLast(),
		price1CumulativeLast: pair.Price1CumulativeLast(),
		blockTimestampLast:   blockTimestampLast,
	}
	return o, nil
}

func (o *Oracle) Period() uint64 {
	return o.period
}

// currentCumulativePrices projects the pair's accumulators to now. When the
// pair has not been touched in the current second the projection adds the
// still-running spot fraction times the gap, exactly as the pair's own
// update would.
func (o *Oracle) currentCumulativePrices() (uint256.Int, uint256.Int, WrapTime) {
	blockTimestamp := ToWrapTime(o.clock())
	price0Cumulative := o.pair.Price0CumulativeLast()
	price1Cumulative := o.pair.Price1CumulativeLast()

	reserve0, reserve1, blockTimestampLast := o.pair.Reserves()
	if blockTimestampLast != blockTimestamp && IsPlus(reserve0) && IsPlus(reserve1) {
		timeElapsed := blockTimestamp.Elapsed(blockTimestampLast)
		elapsed := uint256.NewInt(uint64(timeElapsed))
		price0, _ := FractionUQ112(reserve1, reserve0)
		price1, _ := FractionUQ112(reserve0, reserve1)
		var d uint256.Int
		d.Mul(&price0.Raw, elapsed)
		price0Cumulative.Add(&price0Cumulative, &d)
		d.Mul(&price1.Raw, elapsed)
		price1Cumulative.Add(&price1Cumulative, &d)
	}
	return price0Cumulative, price1Cumulative, blockTimestamp
}

// Update refreshes the averages once per period from the accumulator delta
// over the elapsed time, then rebaselines.
func (o *Oracle) Update() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	price0Cumulative, price1Cumulative, blockTimestamp := o.currentCumulativePrices()
	timeElapsed := blockTimestamp.Elapsed(o.blockTimestampLast)
	if uint64(timeElapsed) < o.period {
		return ErrPeriodNotElapsed
	}

	elapsed := uint256.NewInt(uint64(timeElapsed))
	// cumulative deltas use the same wrapping subtraction the accumulators
	// were built with
	var d0, d1 uint256.Int
	d0.Sub(&price0Cumulative, &o.price0CumulativeLast)
	d1.Sub(&price1Cumulative, &o.price1CumulativeLast)
	o.price0Average.Raw.Div(&d0, elapsed)
	o.price1Average.Raw.Div(&d1, elapsed)

	o.price0CumulativeLast = price0Cumulative
	o.price1CumulativeLast = price1Cumulative
	o.blockTimestampLast = blockTimestamp
	return nil
}

// Consult converts an input amount of one pair asset to the other at the
// stored average price. Always returns zero before the first Update.
func (o *Oracle) Consult(token common.Address, amountIn *big.Int) (*big.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var avg UQ112x112
	switch token {
	case o.token0:
		avg = o.price0Average
	case o.token1:
		avg = o.price1Average
	default:
		return nil, ErrInvalidToken
	}
	wide, err := avg.Mul(amountIn)
	if err != nil {
		return nil, err
	}
	return wide.Decode(), nil
}
