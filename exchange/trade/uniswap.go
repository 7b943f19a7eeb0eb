package trade

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	. "github.com/onefish6223/web3-defi/exchange/util"
)

// UniSwap is a constant-product reserve pool over one asset pair. Reserves
// are the pool's recorded belief about its ledger balances, bounded to 112
// bits; the price accumulators and the truncated timestamp wrap by design.
// Every public operation either completes fully or fails with no surviving
// state change.
type UniSwap struct {
	LPToken
	Exchange

	stateMu sync.RWMutex

	initialized bool
	token0      common.Address
	token1      common.Address

	reserve0             *big.Int
	reserve1             *big.Int
	blockTimestampLast   WrapTime
	price0CumulativeLast uint256.Int
	price1CumulativeLast uint256.Int
	// reserve0*reserve1 as of the last liquidity event; only consulted to
	// size the protocol-fee skim, never used as a live value
	kLast *big.Int
}

// NewUniSwap builds an uninitialized pool owned by the given factory.
func NewUniSwap(addr, factory common.Address, registry Registry, ledger Ledger, clock Clock, name, symbol string) *UniSwap {
	p := &UniSwap{
		reserve0: big.NewInt(0),
		reserve1: big.NewInt(0),
		kLast:    big.NewInt(0),
	}
	p.addr = addr
	p.factory = factory
	p.registry = registry
	p.ledger = ledger
	p.clock = clock
	p.initLPToken(name, symbol)
	return p
}

// Initialize binds the pool's asset pair once. Only the owning factory may
// call it.
func (self *UniSwap) Initialize(caller, tokenA, tokenB common.Address) error {
	if caller != self.factory {
		return ErrForbidden
	}
	token0, token1, err := SortTokens(tokenA, tokenB)
	if err != nil {
		return err
	}

	self.stateMu.Lock()
	defer self.stateMu.Unlock()
	if self.initialized {
		return ErrAlreadyInitialized
	}
	self.token0 = token0
	self.token1 = token1
	self.initialized = true
	return nil
}

//////////////////////////////////////////////////
// UniSwap : public reader functions
//////////////////////////////////////////////////

func (self *UniSwap) Token0() common.Address {
	self.stateMu.RLock()
	defer self.stateMu.RUnlock()
	return self.token0
}
func (self *UniSwap) Token1() common.Address {
	self.stateMu.RLock()
	defer self.stateMu.RUnlock()
	return self.token1
}
func (self *UniSwap) Reserves() (*big.Int, *big.Int, WrapTime) {
	self.stateMu.RLock()
	defer self.stateMu.RUnlock()
	return Clone(self.reserve0), Clone(self.reserve1), self.blockTimestampLast
}
func (self *UniSwap) Price0CumulativeLast() uint256.Int {
	self.stateMu.RLock()
	defer self.stateMu.RUnlock()
	return self.price0CumulativeLast
}
func (self *UniSwap) Price1CumulativeLast() uint256.Int {
	self.stateMu.RLock()
	defer self.stateMu.RUnlock()
	return self.price1CumulativeLast
}
func (self *UniSwap) KLast() *big.Int {
	self.stateMu.RLock()
	defer self.stateMu.RUnlock()
	return Clone(self.kLast)
}

//////////////////////////////////////////////////
// UniSwap : private functions
//////////////////////////////////////////////////

func checkReserveBounds(balance0, balance1 *big.Int) error {
	if balance0.Cmp(MaxUint112) > 0 || balance1.Cmp(MaxUint112) > 0 {
		return ErrOverflow
	}
	return nil
}

// _update commits new reserves and advances the price accumulators. The
// accumulators only move when time has elapsed and both old reserves are
// non-zero; the products below wrap mod 2^256 by design. Callers have
// verified the 112-bit reserve bound already.
func (self *UniSwap) _update(balance0, balance1, _reserve0, _reserve1 *big.Int) {
	blockTimestamp := self.now()

	self.stateMu.Lock()
	defer self.stateMu.Unlock()

	timeElapsed := blockTimestamp.Elapsed(self.blockTimestampLast)
	if timeElapsed > 0 && IsPlus(_reserve0) && IsPlus(_reserve1) {
		price0, _ := FractionUQ112(_reserve1, _reserve0)
		price1, _ := FractionUQ112(_reserve0, _reserve1)
		elapsed := uint256.NewInt(uint64(timeElapsed))
		var d uint256.Int
		d.Mul(&price0.Raw, elapsed)
		self.price0CumulativeLast.Add(&self.price0CumulativeLast, &d)
		d.Mul(&price1.Raw, elapsed)
		self.price1CumulativeLast.Add(&self.price1CumulativeLast, &d)
	}
	self.reserve0 = Clone(balance0)
	self.reserve1 = Clone(balance1)
	self.blockTimestampLast = blockTimestamp
}

// getMintFee sizes the pending protocol-fee mint from invariant growth
// since the last liquidity event: exactly one sixth of the fee revenue the
// liquidity providers accrued over that window.
func (self *UniSwap) getMintFee(_reserve0, _reserve1 *big.Int) (bool, common.Address, *big.Int) {
	feeTo := self.registry.FeeTo()
	feeOn := feeTo != ZeroAddress
	liquidity := big.NewInt(0)
	if feeOn && IsPlus(self.kLast) {
		rootK := Sqrt(Mul(_reserve0, _reserve1))
		rootKLast := Sqrt(self.kLast)
		if rootK.Cmp(rootKLast) > 0 {
			numerator := Mul(self.TotalSupply(), Sub(rootK, rootKLast))
			denominator := Add(MulC(rootK, 5), rootKLast)
			liquidity = Div(numerator, denominator)
		}
	}
	return feeOn, feeTo, liquidity
}

func (self *UniSwap) setKLast(k *big.Int) {
	self.stateMu.Lock()
	self.kLast = Clone(k)
	self.stateMu.Unlock()
}

//////////////////////////////////////////////////
// UniSwap : public writer functions
//////////////////////////////////////////////////

// Mint issues pool shares for assets already transferred to the pool. The
// deposit is read as the difference between actual balances and recorded
// reserves. At genesis the issue is sqrt(amount0*amount1) less the minimum
// liquidity, which is locked forever under the zero address.
func (self *UniSwap) Mint(to common.Address) (*big.Int, error) {
	if err := self.lock(); err != nil {
		return nil, err
	}
	defer self.unlock()

	_reserve0, _reserve1, _ := self.Reserves()
	balance0 := self.balanceOf(self.Token0())
	balance1 := self.balanceOf(self.Token1())
	if err := checkReserveBounds(balance0, balance1); err != nil {
		return nil, err
	}

	amount0 := Sub(balance0, _reserve0)
	amount1 := Sub(balance1, _reserve1)
	if amount0.Sign() < 0 || amount1.Sign() < 0 {
		return nil, ErrInsufficientAmount
	}

	feeOn, feeTo, feeLiquidity := self.getMintFee(_reserve0, _reserve1)
	_totalSupply := Add(self.TotalSupply(), feeLiquidity)

	var liquidity *big.Int
	if _totalSupply.Cmp(Zero) == 0 {
		liquidity = SubC(Sqrt(Mul(amount0, amount1)), MINIMUM_LIQUIDITY)
	} else {
		liquidity = Min(MulDiv(amount0, _totalSupply, _reserve0), MulDiv(amount1, _totalSupply, _reserve1))
	}
	if !IsPlus(liquidity) {
		return nil, ErrInsufficientLiquidityMinted
	}

	// checks done; commit
	if feeOn && IsPlus(feeLiquidity) {
		self._mint(feeTo, feeLiquidity)
	}
	if _totalSupply.Cmp(Zero) == 0 {
		self._mint(ZeroAddress, big.NewInt(MINIMUM_LIQUIDITY))
	}
	self._mint(to, liquidity)

	self._update(balance0, balance1, _reserve0, _reserve1)
	if feeOn {
		self.setKLast(Mul(balance0, balance1))
	} else if IsPlus(self.KLast()) {
		self.setKLast(Zero)
	}

	if self.events != nil && self.events.Mint != nil {
		self.events.Mint(self.addr, to, amount0, amount1)
	}
	return liquidity, nil
}

// Burn redeems the pool shares held by the pool itself against the current
// balances, so accrued swap fees are paid out pro rata.
func (self *UniSwap) Burn(to common.Address) (*big.Int, *big.Int, error) {
	if err := self.lock(); err != nil {
		return nil, nil, err
	}
	defer self.unlock()

	_reserve0, _reserve1, _ := self.Reserves()
	_token0, _token1 := self.Token0(), self.Token1()
	balance0 := self.balanceOf(_token0)
	balance1 := self.balanceOf(_token1)
	liquidity := self.BalanceOf(self.addr)

	feeOn, feeTo, feeLiquidity := self.getMintFee(_reserve0, _reserve1)
	_totalSupply := Add(self.TotalSupply(), feeLiquidity)

	amount0 := MulDiv(liquidity, balance0, _totalSupply)
	amount1 := MulDiv(liquidity, balance1, _totalSupply)
	if !(IsPlus(amount0) && IsPlus(amount1)) {
		return nil, nil, ErrInsufficientLiquidityBurned
	}

	// checks done; commit
	snapshot := self.ledger.Snapshot()
	if err := self.safeTransfer(_token0, to, amount0); err != nil {
		self.ledger.RevertToSnapshot(snapshot)
		return nil, nil, err
	}
	if err := self.safeTransfer(_token1, to, amount1); err != nil {
		self.ledger.RevertToSnapshot(snapshot)
		return nil, nil, err
	}
	if err := self._burn(self.addr, liquidity); err != nil {
		self.ledger.RevertToSnapshot(snapshot)
		return nil, nil, err
	}
	if feeOn && IsPlus(feeLiquidity) {
		self._mint(feeTo, feeLiquidity)
	}

	balance0 = Sub(balance0, amount0)
	balance1 = Sub(balance1, amount1)
	self._update(balance0, balance1, _reserve0, _reserve1)
	if feeOn {
		self.setKLast(Mul(balance0, balance1))
	} else if IsPlus(self.KLast()) {
		self.setKLast(Zero)
	}

	if self.events != nil && self.events.Burn != nil {
		self.events.Burn(self.addr, to, amount0, amount1)
	}
	return amount0, amount1, nil
}

// QuoteBurn reports the amounts a burn of the given share quantity would
// pay out right now, including the dilution of a pending protocol-fee mint.
// Nothing is settled.
func (self *UniSwap) QuoteBurn(liquidity *big.Int) (*big.Int, *big.Int, error) {
	if err := self.lock(); err != nil {
		return nil, nil, err
	}
	defer self.unlock()

	_reserve0, _reserve1, _ := self.Reserves()
	balance0 := self.balanceOf(self.Token0())
	balance1 := self.balanceOf(self.Token1())

	_, _, feeLiquidity := self.getMintFee(_reserve0, _reserve1)
	_totalSupply := Add(self.TotalSupply(), feeLiquidity)
	if !IsPlus(_totalSupply) {
		return nil, nil, ErrInsufficientLiquidityBurned
	}
	return MulDiv(liquidity, balance0, _totalSupply), MulDiv(liquidity, balance1, _totalSupply), nil
}

// Swap transfers the requested outputs optimistically, runs the flash-swap
// callback when data is non-empty, infers the inputs from the resulting
// balances and enforces the fee-adjusted constant-product check. A failed
// callback or a failed check discards every balance movement of the call.
func (self *UniSwap) Swap(caller common.Address, amount0Out, amount1Out *big.Int, to common.Address, data []byte) error {
	if err := self.lock(); err != nil {
		return err
	}
	defer self.unlock()

	if amount0Out.Sign() < 0 || amount1Out.Sign() < 0 {
		return ErrInsufficientOutputAmount
	}
	if !(IsPlus(amount0Out) || IsPlus(amount1Out)) {
		return ErrInsufficientOutputAmount
	}
	_reserve0, _reserve1, _ := self.Reserves()
	if !(amount0Out.Cmp(_reserve0) < 0 && amount1Out.Cmp(_reserve1) < 0) {
		return ErrInsufficientLiquidity
	}
	_token0, _token1 := self.Token0(), self.Token1()

	snapshot := self.ledger.Snapshot()
	fail := func(err error) error {
		self.ledger.RevertToSnapshot(snapshot)
		return err
	}

	// optimistic transfer, then verify
	if IsPlus(amount0Out) {
		if err := self.safeTransfer(_token0, to, amount0Out); err != nil {
			return fail(err)
		}
	}
	if IsPlus(amount1Out) {
		if err := self.safeTransfer(_token1, to, amount1Out); err != nil {
			return fail(err)
		}
	}
	if len(data) > 0 {
		callee, ok := self.registry.Callee(to)
		if !ok {
			return fail(ErrNoFlashSwapCallee)
		}
		if err := callee.FlashSwapCall(caller, amount0Out, amount1Out, data); err != nil {
			return fail(err)
		}
	}
	balance0 := self.balanceOf(_token0)
	balance1 := self.balanceOf(_token1)
	if err := checkReserveBounds(balance0, balance1); err != nil {
		return fail(err)
	}

	var amount0In, amount1In *big.Int
	if balance0.Cmp(Sub(_reserve0, amount0Out)) > 0 {
		amount0In = Sub(balance0, Sub(_reserve0, amount0Out))
	} else {
		amount0In = big.NewInt(0)
	}
	if balance1.Cmp(Sub(_reserve1, amount1Out)) > 0 {
		amount1In = Sub(balance1, Sub(_reserve1, amount1Out))
	} else {
		amount1In = big.NewInt(0)
	}
	if !(IsPlus(amount0In) || IsPlus(amount1In)) {
		return fail(ErrInsufficientInputAmount)
	}

	balance0Adjusted := Sub(MulC(balance0, FEE_DENOMINATOR), MulC(amount0In, FEE_DENOMINATOR-FEE_NUMERATOR))
	balance1Adjusted := Sub(MulC(balance1, FEE_DENOMINATOR), MulC(amount1In, FEE_DENOMINATOR-FEE_NUMERATOR))
	if Mul(balance0Adjusted, balance1Adjusted).Cmp(MulC(MulC(Mul(_reserve0, _reserve1), FEE_DENOMINATOR), FEE_DENOMINATOR)) < 0 {
		return fail(ErrK)
	}

	self._update(balance0, balance1, _reserve0, _reserve1)

	if self.events != nil && self.events.Swap != nil {
		self.events.Swap(self.addr, to, amount0In, amount1In, amount0Out, amount1Out)
	}
	return nil
}

// Skim transfers out any balance in excess of the recorded reserves without
// touching share accounting.
func (self *UniSwap) Skim(to common.Address) error {
	if err := self.lock(); err != nil {
		return err
	}
	defer self.unlock()

	_reserve0, _reserve1, _ := self.Reserves()
	_token0, _token1 := self.Token0(), self.Token1()
	amount0 := Sub(self.balanceOf(_token0), _reserve0)
	amount1 := Sub(self.balanceOf(_token1), _reserve1)
	if amount0.Sign() < 0 || amount1.Sign() < 0 {
		return ErrInsufficientAmount
	}

	snapshot := self.ledger.Snapshot()
	if IsPlus(amount0) {
		if err := self.safeTransfer(_token0, to, amount0); err != nil {
			self.ledger.RevertToSnapshot(snapshot)
			return err
		}
	}
	if IsPlus(amount1) {
		if err := self.safeTransfer(_token1, to, amount1); err != nil {
			self.ledger.RevertToSnapshot(snapshot)
			return err
		}
	}
	return nil
}

// Sync forces the recorded reserves to match the actual balances; a
// recovery operation for reserve/balance desynchronization.
func (self *UniSwap) Sync() error {
	if err := self.lock(); err != nil {
		return err
	}
	defer self.unlock()

	_reserve0, _reserve1, _ := self.Reserves()
	balance0 := self.balanceOf(self.Token0())
	balance1 := self.balanceOf(self.Token1())
	if err := checkReserveBounds(balance0, balance1); err != nil {
		return err
	}
	self._update(balance0, balance1, _reserve0, _reserve1)

	if self.events != nil && self.events.Sync != nil {
		self.events.Sync(self.addr, balance0, balance1)
	}
	return nil
}
