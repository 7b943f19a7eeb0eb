package trade

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	. "github.com/onefish6223/web3-defi/exchange/util"
)

// Ledger is the pool's view of the external asset ledger. A Transfer either
// fully succeeds or leaves balances unchanged; a failed transfer is fatal
// for the enclosing pool operation. Snapshot/RevertToSnapshot bracket the
// optimistic transfers of a flash swap so that a failed swap discards every
// balance movement it caused.
type Ledger interface {
	BalanceOf(token, holder common.Address) *big.Int
	Transfer(token, from, to common.Address, amount *big.Int) error
	Snapshot() int
	RevertToSnapshot(id int)
}

// FlashSwapCallee is the single entry point a swap recipient must expose to
// receive the flash-swap callback. Returning an error fails the enclosing
// swap entirely.
type FlashSwapCallee interface {
	FlashSwapCall(sender common.Address, amount0Out, amount1Out *big.Int, data []byte) error
}

// Registry is the pool's view of its owning factory: the protocol-fee
// recipient (ZeroAddress = disabled) read at fee-sizing time, and the
// resolver mapping a recipient address to its registered flash-swap callee.
type Registry interface {
	FeeTo() common.Address
	Callee(addr common.Address) (FlashSwapCallee, bool)
}

// Clock supplies unix seconds. Pools truncate it to the wrapping timestamp
// width for accumulator bookkeeping.
type Clock func() uint64

// SystemClock reads the wall clock.
func SystemClock() uint64 {
	return uint64(time.Now().Unix())
}

// Events receives pool state-change notifications. Nil fields are skipped.
type Events struct {
	Mint func(pool, to common.Address, amount0, amount1 *big.Int)
	Burn func(pool, to common.Address, amount0, amount1 *big.Int)
	Swap func(pool, to common.Address, amount0In, amount1In, amount0Out, amount1Out *big.Int)
	Sync func(pool common.Address, reserve0, reserve1 *big.Int)
}

// Exchange carries the state every pool flavor shares: its own address, the
// owning factory, the injected collaborators and the reentrancy flag.
type Exchange struct {
	mu     sync.Mutex
	locked bool

	addr     common.Address
	factory  common.Address
	registry Registry
	ledger   Ledger
	clock    Clock
	events   *Events
}

func (self *Exchange) Address() common.Address {
	return self.addr
}
func (self *Exchange) Factory() common.Address {
	return self.factory
}

// SetEvents installs a state-change listener. Not safe to swap while
// operations are in flight.
func (self *Exchange) SetEvents(ev *Events) {
	self.events = ev
}

// lock sets the reentrancy flag for one public operation. The swap path
// hands control to untrusted callback code, so re-entry from that code must
// fail with ErrLocked instead of deadlocking on a held mutex.
func (self *Exchange) lock() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if self.locked {
		return ErrLocked
	}
	self.locked = true
	return nil
}

func (self *Exchange) unlock() {
	self.mu.Lock()
	self.locked = false
	self.mu.Unlock()
}

func (self *Exchange) now() WrapTime {
	return ToWrapTime(self.clock())
}

func (self *Exchange) balanceOf(token common.Address) *big.Int {
	return self.ledger.BalanceOf(token, self.addr)
}

func (self *Exchange) safeTransfer(token, to common.Address, amount *big.Int) error {
	return self.ledger.Transfer(token, self.addr, to, amount)
}
