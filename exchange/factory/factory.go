// Package factory owns the pool registry: one pool per sorted asset pair,
// resolved through a keyed collection rather than environment-derived
// addresses, plus the protocol-fee recipient and the flash-swap callee
// registrations the pools consult.
package factory

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/onefish6223/web3-defi/exchange/trade"
	. "github.com/onefish6223/web3-defi/exchange/util"
)

var (
	ErrPairExists = errors.New("Exchange: PAIR_EXISTS")
	ErrForbidden  = errors.New("Exchange: FORBIDDEN")
)

type pairKey struct {
	token0, token1 common.Address
}

type Factory struct {
	mu sync.RWMutex

	addr   common.Address
	owner  common.Address
	feeTo  common.Address
	ledger trade.Ledger
	clock  trade.Clock

	pairs    map[pairKey]*trade.UniSwap
	allPairs []*trade.UniSwap
	callees  map[common.Address]trade.FlashSwapCallee
}

func NewFactory(addr, owner common.Address, ledger trade.Ledger, clock trade.Clock) *Factory {
	if clock == nil {
		clock = trade.SystemClock
	}
	return &Factory{
		addr:     addr,
		owner:    owner,
		ledger:   ledger,
		clock:    clock,
		pairs:    map[pairKey]*trade.UniSwap{},
		callees:  map[common.Address]trade.FlashSwapCallee{},
		allPairs: []*trade.UniSwap{},
	}
}

func (f *Factory) Address() common.Address {
	return f.addr
}
func (f *Factory) Owner() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.owner
}

func (f *Factory) onlyOwner(caller common.Address) error {
	if caller != f.Owner() {
		return ErrForbidden
	}
	return nil
}

// CreatePair deploys the pool for a token pair at its deterministic address
// and records it under the sorted-pair key.
func (f *Factory) CreatePair(caller, tokenA, tokenB common.Address) (*trade.UniSwap, error) {
	if err := f.onlyOwner(caller); err != nil {
		return nil, err
	}
	token0, token1, err := trade.SortTokens(tokenA, tokenB)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey{token0: token0, token1: token1}
	if _, ok := f.pairs[key]; ok {
		return nil, ErrPairExists
	}

	addr, err := trade.PairFor(f.addr, token0, token1)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("LP %d", len(f.allPairs)+1)
	pair := trade.NewUniSwap(addr, f.addr, f, f.ledger, f.clock, name, "LP")
	if err := pair.Initialize(f.addr, token0, token1); err != nil {
		return nil, err
	}

	f.pairs[key] = pair
	f.allPairs = append(f.allPairs, pair)
	return pair, nil
}

// GetPair resolves a pool by its token pair in either order.
func (f *Factory) GetPair(tokenA, tokenB common.Address) *trade.UniSwap {
	token0, token1, err := trade.SortTokens(tokenA, tokenB)
	if err != nil {
		return nil
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.pairs[pairKey{token0: token0, token1: token1}]
}

func (f *Factory) AllPairs() []*trade.UniSwap {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*trade.UniSwap, len(f.allPairs))
	copy(out, f.allPairs)
	return out
}

func (f *Factory) AllPairsLength() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.allPairs)
}

// SetFeeTo switches the protocol-fee skim on (non-zero recipient) or off
// (zero address sentinel).
func (f *Factory) SetFeeTo(caller, feeTo common.Address) error {
	if err := f.onlyOwner(caller); err != nil {
		return err
	}
	f.mu.Lock()
	f.feeTo = feeTo
	f.mu.Unlock()
	return nil
}

// FeeTo reports the protocol-fee recipient; pools read it at fee-sizing
// time.
func (f *Factory) FeeTo() common.Address {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.feeTo
}

// SetOwner hands the registry to a new owner.
func (f *Factory) SetOwner(caller, owner common.Address) error {
	if err := f.onlyOwner(caller); err != nil {
		return err
	}
	if owner == ZeroAddress {
		return trade.ErrZeroAddress
	}
	f.mu.Lock()
	f.owner = owner
	f.mu.Unlock()
	return nil
}

// RegisterCallee binds a flash-swap callback entry point to a recipient
// address. Pools resolve swap recipients here when callback data is
// supplied.
func (f *Factory) RegisterCallee(addr common.Address, callee trade.FlashSwapCallee) {
	f.mu.Lock()
	f.callees[addr] = callee
	f.mu.Unlock()
}

// Callee resolves a registered flash-swap callback target.
func (f *Factory) Callee(addr common.Address) (trade.FlashSwapCallee, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.callees[addr]
	return c, ok
}

var _ trade.Registry = (*Factory)(nil)
