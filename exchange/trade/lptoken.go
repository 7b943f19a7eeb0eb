package trade

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	. "github.com/onefish6223/web3-defi/exchange/util"
)

// LPToken is the fungible pool-share ledger embedded in every pool. A share
// is a proportional claim on the pool's reserves. Shares minted to the zero
// address at genesis are unrecoverable by construction: the zero address
// can never be a transfer source.
type LPToken struct {
	tokenMu     sync.RWMutex
	name        string
	symbol      string
	totalSupply *big.Int
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
}

func (self *LPToken) initLPToken(name, symbol string) {
	self.name = name
	self.symbol = symbol
	self.totalSupply = big.NewInt(0)
	self.balances = map[common.Address]*big.Int{}
	self.allowances = map[common.Address]map[common.Address]*big.Int{}
}

func (self *LPToken) Name() string {
	return self.name
}
func (self *LPToken) Symbol() string {
	return self.symbol
}

func (self *LPToken) TotalSupply() *big.Int {
	self.tokenMu.RLock()
	defer self.tokenMu.RUnlock()
	return Clone(self.totalSupply)
}

func (self *LPToken) BalanceOf(owner common.Address) *big.Int {
	self.tokenMu.RLock()
	defer self.tokenMu.RUnlock()
	return Clone(self.balance(owner))
}

func (self *LPToken) Allowance(owner, spender common.Address) *big.Int {
	self.tokenMu.RLock()
	defer self.tokenMu.RUnlock()
	if m := self.allowances[owner]; m != nil {
		if a := m[spender]; a != nil {
			return Clone(a)
		}
	}
	return big.NewInt(0)
}

// balance reads without copying; callers hold tokenMu.
func (self *LPToken) balance(owner common.Address) *big.Int {
	if b := self.balances[owner]; b != nil {
		return b
	}
	return Zero
}

func (self *LPToken) _mint(to common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrMintNegativeAmount
	}
	self.tokenMu.Lock()
	defer self.tokenMu.Unlock()
	self.balances[to] = Add(self.balance(to), amount)
	self.totalSupply = Add(self.totalSupply, amount)
	return nil
}

func (self *LPToken) _burn(from common.Address, amount *big.Int) error {
	if amount.Sign() < 0 {
		return ErrBurnNegativeAmount
	}
	self.tokenMu.Lock()
	defer self.tokenMu.Unlock()
	balance := self.balance(from)
	if balance.Cmp(amount) < 0 {
		return ErrBurnExceedBalance
	}
	self.balances[from] = Sub(balance, amount)
	self.totalSupply = Sub(self.totalSupply, amount)
	return nil
}

func (self *LPToken) _transfer(from, to common.Address, amount *big.Int) error {
	if from == ZeroAddress || to == ZeroAddress {
		return ErrTransferZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrTransferNegativeAmount
	}
	self.tokenMu.Lock()
	defer self.tokenMu.Unlock()
	fromBalance := self.balance(from)
	if fromBalance.Cmp(amount) < 0 {
		return ErrTransferExceedBalance
	}
	self.balances[from] = Sub(fromBalance, amount)
	self.balances[to] = Add(self.balance(to), amount)
	return nil
}

// Transfer moves pool shares between holders. Moving shares onto the pool's
// own address is the precondition for Burn.
func (self *LPToken) Transfer(from, to common.Address, amount *big.Int) error {
	return self._transfer(from, to, amount)
}

// Approve sets the allowance of spender over owner's shares.
func (self *LPToken) Approve(owner, spender common.Address, amount *big.Int) error {
	if owner == ZeroAddress || spender == ZeroAddress {
		return ErrApproveZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrApproveNegativeAmount
	}
	self.tokenMu.Lock()
	defer self.tokenMu.Unlock()
	if self.allowances[owner] == nil {
		self.allowances[owner] = map[common.Address]*big.Int{}
	}
	self.allowances[owner][spender] = Clone(amount)
	return nil
}

// TransferFrom moves shares using the allowance mechanism. An allowance of
// MaxUint256 is treated as unlimited and never decremented.
func (self *LPToken) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	allowance := self.Allowance(from, spender)
	if amount.Cmp(allowance) > 0 {
		return ErrTransferExceedAllowed
	}
	if allowance.Cmp(MaxUint256) != 0 {
		if err := self.Approve(from, spender, Sub(allowance, amount)); err != nil {
			return err
		}
	}
	return self._transfer(from, to, amount)
}
