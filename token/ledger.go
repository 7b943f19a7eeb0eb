// Package token keeps fungible asset balances for every engine participant
// in one in-memory ledger. The ledger journals each mutation so a caller
// can snapshot before a multi-step settlement and roll everything back when
// a later step fails.
package token

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/onefish6223/web3-defi/exchange/trade"
	. "github.com/onefish6223/web3-defi/exchange/util"
)

var (
	ErrUnknownToken          = errors.New("Ledger: UNKNOWN_TOKEN")
	ErrInvalidAmount         = errors.New("Ledger: INVALID_AMOUNT")
	ErrInsufficientBalance   = errors.New("Ledger: INSUFFICIENT_BALANCE")
	ErrInsufficientAllowance = errors.New("Ledger: INSUFFICIENT_ALLOWANCE")
	ErrTokenExists           = errors.New("Ledger: TOKEN_EXISTS")
)

type balanceKey struct {
	token  common.Address
	holder common.Address
}

type allowanceKey struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

type tokenMeta struct {
	name   string
	symbol string
}

// journalEntry records the previous value of one mutated cell so reverts
// replay history backwards.
type journalEntry struct {
	kind      int
	balance   balanceKey
	allowance allowanceKey
	token     common.Address
	prev      *big.Int
}

const (
	journalBalance = iota
	journalSupply
	journalAllowance
	journalToken
)

type Ledger struct {
	mu sync.Mutex

	tokens     map[common.Address]tokenMeta
	balances   map[balanceKey]*big.Int
	supplies   map[common.Address]*big.Int
	allowances map[allowanceKey]*big.Int

	journal []journalEntry
}

func NewLedger() *Ledger {
	return &Ledger{
		tokens:     map[common.Address]tokenMeta{},
		balances:   map[balanceKey]*big.Int{},
		supplies:   map[common.Address]*big.Int{},
		allowances: map[allowanceKey]*big.Int{},
	}
}

// Issue registers a token under the given address. Issuing twice at the
// same address is an error.
func (lg *Ledger) Issue(token common.Address, name, symbol string) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if _, ok := lg.tokens[token]; ok {
		return ErrTokenExists
	}
	lg.tokens[token] = tokenMeta{name: name, symbol: symbol}
	lg.journal = append(lg.journal, journalEntry{kind: journalToken, token: token})
	return nil
}

func (lg *Ledger) Name(token common.Address) string {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.tokens[token].name
}

func (lg *Ledger) Symbol(token common.Address) string {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.tokens[token].symbol
}

func (lg *Ledger) setBalance(key balanceKey, v *big.Int) {
	prev := lg.balances[key]
	lg.journal = append(lg.journal, journalEntry{kind: journalBalance, balance: key, prev: prev})
	lg.balances[key] = v
}

func (lg *Ledger) setSupply(token common.Address, v *big.Int) {
	prev := lg.supplies[token]
	lg.journal = append(lg.journal, journalEntry{kind: journalSupply, token: token, prev: prev})
	lg.supplies[token] = v
}

func (lg *Ledger) setAllowance(key allowanceKey, v *big.Int) {
	prev := lg.allowances[key]
	lg.journal = append(lg.journal, journalEntry{kind: journalAllowance, allowance: key, prev: prev})
	lg.allowances[key] = v
}

// Mint credits freshly issued units to a holder and grows the supply.
func (lg *Ledger) Mint(token, to common.Address, amount *big.Int) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if _, ok := lg.tokens[token]; !ok {
		return ErrUnknownToken
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	key := balanceKey{token: token, holder: to}
	lg.setBalance(key, Add(lg.balance(key), amount))
	lg.setSupply(token, Add(lg.supply(token), amount))
	return nil
}

func (lg *Ledger) balance(key balanceKey) *big.Int {
	if v, ok := lg.balances[key]; ok {
		return v
	}
	return Zero
}

func (lg *Ledger) supply(token common.Address) *big.Int {
	if v, ok := lg.supplies[token]; ok {
		return v
	}
	return Zero
}

func (lg *Ledger) BalanceOf(token, holder common.Address) *big.Int {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return Clone(lg.balance(balanceKey{token: token, holder: holder}))
}

func (lg *Ledger) TotalSupply(token common.Address) *big.Int {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return Clone(lg.supply(token))
}

// Transfer moves units between holders. Zero-amount transfers succeed
// without touching the journal beyond the balance entries.
func (lg *Ledger) Transfer(token, from, to common.Address, amount *big.Int) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return lg.transfer(token, from, to, amount)
}

func (lg *Ledger) transfer(token, from, to common.Address, amount *big.Int) error {
	if _, ok := lg.tokens[token]; !ok {
		return ErrUnknownToken
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	fromKey := balanceKey{token: token, holder: from}
	if lg.balance(fromKey).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toKey := balanceKey{token: token, holder: to}
	lg.setBalance(fromKey, Sub(lg.balance(fromKey), amount))
	lg.setBalance(toKey, Add(lg.balance(toKey), amount))
	return nil
}

// Approve grants a spender the right to move up to amount of the owner's
// balance via TransferFrom.
func (lg *Ledger) Approve(token, owner, spender common.Address, amount *big.Int) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if _, ok := lg.tokens[token]; !ok {
		return ErrUnknownToken
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	lg.setAllowance(allowanceKey{token: token, owner: owner, spender: spender}, Clone(amount))
	return nil
}

func (lg *Ledger) Allowance(token, owner, spender common.Address) *big.Int {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if v, ok := lg.allowances[allowanceKey{token: token, owner: owner, spender: spender}]; ok {
		return Clone(v)
	}
	return big.NewInt(0)
}

// TransferFrom spends from an owner's allowance. An allowance equal to the
// maximum 256-bit value is treated as unlimited and never decremented.
func (lg *Ledger) TransferFrom(token, spender, from, to common.Address, amount *big.Int) error {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	key := allowanceKey{token: token, owner: from, spender: spender}
	allowance, ok := lg.allowances[key]
	if !ok || allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := lg.transfer(token, from, to, amount); err != nil {
		return err
	}
	if allowance.Cmp(MaxUint256) != 0 {
		lg.setAllowance(key, Sub(allowance, amount))
	}
	return nil
}

// Snapshot marks the current journal position. The id stays valid until a
// revert to it or to an earlier snapshot.
func (lg *Ledger) Snapshot() int {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	return len(lg.journal)
}

// RevertToSnapshot undoes every mutation journaled after the snapshot was
// taken, newest first.
func (lg *Ledger) RevertToSnapshot(id int) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if id < 0 || id > len(lg.journal) {
		return
	}
	for i := len(lg.journal) - 1; i >= id; i-- {
		e := lg.journal[i]
		switch e.kind {
		case journalBalance:
			if e.prev == nil {
				delete(lg.balances, e.balance)
			} else {
				lg.balances[e.balance] = e.prev
			}
		case journalSupply:
			if e.prev == nil {
				delete(lg.supplies, e.token)
			} else {
				lg.supplies[e.token] = e.prev
			}
		case journalAllowance:
			if e.prev == nil {
				delete(lg.allowances, e.allowance)
			} else {
				lg.allowances[e.allowance] = e.prev
			}
		case journalToken:
			delete(lg.tokens, e.token)
		}
	}
	lg.journal = lg.journal[:id]
}

var _ trade.Ledger = (*Ledger)(nil)
