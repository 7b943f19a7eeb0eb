package trade

import (
	"github.com/pkg/errors"
)

// Exchange errors. The swap-facing set mirrors the checks of the pool state
// machine one to one: every failed operation leaves no state change behind.
var (
	ErrIdenticalAddresses = errors.New("Exchange: IDENTICAL_ADDRESSES")
	ErrZeroAddress        = errors.New("Exchange: ZERO_ADDRESS")
	ErrForbidden          = errors.New("Exchange: FORBIDDEN")
	ErrAlreadyInitialized = errors.New("Exchange: ALREADY_INITIALIZED")
	ErrNotInitialized     = errors.New("Exchange: NOT_INITIALIZED")
	ErrLocked             = errors.New("Exchange: LOCKED")
	ErrOverflow           = errors.New("Exchange: OVERFLOW")

	ErrInsufficientAmount          = errors.New("Exchange: INSUFFICIENT_AMOUNT")
	ErrInsufficientLiquidity       = errors.New("Exchange: INSUFFICIENT_LIQUIDITY")
	ErrInsufficientInputAmount     = errors.New("Exchange: INSUFFICIENT_INPUT_AMOUNT")
	ErrInsufficientOutputAmount    = errors.New("Exchange: INSUFFICIENT_OUTPUT_AMOUNT")
	ErrInsufficientLiquidityMinted = errors.New("Exchange: INSUFFICIENT_LIQUIDITY_MINTED")
	ErrInsufficientLiquidityBurned = errors.New("Exchange: INSUFFICIENT_LIQUIDITY_BURNED")
	ErrK                           = errors.New("Exchange: K")
	ErrNoFlashSwapCallee           = errors.New("Exchange: NO_FLASH_SWAP_CALLEE")
)

// LPToken errors.
var (
	ErrMintNegativeAmount     = errors.New("LPToken: MINT_NEGATIVE_AMOUNT")
	ErrBurnNegativeAmount     = errors.New("LPToken: BURN_NEGATIVE_AMOUNT")
	ErrBurnExceedBalance      = errors.New("LPToken: BURN_EXCEED_BALANCE")
	ErrTransferNegativeAmount = errors.New("LPToken: TRANSFER_NEGATIVE_AMOUNT")
	ErrTransferExceedBalance  = errors.New("LPToken: TRANSFER_EXCEED_BALANCE")
	ErrTransferExceedAllowed  = errors.New("LPToken: TRANSFER_EXCEED_ALLOWANCE")
	ErrTransferZeroAddress    = errors.New("LPToken: TRANSFER_ZERO_ADDRESS")
	ErrApproveZeroAddress     = errors.New("LPToken: APPROVE_ZERO_ADDRESS")
	ErrApproveNegativeAmount  = errors.New("LPToken: APPROVE_NEGATIVE_AMOUNT")
)
