package flashpool

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized rejects an owner-gated operation from a non-owner.
	ErrUnauthorized = errors.New("flashpool: unauthorized")
	// ErrInsufficientFunds rejects a draw that exceeds available liquidity
	// with no authorized fallback.
	ErrInsufficientFunds = errors.New("flashpool: insufficient funds")
	// ErrLoanAlreadyActive rejects a second concurrent loan per borrower.
	ErrLoanAlreadyActive = errors.New("flashpool: loan already active")
	// ErrNoActiveLoan rejects repayment or force-clear for a borrower with
	// no open loan.
	ErrNoActiveLoan = errors.New("flashpool: no active loan")
	// ErrInvalidAmount rejects a zero or negative amount where a positive
	// amount is required.
	ErrInvalidAmount = errors.New("flashpool: amount must be positive")
	// ErrFlashMintingDisabled rejects a loan above pooled liquidity while
	// the minting fallback is switched off. It wraps ErrInsufficientFunds:
	// the pool could not fund the draw and no fallback applied, so callers
	// matching either sentinel see the failure.
	ErrFlashMintingDisabled = fmt.Errorf("flash minting disabled: %w", ErrInsufficientFunds)
	// ErrTransferFailed propagates a value-transfer collaborator failure
	// unchanged; the operation commits nothing.
	ErrTransferFailed = errors.New("flashpool: transfer failed")
)
