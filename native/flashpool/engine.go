package flashpool

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"flashpool/core/events"
	"flashpool/crypto"
	nativecommon "flashpool/native/common"
)

const moduleName = "flashpool"

var (
	errNilTransfer   = errors.New("flashpool engine: transfer capability not configured")
	errOwnerRequired = errors.New("flashpool engine: owner address required")
)

// Transferrer is the external value-transfer capability. The engine never
// proceeds past a failed transfer; any mutation happens only after the
// transfer succeeds.
type Transferrer interface {
	Transfer(from, to crypto.Address, amount *big.Int) error
}

// Engine orchestrates loan issuance, repayment, and administrative mutation
// for a single-asset flash loan pool. One mutex serializes every public
// operation; together with the commit-after-transfer ordering this gives
// each call the all-or-nothing effect the loan lifecycle depends on.
type Engine struct {
	mu sync.RWMutex

	poolAddress crypto.Address
	ledger      *LiquidityLedger
	registry    *LoanRegistry
	config      PoolConfig
	transfer    Transferrer
	emitter     events.Emitter
	pauses      nativecommon.PauseView
}

// NewEngine constructs a pool engine holding its ledger, registry, and
// administrative config. The pool address is the account that custodies
// pooled funds at the transfer collaborator.
func NewEngine(poolAddr crypto.Address, cfg PoolConfig) *Engine {
	return &Engine{
		poolAddress: poolAddr,
		ledger:      NewLiquidityLedger(),
		registry:    NewLoanRegistry(),
		config:      cfg.Clone(),
		emitter:     events.NoopEmitter{},
	}
}

// SetTransferrer wires the engine to the external value-transfer capability.
func (e *Engine) SetTransferrer(t Transferrer) {
	if e == nil {
		return
	}
	e.transfer = t
}

// SetEmitter wires the engine to an event sink. A nil emitter restores the
// discarding default.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

func (e *Engine) SetPauses(p nativecommon.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// PoolAddress returns the account custodying pooled funds.
func (e *Engine) PoolAddress() crypto.Address {
	if e == nil {
		return crypto.Address{}
	}
	return e.poolAddress
}

// AddLiquidity moves amount from the caller into the pool and credits the
// ledger. Open to any caller.
func (e *Engine) AddLiquidity(caller crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.transfer == nil {
		return nil, errNilTransfer
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.transfer.Transfer(caller, e.poolAddress, amount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	e.ledger.Credit(amount)

	e.emitter.Emit(events.LiquidityAdded{
		Provider: caller,
		Amount:   new(big.Int).Set(amount),
		Total:    e.ledger.Available(),
	})
	return new(big.Int).Set(amount), nil
}

// RemoveLiquidity moves amount from the pool back to the owner. Owner only.
func (e *Engine) RemoveLiquidity(caller crypto.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.transfer == nil {
		return nil, errNilTransfer
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Equal(e.config.Owner) {
		return nil, ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.ledger.Available().Cmp(amount) < 0 {
		return nil, ErrInsufficientFunds
	}

	if err := e.transfer.Transfer(e.poolAddress, caller, amount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if err := e.ledger.Debit(amount); err != nil {
		return nil, err
	}

	e.emitter.Emit(events.LiquidityRemoved{
		Owner:  caller,
		Amount: new(big.Int).Set(amount),
		Total:  e.ledger.Available(),
	})
	return new(big.Int).Set(amount), nil
}

// FlashLoan issues an uncollateralized loan to the caller, paying out to the
// recipient. A loan may exceed pooled liquidity only when flash minting is
// enabled and the amount stays under the configured ceiling; both branches
// perform the same transfer call, so the minting path is an accounting
// simulation unless the transfer collaborator implements real issuance.
func (e *Engine) FlashLoan(caller, recipient crypto.Address, amount *big.Int) (*Loan, error) {
	if e == nil || e.transfer == nil {
		return nil, errNilTransfer
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.registry.HasActive(caller) {
		return nil, ErrLoanAlreadyActive
	}

	fee := QuoteFee(amount)
	fromPool := amount.Cmp(e.ledger.Available()) <= 0
	if !fromPool {
		if !e.config.FlashMintingEnabled {
			return nil, ErrFlashMintingDisabled
		}
		if e.config.MaxFlashLoanAmount == nil || amount.Cmp(e.config.MaxFlashLoanAmount) > 0 {
			return nil, ErrInsufficientFunds
		}
	}

	if err := e.transfer.Transfer(e.poolAddress, recipient, amount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if err := e.registry.Open(caller, amount, fee); err != nil {
		return nil, err
	}

	loan, _ := e.registry.Active(caller)
	e.emitter.Emit(events.LoanOpened{
		Borrower:  caller,
		Recipient: recipient,
		Principal: new(big.Int).Set(loan.Principal),
		Fee:       new(big.Int).Set(loan.Fee),
		Minted:    !fromPool,
	})
	return loan, nil
}

// RepayFlashLoan settles the caller's open loan: principal plus fee move
// from the caller back to the pool, and only the fee augments pool
// liquidity. The principal either settles funds lent out of existing
// liquidity or closes out the simulated mint.
func (e *Engine) RepayFlashLoan(caller crypto.Address) (*Loan, error) {
	if e == nil || e.transfer == nil {
		return nil, errNilTransfer
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	loan, ok := e.registry.Active(caller)
	if !ok {
		return nil, ErrNoActiveLoan
	}

	if err := e.transfer.Transfer(caller, e.poolAddress, loan.TotalRepayment()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
	if _, err := e.registry.Close(caller); err != nil {
		return nil, err
	}
	e.ledger.Credit(loan.Fee)

	e.emitter.Emit(events.LoanRepaid{
		Borrower:  caller,
		Principal: new(big.Int).Set(loan.Principal),
		Fee:       new(big.Int).Set(loan.Fee),
	})
	return loan, nil
}

// SetOwner transfers pool ownership. The change is immediate and
// irrevocable; there is no escrow or acceptance step.
func (e *Engine) SetOwner(caller, newOwner crypto.Address) (crypto.Address, error) {
	if e == nil {
		return crypto.Address{}, errNilTransfer
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return crypto.Address{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Equal(e.config.Owner) {
		return crypto.Address{}, ErrUnauthorized
	}
	if newOwner.IsZero() {
		return crypto.Address{}, errOwnerRequired
	}

	previous := e.config.Owner
	e.config.Owner = newOwner

	e.emitter.Emit(events.OwnerRotated{Previous: previous, Current: newOwner})
	return newOwner, nil
}

// SetFlashMinting toggles the above-liquidity loan fallback. Owner only.
func (e *Engine) SetFlashMinting(caller crypto.Address, enabled bool) (bool, error) {
	if e == nil {
		return false, errNilTransfer
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return false, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Equal(e.config.Owner) {
		return false, ErrUnauthorized
	}
	e.config.FlashMintingEnabled = enabled

	e.emitter.Emit(events.FlashMintingUpdated{Enabled: enabled})
	return enabled, nil
}

// SetMaxFlashLoan updates the minting ceiling. Owner only.
func (e *Engine) SetMaxFlashLoan(caller crypto.Address, max *big.Int) (*big.Int, error) {
	if e == nil {
		return nil, errNilTransfer
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Equal(e.config.Owner) {
		return nil, ErrUnauthorized
	}
	if max == nil || max.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	e.config.MaxFlashLoanAmount = new(big.Int).Set(max)

	e.emitter.Emit(events.MaxFlashLoanUpdated{Max: new(big.Int).Set(max)})
	return new(big.Int).Set(max), nil
}

// ForceClearLoan removes a stuck loan without collecting repayment. Owner
// only. The fee the loan would have earned is discarded; recoverability is
// chosen over yield here.
func (e *Engine) ForceClearLoan(caller, borrower crypto.Address) (crypto.Address, error) {
	if e == nil {
		return crypto.Address{}, errNilTransfer
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return crypto.Address{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Equal(e.config.Owner) {
		return crypto.Address{}, ErrUnauthorized
	}
	loan, err := e.registry.ForceClose(borrower)
	if err != nil {
		return crypto.Address{}, err
	}

	e.emitter.Emit(events.LoanForceCleared{
		Borrower:     borrower,
		Owner:        caller,
		Principal:    new(big.Int).Set(loan.Principal),
		DiscardedFee: new(big.Int).Set(loan.Fee),
	})
	return borrower, nil
}

// GetLiquidity returns the current pool liquidity.
func (e *Engine) GetLiquidity() *big.Int {
	if e == nil {
		return big.NewInt(0)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Available()
}

// CalculateFee quotes the fee for a prospective loan amount.
func (e *Engine) CalculateFee(amount *big.Int) *big.Int {
	return QuoteFee(amount)
}

// HasActiveLoan reports whether the borrower holds an open loan.
func (e *Engine) HasActiveLoan(borrower crypto.Address) bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.HasActive(borrower)
}

// GetMaxFlashLoan returns the effective issuance ceiling: the configured
// minting cap while minting is enabled, otherwise current liquidity.
func (e *Engine) GetMaxFlashLoan() *big.Int {
	if e == nil {
		return big.NewInt(0)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.config.FlashMintingEnabled {
		if e.config.MaxFlashLoanAmount == nil {
			return big.NewInt(0)
		}
		return new(big.Int).Set(e.config.MaxFlashLoanAmount)
	}
	return e.ledger.Available()
}

// Owner returns the current administrative owner.
func (e *Engine) Owner() crypto.Address {
	if e == nil {
		return crypto.Address{}
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config.Owner
}

// FlashMintingEnabled reports the current minting flag.
func (e *Engine) FlashMintingEnabled() bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config.FlashMintingEnabled
}

// ActiveLoanCount returns the number of live loans across all borrowers.
func (e *Engine) ActiveLoanCount() int {
	if e == nil {
		return 0
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.ActiveCount()
}
