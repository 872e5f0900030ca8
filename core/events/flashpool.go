package events

import (
	"math/big"
	"strconv"

	"flashpool/core/types"
	"flashpool/crypto"
)

const (
	// TypeLiquidityAdded is emitted when a provider funds the pool.
	TypeLiquidityAdded = "flashpool.liquidity.added"
	// TypeLiquidityRemoved is emitted when the owner withdraws pool funds.
	TypeLiquidityRemoved = "flashpool.liquidity.removed"
	// TypeLoanOpened is emitted when a flash loan is issued.
	TypeLoanOpened = "flashpool.loan.opened"
	// TypeLoanRepaid is emitted when a borrower settles principal plus fee.
	TypeLoanRepaid = "flashpool.loan.repaid"
	// TypeLoanForceCleared is emitted when the owner clears a stuck loan.
	// The fee the loan would have earned is discarded.
	TypeLoanForceCleared = "flashpool.loan.forceCleared"
	// TypeOwnerRotated is emitted when pool ownership transfers.
	TypeOwnerRotated = "flashpool.owner.rotated"
	// TypeFlashMintingUpdated is emitted when the minting flag flips.
	TypeFlashMintingUpdated = "flashpool.minting.updated"
	// TypeMaxFlashLoanUpdated is emitted when the minting ceiling changes.
	TypeMaxFlashLoanUpdated = "flashpool.minting.maxUpdated"
)

type LiquidityAdded struct {
	Provider crypto.Address
	Amount   *big.Int
	Total    *big.Int
}

func (LiquidityAdded) EventType() string { return TypeLiquidityAdded }

func (e LiquidityAdded) Event() *types.Event {
	return &types.Event{Type: TypeLiquidityAdded, Attributes: map[string]string{
		"provider": e.Provider.String(),
		"amount":   formatAmount(e.Amount),
		"total":    formatAmount(e.Total),
	}}
}

type LiquidityRemoved struct {
	Owner  crypto.Address
	Amount *big.Int
	Total  *big.Int
}

func (LiquidityRemoved) EventType() string { return TypeLiquidityRemoved }

func (e LiquidityRemoved) Event() *types.Event {
	return &types.Event{Type: TypeLiquidityRemoved, Attributes: map[string]string{
		"owner":  e.Owner.String(),
		"amount": formatAmount(e.Amount),
		"total":  formatAmount(e.Total),
	}}
}

type LoanOpened struct {
	Borrower  crypto.Address
	Recipient crypto.Address
	Principal *big.Int
	Fee       *big.Int
	Minted    bool
}

func (LoanOpened) EventType() string { return TypeLoanOpened }

func (e LoanOpened) Event() *types.Event {
	return &types.Event{Type: TypeLoanOpened, Attributes: map[string]string{
		"borrower":  e.Borrower.String(),
		"recipient": e.Recipient.String(),
		"principal": formatAmount(e.Principal),
		"fee":       formatAmount(e.Fee),
		"minted":    strconv.FormatBool(e.Minted),
	}}
}

type LoanRepaid struct {
	Borrower  crypto.Address
	Principal *big.Int
	Fee       *big.Int
}

func (LoanRepaid) EventType() string { return TypeLoanRepaid }

func (e LoanRepaid) Event() *types.Event {
	return &types.Event{Type: TypeLoanRepaid, Attributes: map[string]string{
		"borrower":  e.Borrower.String(),
		"principal": formatAmount(e.Principal),
		"fee":       formatAmount(e.Fee),
	}}
}

type LoanForceCleared struct {
	Borrower     crypto.Address
	Owner        crypto.Address
	Principal    *big.Int
	DiscardedFee *big.Int
}

func (LoanForceCleared) EventType() string { return TypeLoanForceCleared }

func (e LoanForceCleared) Event() *types.Event {
	return &types.Event{Type: TypeLoanForceCleared, Attributes: map[string]string{
		"borrower":     e.Borrower.String(),
		"owner":        e.Owner.String(),
		"principal":    formatAmount(e.Principal),
		"discardedFee": formatAmount(e.DiscardedFee),
	}}
}

type OwnerRotated struct {
	Previous crypto.Address
	Current  crypto.Address
}

func (OwnerRotated) EventType() string { return TypeOwnerRotated }

func (e OwnerRotated) Event() *types.Event {
	return &types.Event{Type: TypeOwnerRotated, Attributes: map[string]string{
		"previous": e.Previous.String(),
		"current":  e.Current.String(),
	}}
}

type FlashMintingUpdated struct {
	Enabled bool
}

func (FlashMintingUpdated) EventType() string { return TypeFlashMintingUpdated }

func (e FlashMintingUpdated) Event() *types.Event {
	return &types.Event{Type: TypeFlashMintingUpdated, Attributes: map[string]string{
		"enabled": strconv.FormatBool(e.Enabled),
	}}
}

type MaxFlashLoanUpdated struct {
	Max *big.Int
}

func (MaxFlashLoanUpdated) EventType() string { return TypeMaxFlashLoanUpdated }

func (e MaxFlashLoanUpdated) Event() *types.Event {
	return &types.Event{Type: TypeMaxFlashLoanUpdated, Attributes: map[string]string{
		"max": formatAmount(e.Max),
	}}
}

func formatAmount(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
