package flashpool

import "math/big"

// LiquidityLedger tracks the pool's total liquidity in the smallest
// indivisible unit of the asset. The total never goes negative: Debit
// rejects any draw beyond the current balance.
type LiquidityLedger struct {
	total *big.Int
}

// NewLiquidityLedger returns an empty ledger.
func NewLiquidityLedger() *LiquidityLedger {
	return &LiquidityLedger{total: big.NewInt(0)}
}

// Available returns the current total liquidity.
func (l *LiquidityLedger) Available() *big.Int {
	if l == nil || l.total == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(l.total)
}

// Credit increases the total by amount. Amounts are pre-validated positive
// by the controller, so there is no error condition here.
func (l *LiquidityLedger) Credit(amount *big.Int) {
	if l == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	if l.total == nil {
		l.total = big.NewInt(0)
	}
	l.total = new(big.Int).Add(l.total, amount)
}

// Debit decreases the total by amount, failing with ErrInsufficientFunds
// when the draw exceeds the current balance.
func (l *LiquidityLedger) Debit(amount *big.Int) error {
	if l == nil || amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if l.total == nil {
		l.total = big.NewInt(0)
	}
	if l.total.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	l.total = new(big.Int).Sub(l.total, amount)
	return nil
}
