package types

import "math/big"

// Account holds the spendable balance for a single address. The pool is a
// single-asset system, so one balance field covers it.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// NewAccount returns an account with a zeroed balance.
func NewAccount() *Account {
	return &Account{Balance: big.NewInt(0)}
}
