package flashpool

import (
	"math/big"

	"flashpool/crypto"
)

// Loan records one active flash loan. The fee is fixed at creation and never
// recomputed for the loan's lifetime.
type Loan struct {
	Borrower  crypto.Address
	Principal *big.Int
	Fee       *big.Int
}

// TotalRepayment returns principal plus fee.
func (l *Loan) TotalRepayment() *big.Int {
	if l == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Add(l.Principal, l.Fee)
}

// LoanRegistry keeps at most one live loan per borrower. Entries are owned
// by their borrower key and mutated only through the controller's issuance,
// repayment, and force-clear paths.
type LoanRegistry struct {
	loans map[string]*Loan
}

// NewLoanRegistry returns an empty registry.
func NewLoanRegistry() *LoanRegistry {
	return &LoanRegistry{loans: make(map[string]*Loan)}
}

func loanKey(borrower crypto.Address) string {
	return string(borrower.Bytes())
}

// HasActive reports whether the borrower currently holds an open loan.
func (r *LoanRegistry) HasActive(borrower crypto.Address) bool {
	if r == nil {
		return false
	}
	_, ok := r.loans[loanKey(borrower)]
	return ok
}

// Active returns the borrower's open loan without removing it.
func (r *LoanRegistry) Active(borrower crypto.Address) (*Loan, bool) {
	if r == nil {
		return nil, false
	}
	loan, ok := r.loans[loanKey(borrower)]
	return loan, ok
}

// Open records a loan for the borrower, failing with ErrLoanAlreadyActive
// if one is already live.
func (r *LoanRegistry) Open(borrower crypto.Address, principal, fee *big.Int) error {
	if r == nil {
		return ErrLoanAlreadyActive
	}
	key := loanKey(borrower)
	if _, ok := r.loans[key]; ok {
		return ErrLoanAlreadyActive
	}
	r.loans[key] = &Loan{
		Borrower:  borrower,
		Principal: new(big.Int).Set(principal),
		Fee:       new(big.Int).Set(fee),
	}
	return nil
}

// Close removes and returns the borrower's loan, failing with
// ErrNoActiveLoan if absent. Gated behind borrower self-service repayment
// by the controller.
func (r *LoanRegistry) Close(borrower crypto.Address) (*Loan, error) {
	return r.remove(borrower)
}

// ForceClose removes and returns the borrower's loan with the same removal
// semantics as Close. Exposed separately so the controller can gate it
// behind administrative authorization.
func (r *LoanRegistry) ForceClose(borrower crypto.Address) (*Loan, error) {
	return r.remove(borrower)
}

func (r *LoanRegistry) remove(borrower crypto.Address) (*Loan, error) {
	if r == nil {
		return nil, ErrNoActiveLoan
	}
	key := loanKey(borrower)
	loan, ok := r.loans[key]
	if !ok {
		return nil, ErrNoActiveLoan
	}
	delete(r.loans, key)
	return loan, nil
}

// ActiveCount returns the number of live loans across all borrowers.
func (r *LoanRegistry) ActiveCount() int {
	if r == nil {
		return 0
	}
	return len(r.loans)
}
