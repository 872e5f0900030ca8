package bank

import (
	"errors"
	"math/big"
	"sync"

	"flashpool/core/types"
	"flashpool/crypto"
)

var (
	ErrNilStore            = errors.New("bank: account store not configured")
	ErrInvalidAmount       = errors.New("bank: amount must be positive")
	ErrUnknownAccount      = errors.New("bank: unknown account")
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	ErrSelfTransfer        = errors.New("bank: sender and recipient are the same account")
)

// AccountStore abstracts where account balances live. A nil account from
// Get means the address has never been funded.
type AccountStore interface {
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Ledger moves value between accounts held in an AccountStore. It is the
// transfer capability the pool engine calls; a failed transfer leaves both
// accounts untouched.
type Ledger struct {
	store AccountStore
}

// NewLedger wires a transfer ledger to its account store.
func NewLedger(store AccountStore) *Ledger {
	return &Ledger{store: store}
}

// Transfer debits from and credits to by amount. Both balance writes happen
// only after every check passes.
func (l *Ledger) Transfer(from, to crypto.Address, amount *big.Int) error {
	if l == nil || l.store == nil {
		return ErrNilStore
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if from.Equal(to) {
		return ErrSelfTransfer
	}

	sender, err := l.loadAccount(from)
	if err != nil {
		return err
	}
	if sender == nil {
		return ErrUnknownAccount
	}
	if sender.Balance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	recipient, err := l.loadAccount(to)
	if err != nil {
		return err
	}
	if recipient == nil {
		recipient = types.NewAccount()
	}

	sender.Balance = new(big.Int).Sub(sender.Balance, amount)
	recipient.Balance = new(big.Int).Add(recipient.Balance, amount)

	if err := l.store.PutAccount(from, sender); err != nil {
		return err
	}
	return l.store.PutAccount(to, recipient)
}

// Mint credits freshly issued units to an account. Deployment tooling uses
// this to fund the pool's custody account; the pool engine never calls it.
func (l *Ledger) Mint(to crypto.Address, amount *big.Int) error {
	if l == nil || l.store == nil {
		return ErrNilStore
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	recipient, err := l.loadAccount(to)
	if err != nil {
		return err
	}
	if recipient == nil {
		recipient = types.NewAccount()
	}
	recipient.Balance = new(big.Int).Add(recipient.Balance, amount)
	return l.store.PutAccount(to, recipient)
}

// Balance returns the spendable balance for an address, zero when the
// account has never been funded.
func (l *Ledger) Balance(addr crypto.Address) (*big.Int, error) {
	if l == nil || l.store == nil {
		return nil, ErrNilStore
	}
	account, err := l.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(account.Balance), nil
}

func (l *Ledger) loadAccount(addr crypto.Address) (*types.Account, error) {
	account, err := l.store.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if account != nil && account.Balance == nil {
		account.Balance = big.NewInt(0)
	}
	return account, nil
}

// MemoryStore is an in-process AccountStore. State lives for the lifetime
// of the deployed instance; nothing is persisted beyond it.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*types.Account
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*types.Account)}
}

func (s *MemoryStore) GetAccount(addr crypto.Address) (*types.Account, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[string(addr.Bytes())]
	if !ok {
		return nil, nil
	}
	return account, nil
}

func (s *MemoryStore) PutAccount(addr crypto.Address, account *types.Account) error {
	if s == nil {
		return ErrNilStore
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[string(addr.Bytes())] = account
	return nil
}
