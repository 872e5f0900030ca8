package flashpool

import (
	"errors"
	"math/big"
	"testing"
)

func TestLedgerCreditAndDebit(t *testing.T) {
	ledger := NewLiquidityLedger()
	if got := ledger.Available(); got.Sign() != 0 {
		t.Fatalf("fresh ledger: got %s want 0", got)
	}

	ledger.Credit(big.NewInt(1000))
	if got := ledger.Available(); got.Cmp(big.NewInt(1000)) != 0 {
		t.Fatalf("after credit: got %s want 1000", got)
	}

	if err := ledger.Debit(big.NewInt(400)); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if got := ledger.Available(); got.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("after debit: got %s want 600", got)
	}
}

func TestLedgerDebitUnderflow(t *testing.T) {
	ledger := NewLiquidityLedger()
	ledger.Credit(big.NewInt(100))

	if err := ledger.Debit(big.NewInt(101)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := ledger.Available(); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("failed debit mutated total: got %s want 100", got)
	}
}

func TestLedgerRejectsNonPositive(t *testing.T) {
	ledger := NewLiquidityLedger()
	ledger.Credit(big.NewInt(50))

	ledger.Credit(big.NewInt(0))
	ledger.Credit(big.NewInt(-10))
	if got := ledger.Available(); got.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("non-positive credit mutated total: got %s want 50", got)
	}

	if err := ledger.Debit(big.NewInt(0)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero debit: expected ErrInvalidAmount, got %v", err)
	}
	if err := ledger.Debit(big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative debit: expected ErrInvalidAmount, got %v", err)
	}
}

func TestLedgerAvailableCopies(t *testing.T) {
	ledger := NewLiquidityLedger()
	ledger.Credit(big.NewInt(75))

	snapshot := ledger.Available()
	snapshot.SetInt64(0)
	if got := ledger.Available(); got.Cmp(big.NewInt(75)) != 0 {
		t.Fatalf("snapshot aliased ledger total: got %s want 75", got)
	}
}
