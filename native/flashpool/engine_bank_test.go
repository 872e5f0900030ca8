package flashpool_test

import (
	"errors"
	"math/big"
	"testing"

	"flashpool/crypto"
	"flashpool/native/bank"
	"flashpool/native/flashpool"
)

// These tests run the engine against the real bank ledger instead of a mock
// transferrer, covering the settlement flows end to end.

func addr(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.MustNewAddress(crypto.PoolPrefix, raw)
}

func TestEngineWithBankLedger(t *testing.T) {
	store := bank.NewMemoryStore()
	ledger := bank.NewLedger(store)

	owner := addr(0x01)
	provider := addr(0x02)
	borrower := addr(0x03)
	pool := addr(0xF0)

	if err := ledger.Mint(provider, big.NewInt(10000)); err != nil {
		t.Fatalf("mint provider: %v", err)
	}
	if err := ledger.Mint(borrower, big.NewInt(1000)); err != nil {
		t.Fatalf("mint borrower: %v", err)
	}

	engine := flashpool.NewEngine(pool, flashpool.PoolConfig{Owner: owner})
	engine.SetTransferrer(ledger)

	if _, err := engine.AddLiquidity(provider, big.NewInt(10000)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	balance, err := ledger.Balance(pool)
	if err != nil {
		t.Fatalf("pool balance: %v", err)
	}
	if balance.Cmp(big.NewInt(10000)) != 0 {
		t.Fatalf("pool balance: got %s want 10000", balance)
	}

	// Borrow into the borrower's own account, then settle with the fee.
	loan, err := engine.FlashLoan(borrower, borrower, big.NewInt(5000))
	if err != nil {
		t.Fatalf("flash loan: %v", err)
	}
	if loan.TotalRepayment().Cmp(big.NewInt(5025)) != 0 {
		t.Fatalf("total repayment: got %s want 5025", loan.TotalRepayment())
	}

	if _, err := engine.RepayFlashLoan(borrower); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if got := engine.GetLiquidity(); got.Cmp(big.NewInt(10025)) != 0 {
		t.Fatalf("liquidity: got %s want 10025", got)
	}
	balance, err = ledger.Balance(borrower)
	if err != nil {
		t.Fatalf("borrower balance: %v", err)
	}
	// 1000 starting + 5000 borrowed - 5025 repaid.
	if balance.Cmp(big.NewInt(975)) != 0 {
		t.Fatalf("borrower balance: got %s want 975", balance)
	}
}

func TestEngineBankRejectsUnfundedProvider(t *testing.T) {
	store := bank.NewMemoryStore()
	ledger := bank.NewLedger(store)

	owner := addr(0x01)
	pauper := addr(0x04)
	pool := addr(0xF0)

	engine := flashpool.NewEngine(pool, flashpool.PoolConfig{Owner: owner})
	engine.SetTransferrer(ledger)

	_, err := engine.AddLiquidity(pauper, big.NewInt(100))
	if !errors.Is(err, flashpool.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if !errors.Is(err, bank.ErrUnknownAccount) {
		t.Fatalf("expected the bank failure to surface, got %v", err)
	}
	if got := engine.GetLiquidity(); got.Sign() != 0 {
		t.Fatalf("failed funding mutated liquidity: got %s want 0", got)
	}
}

func TestEngineBankRepayShortfall(t *testing.T) {
	store := bank.NewMemoryStore()
	ledger := bank.NewLedger(store)

	owner := addr(0x01)
	borrower := addr(0x03)
	sink := addr(0x05)
	pool := addr(0xF0)

	if err := ledger.Mint(owner, big.NewInt(10000)); err != nil {
		t.Fatalf("mint owner: %v", err)
	}
	engine := flashpool.NewEngine(pool, flashpool.PoolConfig{Owner: owner})
	engine.SetTransferrer(ledger)

	if _, err := engine.AddLiquidity(owner, big.NewInt(10000)); err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
	// Pay the loan out to a sink the borrower cannot draw back from.
	if _, err := engine.FlashLoan(borrower, sink, big.NewInt(5000)); err != nil {
		t.Fatalf("flash loan: %v", err)
	}

	_, err := engine.RepayFlashLoan(borrower)
	if !errors.Is(err, flashpool.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if !engine.HasActiveLoan(borrower) {
		t.Fatal("failed settlement closed the loan")
	}
}
