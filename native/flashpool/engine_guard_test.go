package flashpool

import (
	"errors"
	"math/big"
	"testing"

	nativecommon "flashpool/native/common"
)

func TestGuardBlocksMutation(t *testing.T) {
	owner := makeAddress(0x0A)
	engine, transfer, _ := newTestEngine(owner)
	engine.SetPauses(nativecommon.StaticPauses{"flashpool": true})

	if _, err := engine.AddLiquidity(owner, big.NewInt(100)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("addLiquidity: expected ErrModulePaused, got %v", err)
	}
	if _, err := engine.FlashLoan(owner, makeAddress(0x0E), big.NewInt(100)); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("flashLoan: expected ErrModulePaused, got %v", err)
	}
	if _, err := engine.RepayFlashLoan(owner); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("repay: expected ErrModulePaused, got %v", err)
	}
	if _, err := engine.SetFlashMinting(owner, true); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("setFlashMinting: expected ErrModulePaused, got %v", err)
	}

	if len(transfer.calls) != 0 {
		t.Fatalf("paused module reached the transfer collaborator: %+v", transfer.calls)
	}
	if got := engine.GetLiquidity(); got.Sign() != 0 {
		t.Fatalf("paused module mutated liquidity: got %s want 0", got)
	}
}

func TestGuardScopedToModuleName(t *testing.T) {
	owner := makeAddress(0x0A)
	engine, _, _ := newTestEngine(owner)
	engine.SetPauses(nativecommon.StaticPauses{"other": true})

	if _, err := engine.AddLiquidity(owner, big.NewInt(100)); err != nil {
		t.Fatalf("unrelated pause blocked mutation: %v", err)
	}
}
