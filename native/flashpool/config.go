package flashpool

import (
	"math/big"

	"flashpool/crypto"
)

// PoolConfig carries the administrative state for a pool. Exactly one owner
// exists at any time; ownership transfer takes effect immediately with no
// escrow step.
type PoolConfig struct {
	// Owner is the sole authority for admin operations.
	Owner crypto.Address
	// FlashMintingEnabled gates loans that exceed pooled liquidity.
	FlashMintingEnabled bool
	// MaxFlashLoanAmount caps a loan only when minting is enabled.
	MaxFlashLoanAmount *big.Int
}

// Clone deep-copies the config to keep callers from aliasing the ceiling.
func (c PoolConfig) Clone() PoolConfig {
	clone := PoolConfig{
		Owner:               c.Owner,
		FlashMintingEnabled: c.FlashMintingEnabled,
		MaxFlashLoanAmount:  big.NewInt(0),
	}
	if c.MaxFlashLoanAmount != nil {
		clone.MaxFlashLoanAmount = new(big.Int).Set(c.MaxFlashLoanAmount)
	}
	return clone
}
