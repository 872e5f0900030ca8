package flashpool

import "math/big"

// Fee parameters. The rate is expressed in hundred-thousandths so the quote
// reduces to floor(amount * 500 / 100000), a fixed 0.5% fee. The floor
// division is a compatibility requirement, not a rounding choice.
var (
	feeRate  = big.NewInt(500)
	feeScale = big.NewInt(100_000)
)

// QuoteFee computes the fee owed on a loan of the given principal. Pure and
// deterministic; callers validate positivity before quoting.
func QuoteFee(amount *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amount, feeRate)
	return fee.Quo(fee, feeScale)
}
