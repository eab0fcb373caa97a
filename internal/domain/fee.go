package domain

import "math/big"

// DefaultFeeBps is the cut forwarded from every payout (2%).
const DefaultFeeBps = 200

var bpsDenominator = big.NewInt(10_000)

// CalculateFee returns floor(amount * bps / 10000). Nil or non-positive
// amounts and bps yield zero.
func CalculateFee(amount *big.Int, bps int64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps <= 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, big.NewInt(bps))
	return fee.Quo(fee, bpsDenominator)
}
