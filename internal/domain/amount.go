package domain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// weiDecimals is the number of decimals of the chain's native unit (BNB).
const weiDecimals = 18

// ParseBNB converts a human amount such as "0.10" into wei.
// Negative amounts and amounts with more than 18 decimals are rejected.
func ParseBNB(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("domain.ParseBNB: %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("domain.ParseBNB: %q: negative amount", s)
	}
	wei := d.Shift(weiDecimals)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("domain.ParseBNB: %q: more than %d decimals", s, weiDecimals)
	}
	return wei.BigInt(), nil
}

// FormatBNB renders wei as a BNB amount without trailing zeros ("0.1", "1.25").
func FormatBNB(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -weiDecimals).String()
}
