// Package numeric converts raw fixed-point integer amounts from chain
// events into exact decimal values. All monetary values use
// shopspring/decimal — never float64 for money.
package numeric

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimal scales used by the marketplace contract.
const (
	FeeScale    int32 = 2  // fee percentages are emitted in basis points
	AmountScale int32 = 18 // token amounts use 18 decimals
)

// FromRaw converts a raw fixed-point integer into its decimal value:
// raw / 10^scale, exact at the chosen precision. A nil raw (absent
// field) converts to zero. Panics on a negative scale — that is a
// programmer error, not an input condition.
func FromRaw(raw *big.Int, scale int32) decimal.Decimal {
	if scale < 0 {
		panic(fmt.Sprintf("numeric: negative scale %d", scale))
	}
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -scale)
}

// ParseBigInt parses a base-10 integer string as delivered in decoded
// event payloads.
func ParseBigInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("numeric: invalid integer %q", s)
	}
	return v, nil
}
