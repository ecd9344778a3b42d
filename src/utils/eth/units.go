package eth

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Number of decimals of the native token
const NativeDecimals = 18

func WeiToNative(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -NativeDecimals)
}

// Fractions of wei are truncated
func NativeToWei(amount decimal.Decimal) *big.Int {
	return amount.Shift(NativeDecimals).BigInt()
}
