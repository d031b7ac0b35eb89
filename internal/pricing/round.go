package pricing

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	hundred = big.NewFloat(100)
	half    = big.NewFloat(0.5)
)

// RoundCents rounds x to two fractional digits the way a browser's
// parseFloat(x.toFixed(2)) does: the exact binary value of x is rounded
// half away from zero, then the nearest float64 to that 2-digit decimal is
// returned.
//
// This is neither math.Round(x*100)/100 (x*100 is itself rounded, so 2.675
// becomes 2.68) nor strconv.FormatFloat(x, 'f', 2, 64) (half-even on exact
// ties, so 0.125 becomes 0.12).
func RoundCents(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}

	// 53-bit mantissa times 100 plus one half fits exactly in 128 bits.
	scaled := new(big.Float).SetPrec(128).SetFloat64(math.Abs(x))
	scaled.Mul(scaled, hundred)
	scaled.Add(scaled, half)
	cents, _ := scaled.Int(nil)

	d := decimal.NewFromBigInt(cents, -2)
	if math.Signbit(x) {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f
}
