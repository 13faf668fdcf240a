package lending

import (
	"math/big"
	"math/bits"
)

var basisPoints = big.NewInt(10_000)

// secondsPerYear is the accrual denominator for the simple-interest model.
const secondsPerYear = 31_536_000

const bpsDenominator = 10_000

// mulDivBps computes amount * bps / 10000 with truncation. Amounts are
// arbitrary precision so the product cannot wrap.
func mulDivBps(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return out.Quo(out, basisPoints)
}

// ratioBps computes value * 10000 / debt. The caller must guard debt == 0;
// a zero-debt position has no defined ratio and is always considered safe.
func ratioBps(value, debt *big.Int) *big.Int {
	if value == nil || debt == nil || debt.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(value, basisPoints)
	return out.Quo(out, debt)
}

// checkedMulDivU64 computes a * b / den over uint64 with an explicit overflow
// check on the final quotient and an explicit division-by-zero guard.
func checkedMulDivU64(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrOverflow
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, den)
	return quo, nil
}

// checkedAddU64 adds two uint64 values, failing on wraparound.
func checkedAddU64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// clampU64 restricts v to the inclusive [floor, ceiling] interval.
func clampU64(v, floor, ceiling uint64) uint64 {
	if v < floor {
		return floor
	}
	if v > ceiling {
		return ceiling
	}
	return v
}

// addSignedBps applies a signed adjustment to an unsigned rate, flooring the
// result at zero.
func addSignedBps(rate uint64, adjustment int64) uint64 {
	if adjustment >= 0 {
		sum, err := checkedAddU64(rate, uint64(adjustment))
		if err != nil {
			return rate
		}
		return sum
	}
	dec := uint64(-adjustment)
	if dec >= rate {
		return 0
	}
	return rate - dec
}

// withinStepBps reports whether next stays within 10% of prior. A prior value
// of zero accepts any next value so freshly initialised parameters can be
// moved off their defaults.
func withinStepBps(prior, next uint64) bool {
	if prior == 0 {
		return true
	}
	var delta uint64
	if next > prior {
		delta = next - prior
	} else {
		delta = prior - next
	}
	hi, lo := bits.Mul64(delta, 10)
	if hi != 0 {
		return false
	}
	return lo <= prior
}
