package lending

import "math/big"

// InterestRateConfig shapes how the borrow rate reacts to pool utilisation.
// All fields are basis points; the curve is piecewise linear with a slope
// change at the kink utilisation.
type InterestRateConfig struct {
	// BaseRateBps is the borrow rate applied at zero utilisation.
	BaseRateBps uint64
	// KinkUtilizationBps is the utilisation at which the slope changes.
	KinkUtilizationBps uint64
	// MultiplierBps is the rate increase accrued across the pre-kink region.
	MultiplierBps uint64
	// JumpMultiplierBps is the steeper slope applied above the kink.
	JumpMultiplierBps uint64
	// RateFloorBps and RateCeilingBps clamp the final borrow rate.
	RateFloorBps   uint64
	RateCeilingBps uint64
	// SpreadBps is deducted from the borrow rate to produce the supply rate.
	SpreadBps uint64
	// EmergencyAdjustmentBps is a signed incident-response offset. It is the
	// only field exempt from the 10% step rule.
	EmergencyAdjustmentBps int64
	// LastUpdate records the ledger timestamp of the last admin change.
	LastUpdate uint64
}

// DefaultInterestRateConfig mirrors the protocol genesis parameters: 2% base,
// 80% kink, and a ceiling of 50% APR.
func DefaultInterestRateConfig() InterestRateConfig {
	return InterestRateConfig{
		BaseRateBps:        200,
		KinkUtilizationBps: 8000,
		MultiplierBps:      1000,
		JumpMultiplierBps:  5000,
		RateFloorBps:       10,
		RateCeilingBps:     5000,
		SpreadBps:          1000,
	}
}

// Validate checks the configuration against its documented bounds.
func (c InterestRateConfig) Validate() error {
	if c.KinkUtilizationBps == 0 || c.KinkUtilizationBps >= bpsDenominator {
		return ErrInvalidParameter
	}
	for _, bps := range []uint64{c.BaseRateBps, c.MultiplierBps, c.JumpMultiplierBps, c.RateFloorBps, c.RateCeilingBps, c.SpreadBps} {
		if bps > bpsDenominator {
			return ErrInvalidParameter
		}
	}
	if c.EmergencyAdjustmentBps > bpsDenominator || c.EmergencyAdjustmentBps < -bpsDenominator {
		return ErrInvalidParameter
	}
	if c.RateFloorBps > c.RateCeilingBps {
		return ErrInvalidParameter
	}
	return nil
}

// validateStep enforces the governance guardrail that a single update moves
// each parameter by at most 10% of its prior value. The emergency adjustment
// is exempt so incident response is not throttled.
func (c InterestRateConfig) validateStep(next InterestRateConfig) error {
	steps := [][2]uint64{
		{c.BaseRateBps, next.BaseRateBps},
		{c.KinkUtilizationBps, next.KinkUtilizationBps},
		{c.MultiplierBps, next.MultiplierBps},
		{c.JumpMultiplierBps, next.JumpMultiplierBps},
		{c.RateFloorBps, next.RateFloorBps},
		{c.RateCeilingBps, next.RateCeilingBps},
		{c.SpreadBps, next.SpreadBps},
	}
	for _, pair := range steps {
		if !withinStepBps(pair[0], pair[1]) {
			return ErrParameterChangeTooLarge
		}
	}
	return nil
}

// Utilization derives pool utilisation in basis points, capped at 10000.
// A pool without deposits has zero utilisation.
func Utilization(totalBorrows, totalDeposits *big.Int) uint64 {
	if totalBorrows == nil || totalBorrows.Sign() <= 0 {
		return 0
	}
	if totalDeposits == nil || totalDeposits.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Int).Mul(totalBorrows, basisPoints)
	ratio.Quo(ratio, totalDeposits)
	if ratio.Cmp(basisPoints) > 0 {
		return bpsDenominator
	}
	return ratio.Uint64()
}

// BorrowRateBps evaluates the kinked curve at the supplied utilisation, applies
// the emergency adjustment, and clamps the result to [floor, ceiling].
func (c InterestRateConfig) BorrowRateBps(utilizationBps uint64) (uint64, error) {
	var rate uint64
	if utilizationBps <= c.KinkUtilizationBps {
		slope := uint64(0)
		if c.KinkUtilizationBps > 0 {
			s, err := checkedMulDivU64(utilizationBps, c.MultiplierBps, c.KinkUtilizationBps)
			if err != nil {
				return 0, err
			}
			slope = s
		}
		sum, err := checkedAddU64(c.BaseRateBps, slope)
		if err != nil {
			return 0, err
		}
		rate = sum
	} else {
		span := uint64(bpsDenominator) - c.KinkUtilizationBps
		excess, err := checkedMulDivU64(utilizationBps-c.KinkUtilizationBps, c.JumpMultiplierBps, span)
		if err != nil {
			return 0, err
		}
		sum, err := checkedAddU64(c.BaseRateBps, c.MultiplierBps)
		if err != nil {
			return 0, err
		}
		rate, err = checkedAddU64(sum, excess)
		if err != nil {
			return 0, err
		}
	}
	rate = addSignedBps(rate, c.EmergencyAdjustmentBps)
	return clampU64(rate, c.RateFloorBps, c.RateCeilingBps), nil
}

// SupplyRateBps is the borrow rate minus the protocol spread, floored at the
// configured rate floor.
func (c InterestRateConfig) SupplyRateBps(utilizationBps uint64) (uint64, error) {
	borrow, err := c.BorrowRateBps(utilizationBps)
	if err != nil {
		return 0, err
	}
	if borrow <= c.SpreadBps {
		return c.RateFloorBps, nil
	}
	supply := borrow - c.SpreadBps
	if supply < c.RateFloorBps {
		return c.RateFloorBps, nil
	}
	return supply, nil
}
