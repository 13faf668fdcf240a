package lending

// Operation names the mutating entry points that can be paused individually.
type Operation string

const (
	OpDeposit   Operation = "deposit"
	OpWithdraw  Operation = "withdraw"
	OpBorrow    Operation = "borrow"
	OpRepay     Operation = "repay"
	OpLiquidate Operation = "liquidate"
	OpFlashLoan Operation = "flashloan"
)

// Documented bounds for the governance controlled risk parameters.
const (
	minCollateralRatioLowerBps = 10_000
	minCollateralRatioUpperBps = 50_000
	liquidationThresholdLower  = 5_000
	liquidationThresholdUpper  = 20_000
	closeFactorUpperBps        = 10_000
	liquidationIncentiveUpper  = 5_000
)

// RiskConfig groups the solvency limits and circuit breakers governing the
// lending ledger.
type RiskConfig struct {
	// MinCollateralRatioBps is the lowest collateral ratio a position may
	// hold after a borrow or withdrawal.
	MinCollateralRatioBps uint64
	// LiquidationThresholdBps is the ratio below which a position becomes
	// eligible for liquidation.
	LiquidationThresholdBps uint64
	// CloseFactorBps bounds the share of debt liquidatable in a single call.
	CloseFactorBps uint64
	// LiquidationIncentiveBps is the collateral bonus granted to liquidators.
	LiquidationIncentiveBps uint64
	// Paused disables individual operations; EmergencyPause halts all of them.
	Paused         map[Operation]bool
	EmergencyPause bool
	// LastUpdate records the ledger timestamp of the last admin change.
	LastUpdate uint64
}

// DefaultRiskConfig mirrors the protocol genesis parameters: 150% minimum
// ratio, 120% liquidation threshold, 50% close factor, 10% incentive.
func DefaultRiskConfig() RiskConfig {
	return RiskConfig{
		MinCollateralRatioBps:   15_000,
		LiquidationThresholdBps: 12_000,
		CloseFactorBps:          5_000,
		LiquidationIncentiveBps: 1_000,
	}
}

// Validate checks every field against its documented [min, max] interval and
// the cross-field ordering constraint.
func (c RiskConfig) Validate() error {
	if c.MinCollateralRatioBps < minCollateralRatioLowerBps || c.MinCollateralRatioBps > minCollateralRatioUpperBps {
		return ErrInvalidParameter
	}
	if c.LiquidationThresholdBps < liquidationThresholdLower || c.LiquidationThresholdBps > liquidationThresholdUpper {
		return ErrInvalidParameter
	}
	if c.MinCollateralRatioBps < c.LiquidationThresholdBps {
		return ErrInvalidParameter
	}
	if c.CloseFactorBps == 0 || c.CloseFactorBps > closeFactorUpperBps {
		return ErrInvalidParameter
	}
	if c.LiquidationIncentiveBps > liquidationIncentiveUpper {
		return ErrInvalidParameter
	}
	return nil
}

// validateStep enforces the 10% single-update guardrail across the bps fields.
func (c RiskConfig) validateStep(next RiskConfig) error {
	steps := [][2]uint64{
		{c.MinCollateralRatioBps, next.MinCollateralRatioBps},
		{c.LiquidationThresholdBps, next.LiquidationThresholdBps},
		{c.CloseFactorBps, next.CloseFactorBps},
		{c.LiquidationIncentiveBps, next.LiquidationIncentiveBps},
	}
	for _, pair := range steps {
		if !withinStepBps(pair[0], pair[1]) {
			return ErrParameterChangeTooLarge
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c RiskConfig) Clone() RiskConfig {
	clone := c
	if c.Paused != nil {
		clone.Paused = make(map[Operation]bool, len(c.Paused))
		for op, paused := range c.Paused {
			clone.Paused[op] = paused
		}
	}
	return clone
}

// IsPaused reports whether the named operation is disabled. It satisfies the
// pause view consumed by the operation guard.
func (c RiskConfig) IsPaused(op string) bool {
	if c.Paused == nil {
		return false
	}
	return c.Paused[Operation(op)]
}

// EmergencyPaused reports whether the global circuit breaker is engaged.
func (c RiskConfig) EmergencyPaused() bool { return c.EmergencyPause }
