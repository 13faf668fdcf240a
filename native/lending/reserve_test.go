package lending

import (
	"errors"
	"math/big"
	"testing"
)

func TestSplitInterestBound(t *testing.T) {
	cases := []struct {
		interest int64
		factor   uint64
		reserve  int64
	}{
		{1_000, 1_000, 100},
		{999, 1_000, 99},
		{1, 5_000, 0},
		{1_000, 0, 0},
	}
	for _, tc := range cases {
		reserveShare, lenderShare := splitInterest(big.NewInt(tc.interest), tc.factor)
		if reserveShare.Cmp(big.NewInt(tc.reserve)) != 0 {
			t.Fatalf("splitInterest(%d, %d): expected reserve %d, got %s", tc.interest, tc.factor, tc.reserve, reserveShare)
		}
		sum := new(big.Int).Add(reserveShare, lenderShare)
		if sum.Cmp(big.NewInt(tc.interest)) != 0 {
			t.Fatalf("splitInterest(%d, %d): shares sum to %s", tc.interest, tc.factor, sum)
		}
	}
}

func TestRepayRoutesReserveShare(t *testing.T) {
	engine, state, token := newTestEngine(DefaultRiskConfig())
	if err := engine.UpdateReserveConfig(testAdmin, ReserveConfig{ReserveFactorBps: 1_000}); err != nil {
		t.Fatalf("reserve config failed: %v", err)
	}
	user := makeAddress(0x01)
	token.Mint(user, big.NewInt(1_000))
	state.seedPosition(user, 5_000, 1_000, 1_000)
	state.seedTotals(testAsset, 5_000, 2_000, 0, 1_000)

	// 1000 units of interest realised at reserveFactorBps = 1000 skims 100.
	paid, err := engine.Repay(user, big.NewInt(1_000))
	if err != nil {
		t.Fatalf("repay failed: %v", err)
	}
	if paid.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected 1000 applied, got %s", paid)
	}

	totals := state.totals[testAsset]
	if totals.ReserveBalance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected reserve balance 100, got %s", totals.ReserveBalance)
	}
	if totals.ReserveBalance.Cmp(totals.TotalInterestAccrued) > 0 {
		t.Fatalf("reserve %s exceeds interest accrued %s", totals.ReserveBalance, totals.TotalInterestAccrued)
	}
}

func TestReserveConfigBounds(t *testing.T) {
	if err := (ReserveConfig{ReserveFactorBps: 5_001}).Validate(); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for reserve factor, got %v", err)
	}
	if err := (ReserveConfig{OriginationFeeBps: 10_001}).Validate(); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for origination fee, got %v", err)
	}
	if err := (ReserveConfig{ReserveFactorBps: 5_000, FlashLoanFeeBps: 900}).Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestWithdrawToTreasury(t *testing.T) {
	engine, state, token := newTestEngine(DefaultRiskConfig())
	treasury := makeAddress(0x77)
	if err := engine.SetTreasury(testAdmin, treasury); err != nil {
		t.Fatalf("set treasury failed: %v", err)
	}
	state.seedTotals(testAsset, 0, 0, 100, 500)
	token.Mint(testModule, big.NewInt(100))

	moved, err := engine.WithdrawToTreasury(testAdmin, big.NewInt(60))
	if err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}
	if moved.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected 60 moved, got %s", moved)
	}
	if got := state.totals[testAsset].ReserveBalance; got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("expected reserve 40, got %s", got)
	}
	if balance, _ := token.BalanceOf(treasury); balance.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected treasury balance 60, got %s", balance)
	}

	if _, err := engine.WithdrawToTreasury(testAdmin, big.NewInt(50)); !errors.Is(err, ErrInsufficientReserves) {
		t.Fatalf("expected ErrInsufficientReserves, got %v", err)
	}
}

func TestWithdrawToTreasuryRequiresConfiguration(t *testing.T) {
	engine, state, _ := newTestEngine(DefaultRiskConfig())
	state.seedTotals(testAsset, 0, 0, 100, 500)

	if _, err := engine.WithdrawToTreasury(testAdmin, big.NewInt(10)); !errors.Is(err, ErrTreasuryNotSet) {
		t.Fatalf("expected ErrTreasuryNotSet, got %v", err)
	}
	if _, err := engine.WithdrawToTreasury(makeAddress(0x66), big.NewInt(10)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestWithdrawToTreasuryRestoresOnTransferFailure(t *testing.T) {
	engine, state, _ := newTestEngine(DefaultRiskConfig())
	if err := engine.SetTreasury(testAdmin, makeAddress(0x77)); err != nil {
		t.Fatalf("set treasury failed: %v", err)
	}
	// The pool account holds nothing, so the external transfer fails.
	state.seedTotals(testAsset, 0, 0, 100, 500)

	if _, err := engine.WithdrawToTreasury(testAdmin, big.NewInt(60)); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if got := state.totals[testAsset].ReserveBalance; got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected reserve restored to 100, got %s", got)
	}
}
