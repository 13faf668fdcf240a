package lending

import (
	"math/big"
	"testing"
)

func TestPositionInterestSimpleRate(t *testing.T) {
	// 10% APR on 10000 units for a full year.
	interest := positionInterest(big.NewInt(10_000), 1_000, secondsPerYear)
	if interest.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected 1000, got %s", interest)
	}
	// Half a year halves it.
	interest = positionInterest(big.NewInt(10_000), 1_000, secondsPerYear/2)
	if interest.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected 500, got %s", interest)
	}
	// Truncation never rounds up.
	interest = positionInterest(big.NewInt(1), 1, 1)
	if interest.Sign() != 0 {
		t.Fatalf("expected 0, got %s", interest)
	}
}

func TestAccruePositionAddsInterestOnRepay(t *testing.T) {
	engine, state, token := newTestEngine(DefaultRiskConfig())
	user := makeAddress(0x01)
	token.Mint(user, big.NewInt(50))
	state.seedPosition(user, 150, 100, 0)
	state.seedTotals(testAsset, 150, 100, 0, 0)

	engine.SetCurrentTime(testBaseTime + secondsPerYear)

	// Utilization 100/150 = 6666 bps, below the 8000 kink:
	// rate = 200 + 6666*1000/8000 = 1033 bps, so a year accrues 10 units.
	paid, err := engine.Repay(user, big.NewInt(10))
	if err != nil {
		t.Fatalf("repay failed: %v", err)
	}
	if paid.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected 10 applied, got %s", paid)
	}

	pos := state.positions[user]
	if pos.AccruedInterest.Sign() != 0 {
		t.Fatalf("expected interest consumed by repay, got %s", pos.AccruedInterest)
	}
	if pos.Debt.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected principal untouched at 100, got %s", pos.Debt)
	}
	if pos.LastAccrualTime != testBaseTime+secondsPerYear {
		t.Fatalf("expected accrual time advanced, got %d", pos.LastAccrualTime)
	}
	totals := state.totals[testAsset]
	if totals.TotalBorrows.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected total borrows 100, got %s", totals.TotalBorrows)
	}
	if totals.TotalInterestAccrued.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("expected interest accrued 10, got %s", totals.TotalInterestAccrued)
	}
}

func TestAccruePositionResetsClearedDebt(t *testing.T) {
	engine, _, _ := newTestEngine(DefaultRiskConfig())
	engine.SetCurrentTime(testBaseTime + 100)

	pos := &Position{
		Address:         makeAddress(0x01),
		Collateral:      big.NewInt(100),
		Debt:            big.NewInt(0),
		AccruedInterest: big.NewInt(7),
		LastAccrualTime: testBaseTime,
	}
	totals := &ProtocolTotals{Asset: testAsset}
	ensureTotalsDefaults(totals)

	if err := engine.accruePosition(pos, totals); err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if pos.AccruedInterest.Sign() != 0 {
		t.Fatalf("expected residual interest cleared, got %s", pos.AccruedInterest)
	}
	if pos.LastAccrualTime != testBaseTime+100 {
		t.Fatalf("expected accrual time advanced, got %d", pos.LastAccrualTime)
	}
}

func TestAccruePositionMonotonicTimeGuard(t *testing.T) {
	engine, _, _ := newTestEngine(DefaultRiskConfig())

	pos := &Position{
		Address:         makeAddress(0x01),
		Collateral:      big.NewInt(100),
		Debt:            big.NewInt(50),
		AccruedInterest: big.NewInt(0),
		LastAccrualTime: testBaseTime + 500,
	}
	totals := &ProtocolTotals{Asset: testAsset, TotalBorrows: big.NewInt(50), TotalCollateral: big.NewInt(100)}
	ensureTotalsDefaults(totals)

	if err := engine.accruePosition(pos, totals); err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if pos.AccruedInterest.Sign() != 0 {
		t.Fatalf("expected no interest for non-advancing clock, got %s", pos.AccruedInterest)
	}
	if pos.LastAccrualTime != testBaseTime+500 {
		t.Fatalf("expected accrual time untouched, got %d", pos.LastAccrualTime)
	}
}

func TestAccrueInterestDistributesProportionally(t *testing.T) {
	engine, state, _ := newTestEngine(DefaultRiskConfig())
	alice := makeAddress(0x01)
	bob := makeAddress(0x02)
	state.seedPosition(alice, 400, 100, 0)
	state.seedPosition(bob, 600, 200, 0)
	state.seedTotals(testAsset, 1_000, 300, 0, 0)

	engine.SetCurrentTime(testBaseTime + secondsPerYear)

	// Utilization 300/1000 = 3000 bps: rate = 200 + 3000*1000/8000 = 575 bps.
	// Each position is charged on its own principal with truncation:
	// 100*575/10000 = 5 and 200*575/10000 = 11.
	interest, err := engine.AccrueInterest()
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if interest.Cmp(big.NewInt(16)) != 0 {
		t.Fatalf("expected pool interest 16, got %s", interest)
	}

	if got := state.positions[alice].AccruedInterest; got.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected alice interest 5, got %s", got)
	}
	if got := state.positions[bob].AccruedInterest; got.Cmp(big.NewInt(11)) != 0 {
		t.Fatalf("expected bob interest 11, got %s", got)
	}

	totals := state.totals[testAsset]
	if totals.TotalBorrows.Cmp(big.NewInt(316)) != 0 {
		t.Fatalf("expected total borrows 316, got %s", totals.TotalBorrows)
	}
	// The aggregate grows by exactly the sum of per-position charges.
	sum := new(big.Int).Add(state.positions[alice].TotalDebt(), state.positions[bob].TotalDebt())
	if totals.TotalBorrows.Cmp(sum) != 0 {
		t.Fatalf("total borrows %s != per-position sum %s", totals.TotalBorrows, sum)
	}
}

func TestAccrueInterestDoesNotRechargeInterval(t *testing.T) {
	engine, state, token := newTestEngine(DefaultRiskConfig())
	user := makeAddress(0x01)
	token.Mint(user, big.NewInt(100))
	state.seedPosition(user, 1_000, 500, 0)
	state.seedTotals(testAsset, 1_000, 500, 0, 0)

	engine.SetCurrentTime(testBaseTime + secondsPerYear)

	// Repay brings the position up to date first: utilization 5000 bps gives
	// rate 200 + 5000*1000/8000 = 825, so the year accrues 41 units.
	if _, err := engine.Repay(user, big.NewInt(1)); err != nil {
		t.Fatalf("repay failed: %v", err)
	}
	if got := state.positions[user].TotalDebt(); got.Cmp(big.NewInt(540)) != 0 {
		t.Fatalf("expected debt 540 after repay, got %s", got)
	}

	// A pool sweep at the same instant must not charge the interval again.
	interest, err := engine.AccrueInterest()
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if interest.Sign() != 0 {
		t.Fatalf("expected no further interest, got %s", interest)
	}
	if got := state.positions[user].TotalDebt(); got.Cmp(big.NewInt(540)) != 0 {
		t.Fatalf("expected debt unchanged at 540, got %s", got)
	}
	if got := state.totals[testAsset].TotalBorrows; got.Cmp(big.NewInt(540)) != 0 {
		t.Fatalf("expected total borrows unchanged at 540, got %s", got)
	}

	// A later sweep charges only the window since the repay. Utilization
	// 540/1000 = 5400 bps gives rate 875; half a year on 500 principal is 21.
	engine.SetCurrentTime(testBaseTime + secondsPerYear + secondsPerYear/2)
	interest, err = engine.AccrueInterest()
	if err != nil {
		t.Fatalf("second accrue failed: %v", err)
	}
	if interest.Cmp(big.NewInt(21)) != 0 {
		t.Fatalf("expected 21 units for the half year, got %s", interest)
	}
	if got := state.totals[testAsset].TotalBorrows; got.Cmp(big.NewInt(561)) != 0 {
		t.Fatalf("expected total borrows 561, got %s", got)
	}
}

func TestAccrueInterestToleratesEmptyLedger(t *testing.T) {
	engine, state, _ := newTestEngine(DefaultRiskConfig())
	engine.SetCurrentTime(testBaseTime + secondsPerYear)

	interest, err := engine.AccrueInterest()
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if interest.Sign() != 0 {
		t.Fatalf("expected zero interest, got %s", interest)
	}
	// Nothing was ever deposited, so no totals record is materialised.
	if state.totals[testAsset] != nil {
		t.Fatalf("expected no totals record, got %+v", state.totals[testAsset])
	}
}

func TestAccrueInterestMonotonic(t *testing.T) {
	engine, state, _ := newTestEngine(DefaultRiskConfig())
	user := makeAddress(0x01)
	state.seedPosition(user, 400, 100, 0)
	state.seedTotals(testAsset, 400, 100, 0, 0)

	engine.SetCurrentTime(testBaseTime + secondsPerYear)
	first, err := engine.AccrueInterest()
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if first.Sign() <= 0 {
		t.Fatalf("expected positive interest, got %s", first)
	}
	before := new(big.Int).Set(state.totals[testAsset].TotalBorrows)

	// Same timestamp: nothing further accrues and borrows never shrink.
	second, err := engine.AccrueInterest()
	if err != nil {
		t.Fatalf("second accrue failed: %v", err)
	}
	if second.Sign() != 0 {
		t.Fatalf("expected zero interest on repeat, got %s", second)
	}
	if state.totals[testAsset].TotalBorrows.Cmp(before) < 0 {
		t.Fatalf("total borrows shrank from %s to %s", before, state.totals[testAsset].TotalBorrows)
	}
}

func TestAccrueInterestSkipsIdlePool(t *testing.T) {
	engine, state, _ := newTestEngine(DefaultRiskConfig())
	state.seedTotals(testAsset, 500, 0, 0, 0)
	engine.SetCurrentTime(testBaseTime + secondsPerYear)

	interest, err := engine.AccrueInterest()
	if err != nil {
		t.Fatalf("accrue failed: %v", err)
	}
	if interest.Sign() != 0 {
		t.Fatalf("expected zero interest for idle pool, got %s", interest)
	}
	if got := state.totals[testAsset].LastAccrualTime; got != testBaseTime+secondsPerYear {
		t.Fatalf("expected accrual time advanced, got %d", got)
	}
}
