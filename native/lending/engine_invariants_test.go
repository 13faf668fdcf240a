package lending

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// TestLedgerInvariantsUnderRandomOps drives a deterministic random mix of
// operations through the engine and re-checks the aggregate accounting
// properties after every step: exact collateral and borrow conservation,
// monotonic interest, and the reserve bound. The accrue case can fire before
// any deposit has materialised a totals record, so the aggregate checks
// tolerate an absent record.
func TestLedgerInvariantsUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	engine, state, token := newTestEngine(DefaultRiskConfig())
	if err := engine.UpdateReserveConfig(testAdmin, ReserveConfig{ReserveFactorBps: 1_000, OriginationFeeBps: 50}); err != nil {
		t.Fatalf("reserve config failed: %v", err)
	}

	users := []common.Address{makeAddress(0x01), makeAddress(0x02), makeAddress(0x03), makeAddress(0x04)}
	for _, user := range users {
		token.Mint(user, big.NewInt(1_000_000))
	}

	lastBorrows := big.NewInt(0)

	for i := 0; i < 500; i++ {
		user := users[rng.Intn(len(users))]
		amount := big.NewInt(int64(rng.Intn(200) + 1))

		switch rng.Intn(6) {
		case 0:
			_ = engine.Deposit(user, amount)
		case 1:
			_ = engine.Withdraw(user, amount)
		case 2:
			if _, err := engine.Borrow(user, amount); err == nil {
				ratio, ok, err := engine.CollateralRatioBps(user)
				if err != nil || !ok {
					t.Fatalf("step %d: ratio lookup failed, ok=%v err=%v", i, ok, err)
				}
				if ratio.Cmp(new(big.Int).SetUint64(engine.RiskParams().MinCollateralRatioBps)) < 0 {
					t.Fatalf("step %d: borrow left ratio %s under minimum", i, ratio)
				}
			}
		case 3:
			_, _ = engine.Repay(user, amount)
		case 4:
			engine.SetCurrentTime(engine.CurrentTime() + uint64(rng.Intn(30))*86_400)
			if _, err := engine.AccrueInterest(); err != nil {
				t.Fatalf("step %d: accrue failed: %v", i, err)
			}
			if totals := state.totals[testAsset]; totals != nil && totals.TotalBorrows.Cmp(lastBorrows) < 0 {
				t.Fatalf("step %d: borrows shrank after accrual from %s to %s", i, lastBorrows, totals.TotalBorrows)
			}
		case 5:
			_, _, _ = engine.Liquidate(user, users[rng.Intn(len(users))], amount)
		}

		assertLedgerConservation(t, i, state, users)
		if totals := state.totals[testAsset]; totals != nil {
			lastBorrows = new(big.Int).Set(totals.TotalBorrows)
		}
	}
}

func assertLedgerConservation(t *testing.T, step int, state *mockEngineState, users []common.Address) {
	t.Helper()
	totals := state.totals[testAsset]
	if totals == nil {
		return
	}

	collateralSum := big.NewInt(0)
	debtSum := big.NewInt(0)
	for _, user := range users {
		pos := state.positions[user]
		if pos == nil {
			continue
		}
		if pos.Collateral.Sign() < 0 || pos.Debt.Sign() < 0 || pos.AccruedInterest.Sign() < 0 {
			t.Fatalf("step %d: negative position field for %s", step, user.Hex())
		}
		collateralSum.Add(collateralSum, pos.Collateral)
		debtSum.Add(debtSum, pos.TotalDebt())
	}

	if totals.TotalCollateral.Cmp(collateralSum) != 0 {
		t.Fatalf("step %d: total collateral %s != per-user sum %s", step, totals.TotalCollateral, collateralSum)
	}
	// Every mutation, accrual included, moves the aggregate and the positions
	// by the same amounts, so borrow conservation is exact.
	if totals.TotalBorrows.Cmp(debtSum) != 0 {
		t.Fatalf("step %d: total borrows %s != per-user sum %s", step, totals.TotalBorrows, debtSum)
	}

	if totals.ReserveBalance.Sign() < 0 {
		t.Fatalf("step %d: negative reserve balance %s", step, totals.ReserveBalance)
	}
	if totals.ReserveBalance.Cmp(totals.TotalInterestAccrued) > 0 {
		t.Fatalf("step %d: reserve %s exceeds interest accrued %s", step, totals.ReserveBalance, totals.TotalInterestAccrued)
	}
}
