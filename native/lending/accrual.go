package lending

import (
	"math/big"

	"stellarlend/core/events"
)

// accruePosition brings a single position's interest up to date before any
// ratio check observes it. A cleared position has its residual interest reset
// so nothing lingers; a non-advancing clock is a no-op.
func (e *Engine) accruePosition(pos *Position, totals *ProtocolTotals) error {
	if pos == nil || totals == nil {
		return errNilTotals
	}
	now := e.currentTime
	if pos.Debt.Sign() == 0 {
		if pos.AccruedInterest.Sign() != 0 {
			pos.AccruedInterest = big.NewInt(0)
		}
		pos.LastAccrualTime = now
		return nil
	}
	if now <= pos.LastAccrualTime {
		return nil
	}
	elapsed := now - pos.LastAccrualTime

	rate, err := e.rates.BorrowRateBps(Utilization(totals.TotalBorrows, totals.TotalCollateral))
	if err != nil {
		return err
	}

	interest := positionInterest(pos.Debt, rate, elapsed)
	if interest.Sign() > 0 {
		pos.AccruedInterest = new(big.Int).Add(pos.AccruedInterest, interest)
		totals.TotalBorrows = new(big.Int).Add(totals.TotalBorrows, interest)
		totals.TotalInterestAccrued = new(big.Int).Add(totals.TotalInterestAccrued, interest)
	}
	pos.LastAccrualTime = now
	return nil
}

// positionInterest computes debt * rate * elapsed / (10000 * secondsPerYear),
// multiplying before dividing to preserve precision. The big integer product
// cannot wrap, so precision loss is confined to the final truncation.
func positionInterest(debt *big.Int, rateBps uint64, elapsedSeconds uint64) *big.Int {
	if debt == nil || debt.Sign() <= 0 || rateBps == 0 || elapsedSeconds == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(debt, new(big.Int).SetUint64(rateBps))
	out.Mul(out, new(big.Int).SetUint64(elapsedSeconds))
	den := new(big.Int).Mul(basisPoints, big.NewInt(secondsPerYear))
	return out.Quo(out, den)
}

// AccrueInterest advances the whole pool at the current aggregate rate. Each
// indebted position is charged over its own window since its last accrual, so
// a position brought up to date by an earlier operation at the same timestamp
// is never charged again for the interval. TotalBorrows grows by exactly the
// sum of per-position charges. The total interest charged is returned.
func (e *Engine) AccrueInterest() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	totals, _, err := e.loadTotals()
	if err != nil {
		return nil, err
	}
	now := e.currentTime
	if now <= totals.LastAccrualTime {
		return big.NewInt(0), nil
	}

	if totals.TotalBorrows.Sign() == 0 {
		totals.LastAccrualTime = now
		if err := e.state.PutTotals(e.asset, totals); err != nil {
			return nil, err
		}
		return big.NewInt(0), nil
	}

	rate, err := e.rates.BorrowRateBps(Utilization(totals.TotalBorrows, totals.TotalCollateral))
	if err != nil {
		return nil, err
	}

	poolInterest := big.NewInt(0)
	err = e.state.ForEachPosition(func(stored *Position) error {
		pos := stored.Clone()
		ensurePositionDefaults(pos)
		if pos.Debt.Sign() == 0 || pos.LastAccrualTime >= now {
			return nil
		}
		share := positionInterest(pos.Debt, rate, now-pos.LastAccrualTime)
		if share.Sign() > 0 {
			pos.AccruedInterest = new(big.Int).Add(pos.AccruedInterest, share)
			poolInterest.Add(poolInterest, share)
		}
		pos.LastAccrualTime = now
		return e.state.PutPosition(pos)
	})
	if err != nil {
		return nil, err
	}
	if poolInterest.Sign() > 0 {
		totals.TotalBorrows = new(big.Int).Add(totals.TotalBorrows, poolInterest)
		totals.TotalInterestAccrued = new(big.Int).Add(totals.TotalInterestAccrued, poolInterest)
	}
	totals.LastAccrualTime = now
	if err := e.state.PutTotals(e.asset, totals); err != nil {
		return nil, err
	}

	e.emit(&events.LendingAccrual{
		Interest:     new(big.Int).Set(poolInterest),
		TotalBorrows: new(big.Int).Set(totals.TotalBorrows),
		Timestamp:    now,
	})
	return poolInterest, nil
}

// BorrowRateBps exposes the current borrow rate for observability callers.
func (e *Engine) BorrowRateBps() (uint64, error) {
	totals, _, err := e.loadTotals()
	if err != nil {
		return 0, err
	}
	return e.rates.BorrowRateBps(Utilization(totals.TotalBorrows, totals.TotalCollateral))
}

// SupplyRateBps exposes the current supply rate for observability callers.
func (e *Engine) SupplyRateBps() (uint64, error) {
	totals, _, err := e.loadTotals()
	if err != nil {
		return 0, err
	}
	return e.rates.SupplyRateBps(Utilization(totals.TotalBorrows, totals.TotalCollateral))
}
