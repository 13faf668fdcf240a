package lending

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Position maintains the collateral and debt ledger entry for a single user.
// Amounts are denominated in the smallest asset unit and expressed as big
// integers to match on-ledger precision.
type Position struct {
	// Address is the unique account identifier of the position owner.
	Address common.Address
	// Collateral records the amount pledged against outstanding debt.
	Collateral *big.Int
	// Debt stores the borrowed principal before interest accrual.
	Debt *big.Int
	// AccruedInterest holds interest accumulated since the last realisation.
	AccruedInterest *big.Int
	// LastAccrualTime records the ledger timestamp of the last accrual.
	LastAccrualTime uint64
}

// TotalDebt returns principal plus accrued interest.
func (p *Position) TotalDebt() *big.Int {
	if p == nil {
		return big.NewInt(0)
	}
	total := big.NewInt(0)
	if p.Debt != nil {
		total.Add(total, p.Debt)
	}
	if p.AccruedInterest != nil {
		total.Add(total, p.AccruedInterest)
	}
	return total
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := &Position{Address: p.Address, LastAccrualTime: p.LastAccrualTime}
	if p.Collateral != nil {
		clone.Collateral = new(big.Int).Set(p.Collateral)
	}
	if p.Debt != nil {
		clone.Debt = new(big.Int).Set(p.Debt)
	}
	if p.AccruedInterest != nil {
		clone.AccruedInterest = new(big.Int).Set(p.AccruedInterest)
	}
	return clone
}

// ProtocolTotals captures the aggregate accounting state for a single asset.
type ProtocolTotals struct {
	// Asset identifies the pool asset the totals are denominated in.
	Asset common.Address
	// TotalCollateral is the exact sum of all per-user collateral balances.
	TotalCollateral *big.Int
	// TotalBorrows is the exact sum of outstanding principal plus accrued
	// interest across all positions.
	TotalBorrows *big.Int
	// ReserveBalance holds the protocol share of realised interest.
	ReserveBalance *big.Int
	// TotalInterestAccrued accumulates every unit of interest ever charged,
	// bounding the reserve balance from above.
	TotalInterestAccrued *big.Int
	// LastAccrualTime records the ledger timestamp of the last pool accrual.
	LastAccrualTime uint64
}

// Clone returns a deep copy of the totals record.
func (t *ProtocolTotals) Clone() *ProtocolTotals {
	if t == nil {
		return nil
	}
	clone := &ProtocolTotals{Asset: t.Asset, LastAccrualTime: t.LastAccrualTime}
	if t.TotalCollateral != nil {
		clone.TotalCollateral = new(big.Int).Set(t.TotalCollateral)
	}
	if t.TotalBorrows != nil {
		clone.TotalBorrows = new(big.Int).Set(t.TotalBorrows)
	}
	if t.ReserveBalance != nil {
		clone.ReserveBalance = new(big.Int).Set(t.ReserveBalance)
	}
	if t.TotalInterestAccrued != nil {
		clone.TotalInterestAccrued = new(big.Int).Set(t.TotalInterestAccrued)
	}
	return clone
}

func ensurePositionDefaults(p *Position) {
	if p == nil {
		return
	}
	if p.Collateral == nil {
		p.Collateral = big.NewInt(0)
	}
	if p.Debt == nil {
		p.Debt = big.NewInt(0)
	}
	if p.AccruedInterest == nil {
		p.AccruedInterest = big.NewInt(0)
	}
}

func ensureTotalsDefaults(t *ProtocolTotals) {
	if t == nil {
		return
	}
	if t.TotalCollateral == nil {
		t.TotalCollateral = big.NewInt(0)
	}
	if t.TotalBorrows == nil {
		t.TotalBorrows = big.NewInt(0)
	}
	if t.ReserveBalance == nil {
		t.ReserveBalance = big.NewInt(0)
	}
	if t.TotalInterestAccrued == nil {
		t.TotalInterestAccrued = big.NewInt(0)
	}
}
