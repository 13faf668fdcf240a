package lending

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stellarlend/core/events"
)

// reserveFactorUpperBps caps the protocol's share of realised interest.
const reserveFactorUpperBps = 5_000

// ReserveConfig describes how realised interest and fees are split between
// lenders and the protocol treasury.
type ReserveConfig struct {
	// ReserveFactorBps is the protocol share of realised interest.
	ReserveFactorBps uint64
	// OriginationFeeBps is deducted from borrow disbursements.
	OriginationFeeBps uint64
	// FlashLoanFeeBps is charged on flash loan principal.
	FlashLoanFeeBps uint64
	// Treasury receives reserve withdrawals; zero until configured.
	Treasury common.Address
}

// Validate checks the configuration against its documented bounds.
func (c ReserveConfig) Validate() error {
	if c.ReserveFactorBps > reserveFactorUpperBps {
		return ErrInvalidParameter
	}
	if c.OriginationFeeBps > bpsDenominator || c.FlashLoanFeeBps > bpsDenominator {
		return ErrInvalidParameter
	}
	return nil
}

// splitInterest divides realised interest into the protocol reserve share and
// the lender share. Truncation favours lenders by at most one unit.
func splitInterest(interest *big.Int, reserveFactorBps uint64) (reserveShare, lenderShare *big.Int) {
	if interest == nil || interest.Sign() <= 0 {
		return big.NewInt(0), big.NewInt(0)
	}
	reserveShare = mulDivBps(interest, reserveFactorBps)
	lenderShare = new(big.Int).Sub(interest, reserveShare)
	return reserveShare, lenderShare
}

// accrueReserve applies the reserve split for interest realised by the
// current operation. The lender share stays in the pool implicitly.
func (e *Engine) accrueReserve(totals *ProtocolTotals, interest *big.Int) {
	if totals == nil || interest == nil || interest.Sign() <= 0 {
		return
	}
	reserveShare, _ := splitInterest(interest, e.reserve.ReserveFactorBps)
	if reserveShare.Sign() > 0 {
		totals.ReserveBalance = new(big.Int).Add(totals.ReserveBalance, reserveShare)
	}
}

// WithdrawToTreasury moves accumulated reserves to the configured treasury
// address. The reserve balance is decremented before the external transfer is
// attempted, so a reentrant call observes already-consistent state.
func (e *Engine) WithdrawToTreasury(caller common.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.reserve.Treasury == (common.Address{}) {
		return nil, ErrTreasuryNotSet
	}

	totals, origTotals, err := e.loadTotals()
	if err != nil {
		return nil, err
	}
	if totals.ReserveBalance.Cmp(amount) < 0 {
		return nil, ErrInsufficientReserves
	}

	totals.ReserveBalance = new(big.Int).Sub(totals.ReserveBalance, amount)
	if err := e.state.PutTotals(e.asset, totals); err != nil {
		return nil, err
	}
	if e.token != nil {
		if err := e.token.Transfer(e.moduleAddress, e.reserve.Treasury, amount); err != nil {
			e.restore(nil, origTotals)
			return nil, err
		}
	}

	e.emit(&events.LendingReserveWithdrawal{
		Treasury:  e.reserve.Treasury,
		Amount:    new(big.Int).Set(amount),
		Remaining: new(big.Int).Set(totals.ReserveBalance),
		Timestamp: e.currentTime,
	})
	return new(big.Int).Set(amount), nil
}
