package lending

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stellarlend/core/events"
	nativecommon "stellarlend/native/common"
)

// FlashLoanCallback is invoked with the borrowed principal and the fee owed.
// The receiver must hold amount+fee by the time the callback returns.
type FlashLoanCallback func(amount, fee *big.Int) error

// FlashLoan extends uncollateralized credit for the duration of a single
// call. The principal is disbursed, the callback runs, and the principal plus
// fee is pulled back in before anything is committed; any shortfall fails the
// whole call. The fee charged is returned.
func (e *Engine) FlashLoan(receiver common.Address, amount *big.Int, fn FlashLoanCallback) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.risk, string(OpFlashLoan)); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if e.token == nil {
		return nil, ErrTokenNotConfigured
	}

	totals, _, err := e.loadTotals()
	if err != nil {
		return nil, err
	}
	if e.availableLiquidity(totals).Cmp(amount) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	fee := mulDivBps(amount, e.reserve.FlashLoanFeeBps)
	repayment := new(big.Int).Add(amount, fee)

	poolBefore, err := e.token.BalanceOf(e.moduleAddress)
	if err != nil {
		return nil, err
	}

	if err := e.token.Transfer(e.moduleAddress, receiver, amount); err != nil {
		return nil, err
	}
	if fn != nil {
		if err := fn(new(big.Int).Set(amount), new(big.Int).Set(fee)); err != nil {
			// Claw the principal back before reporting the failure; the
			// ledger itself was never touched.
			return nil, e.clawBackPrincipal(receiver, amount)
		}
	}
	if err := e.token.TransferFrom(receiver, receiver, e.moduleAddress, repayment); err != nil {
		return nil, e.clawBackPrincipal(receiver, amount)
	}

	poolAfter, err := e.token.BalanceOf(e.moduleAddress)
	if err != nil {
		return nil, err
	}
	expected := new(big.Int).Add(poolBefore, fee)
	if poolAfter.Cmp(expected) < 0 {
		return nil, ErrFlashLoanNotRepaid
	}

	// Fee revenue is realised interest: split it between the reserve and the
	// lender side of the pool.
	if fee.Sign() > 0 {
		e.accrueReserve(totals, fee)
		totals.TotalInterestAccrued = new(big.Int).Add(totals.TotalInterestAccrued, fee)
		if err := e.state.PutTotals(e.asset, totals); err != nil {
			return nil, err
		}
	}

	e.emit(&events.LendingFlashLoan{
		Receiver:  receiver,
		Amount:    new(big.Int).Set(amount),
		Fee:       new(big.Int).Set(fee),
		Timestamp: e.currentTime,
	})
	return fee, nil
}

// clawBackPrincipal recovers a disbursed flash loan principal after a failed
// settlement. When the receiver already disposed of the funds the pool's token
// balance is short; the returned error carries the transfer failure so the
// operator can reconcile the ledger.
func (e *Engine) clawBackPrincipal(receiver common.Address, amount *big.Int) error {
	if err := e.token.Transfer(receiver, e.moduleAddress, amount); err != nil {
		return fmt.Errorf("%w: principal clawback failed: %w", ErrFlashLoanNotRepaid, err)
	}
	return ErrFlashLoanNotRepaid
}
