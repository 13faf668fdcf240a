package lending

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stellarlend/core/events"
	nativecommon "stellarlend/native/common"
)

// Liquidate lets a third party repay part of an undercollateralized
// borrower's debt in exchange for a discounted slice of their collateral.
//
// The call proceeds through a fixed sequence: accrue the borrower's interest,
// convert the collateral into debt-asset terms via the oracle price ratio,
// check eligibility against the liquidation threshold, bound the request by
// the close factor, seize collateral plus incentive capped at the actual
// balance, and reduce debt interest-first. A partial liquidation must leave
// the borrower's ratio no worse than it started, otherwise the whole call is
// rejected. The repaid debt and seized collateral amounts are returned.
func (e *Engine) Liquidate(liquidator, borrower common.Address, debtAmount *big.Int) (*big.Int, *big.Int, error) {
	if e == nil || e.state == nil {
		return nil, nil, errNilState
	}
	if err := nativecommon.Guard(e.risk, string(OpLiquidate)); err != nil {
		return nil, nil, err
	}
	if debtAmount == nil || debtAmount.Sign() <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	totals, origTotals, err := e.loadTotals()
	if err != nil {
		return nil, nil, err
	}
	pos, origPos, err := e.loadPosition(borrower)
	if err != nil {
		return nil, nil, err
	}
	if err := e.accruePosition(pos, totals); err != nil {
		return nil, nil, err
	}

	totalDebt := pos.TotalDebt()
	if totalDebt.Sign() == 0 {
		return nil, nil, ErrNotLiquidatable
	}

	collateralPrice, debtPrice, err := e.liquidationPrices()
	if err != nil {
		return nil, nil, err
	}

	value := convertValue(pos.Collateral, collateralPrice, debtPrice)
	preRatio := ratioBps(value, totalDebt)
	if preRatio.Cmp(new(big.Int).SetUint64(e.risk.LiquidationThresholdBps)) >= 0 {
		return nil, nil, ErrNotLiquidatable
	}

	maxLiquidatable := mulDivBps(totalDebt, e.risk.CloseFactorBps)
	if debtAmount.Cmp(maxLiquidatable) > 0 {
		return nil, nil, ErrExceedsCloseFactor
	}
	liquidated := new(big.Int).Set(debtAmount)
	if liquidated.Cmp(totalDebt) > 0 {
		liquidated.Set(totalDebt)
	}

	// Seized collateral, in collateral-asset terms, with the liquidator
	// incentive applied and capped at the borrower's actual balance.
	incentive, err := checkedAddU64(bpsDenominator, e.risk.LiquidationIncentiveBps)
	if err != nil {
		return nil, nil, err
	}
	seized := new(big.Int).Mul(liquidated, debtPrice)
	seized.Mul(seized, new(big.Int).SetUint64(incentive))
	den := new(big.Int).Mul(collateralPrice, basisPoints)
	seized.Quo(seized, den)
	if seized.Cmp(pos.Collateral) > 0 {
		seized.Set(pos.Collateral)
	}

	interestPaid := new(big.Int).Set(pos.AccruedInterest)
	if interestPaid.Cmp(liquidated) > 0 {
		interestPaid.Set(liquidated)
	}
	principalPaid := new(big.Int).Sub(liquidated, interestPaid)

	pos.AccruedInterest = new(big.Int).Sub(pos.AccruedInterest, interestPaid)
	pos.Debt = new(big.Int).Sub(pos.Debt, principalPaid)
	pos.Collateral = new(big.Int).Sub(pos.Collateral, seized)
	totals.TotalBorrows = new(big.Int).Sub(totals.TotalBorrows, liquidated)
	if totals.TotalBorrows.Sign() < 0 {
		totals.TotalBorrows.SetInt64(0)
	}
	totals.TotalCollateral = new(big.Int).Sub(totals.TotalCollateral, seized)
	e.accrueReserve(totals, interestPaid)

	// A single partial liquidation may never leave the position deeper
	// underwater in ratio terms.
	postDebt := pos.TotalDebt()
	if postDebt.Sign() > 0 {
		postValue := convertValue(pos.Collateral, collateralPrice, debtPrice)
		if ratioBps(postValue, postDebt).Cmp(preRatio) < 0 {
			return nil, nil, ErrLiquidationRegressed
		}
	}

	if err := e.persist(pos, totals); err != nil {
		return nil, nil, err
	}
	if e.token != nil {
		if err := e.token.TransferFrom(liquidator, liquidator, e.moduleAddress, liquidated); err != nil {
			e.restore(origPos, origTotals)
			return nil, nil, err
		}
	}
	if e.collateralToken != nil && seized.Sign() > 0 {
		if err := e.collateralToken.Transfer(e.moduleAddress, liquidator, seized); err != nil {
			e.restore(origPos, origTotals)
			return nil, nil, err
		}
	}

	e.emit(&events.LendingLiquidation{
		Liquidator: liquidator,
		Borrower:   borrower,
		Repaid:     new(big.Int).Set(liquidated),
		Seized:     new(big.Int).Set(seized),
		Debt:       pos.TotalDebt(),
		Timestamp:  e.currentTime,
	})
	return liquidated, seized, nil
}

// liquidationPrices resolves the collateral and debt asset prices. Same-asset
// pools are always 1:1; cross-asset lookups fall back to the documented 1.0
// default when a quote is missing.
func (e *Engine) liquidationPrices() (*big.Int, *big.Int, error) {
	if e.collateralAsset == e.asset {
		return DefaultPrice(), DefaultPrice(), nil
	}
	collateralPrice, err := e.priceOrDefault(e.collateralAsset)
	if err != nil {
		return nil, nil, err
	}
	debtPrice, err := e.priceOrDefault(e.asset)
	if err != nil {
		return nil, nil, err
	}
	return collateralPrice, debtPrice, nil
}

func (e *Engine) priceOrDefault(asset common.Address) (*big.Int, error) {
	if e.oracle == nil {
		return DefaultPrice(), nil
	}
	price, err := e.oracle.GetPrice(asset)
	if err != nil {
		if errors.Is(err, ErrPriceNotAvailable) {
			return DefaultPrice(), nil
		}
		return nil, err
	}
	if price == nil || price.Sign() <= 0 {
		return DefaultPrice(), nil
	}
	return price, nil
}

// convertValue expresses a collateral balance in debt-asset terms using the
// fixed-point price ratio.
func convertValue(balance, collateralPrice, debtPrice *big.Int) *big.Int {
	if balance == nil || balance.Sign() <= 0 {
		return big.NewInt(0)
	}
	if debtPrice == nil || debtPrice.Sign() == 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(balance, collateralPrice)
	return out.Quo(out, debtPrice)
}
