package lending

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"stellarlend/core/events"
	nativecommon "stellarlend/native/common"
)

// engineState is the persistence boundary for the lending ledger. Position
// and totals records are created lazily and never hard-deleted, only zeroed.
type engineState interface {
	GetPosition(addr common.Address) (*Position, error)
	PutPosition(position *Position) error
	ForEachPosition(fn func(*Position) error) error
	GetTotals(asset common.Address) (*ProtocolTotals, error)
	PutTotals(asset common.Address, totals *ProtocolTotals) error
}

// Engine orchestrates every state transition of the lending ledger: deposits,
// withdrawals, borrows, repayments, liquidations, flash loans, and interest
// accrual. Operations run to completion; an operation either applies all of
// its mutations or leaves the ledger untouched.
type Engine struct {
	state           engineState
	asset           common.Address
	collateralAsset common.Address
	moduleAddress   common.Address
	admin           common.Address

	risk    RiskConfig
	rates   InterestRateConfig
	reserve ReserveConfig
	caps    BorrowCaps

	// collateralFactorBps risk-weights cross-asset collateral in ratio
	// checks; 10000 when collateral and debt share a unit.
	collateralFactorBps uint64

	token           TokenTransfer
	collateralToken TokenTransfer
	oracle          PriceOracle
	emitter         events.Emitter

	// currentTime is the ledger timestamp operations observe. The host
	// advances it before each call; tests drive it directly.
	currentTime uint64
}

// BorrowCaps throttles borrow growth beyond the pure solvency checks.
type BorrowCaps struct {
	// PerOperation limits the amount borrowable in a single call.
	PerOperation *big.Int
	// Total constrains the aggregate outstanding borrow exposure.
	Total *big.Int
	// UtilizationBps bounds post-borrow utilisation relative to deposits.
	UtilizationBps uint64
}

// Clone returns a deep copy of the borrow caps.
func (c BorrowCaps) Clone() BorrowCaps {
	clone := BorrowCaps{UtilizationBps: c.UtilizationBps}
	if c.PerOperation != nil {
		clone.PerOperation = new(big.Int).Set(c.PerOperation)
	}
	if c.Total != nil {
		clone.Total = new(big.Int).Set(c.Total)
	}
	return clone
}

// NewEngine constructs a lending engine for a single debt asset. The module
// address is the pool account holding deposited liquidity.
func NewEngine(asset, collateralAsset, moduleAddr, admin common.Address, risk RiskConfig) *Engine {
	return &Engine{
		asset:               asset,
		collateralAsset:     collateralAsset,
		moduleAddress:       moduleAddr,
		admin:               admin,
		risk:                risk.Clone(),
		rates:               DefaultInterestRateConfig(),
		collateralFactorBps: bpsDenominator,
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the sink receiving one event per successful mutation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	e.emitter = emitter
}

// SetTokens wires the transfer backends for the debt and collateral assets.
// A single backend may serve both when the assets share a ledger.
func (e *Engine) SetTokens(debt, collateral TokenTransfer) {
	if e == nil {
		return
	}
	e.token = debt
	e.collateralToken = collateral
}

// SetOracle configures the price source used for cross-asset liquidations.
func (e *Engine) SetOracle(oracle PriceOracle) {
	if e == nil {
		return
	}
	e.oracle = oracle
}

// SetCollateralFactor assigns the risk weight applied to cross-asset
// collateral in ratio checks.
func (e *Engine) SetCollateralFactor(bps uint64) error {
	if e == nil {
		return errNilState
	}
	if bps == 0 || bps > bpsDenominator {
		return ErrInvalidParameter
	}
	e.collateralFactorBps = bps
	return nil
}

// SetBorrowCaps configures the borrow growth throttles.
func (e *Engine) SetBorrowCaps(caps BorrowCaps) {
	if e == nil {
		return
	}
	e.caps = caps.Clone()
}

// SetCurrentTime records the ledger timestamp observed by subsequent
// operations. Time never moves backwards.
func (e *Engine) SetCurrentTime(ts uint64) {
	if e == nil {
		return
	}
	if ts > e.currentTime {
		e.currentTime = ts
	}
}

// CurrentTime returns the ledger timestamp the engine operates at.
func (e *Engine) CurrentTime() uint64 {
	if e == nil {
		return 0
	}
	return e.currentTime
}

// Asset returns the pool's debt asset address.
func (e *Engine) Asset() common.Address { return e.asset }

// RiskParams returns a copy of the active risk configuration.
func (e *Engine) RiskParams() RiskConfig { return e.risk.Clone() }

// RateParams returns a copy of the active interest rate configuration.
func (e *Engine) RateParams() InterestRateConfig { return e.rates }

// ReserveParams returns a copy of the active reserve configuration.
func (e *Engine) ReserveParams() ReserveConfig { return e.reserve }

// UpdateRiskConfig replaces the risk parameters. The caller must be the
// configured admin, the new values must sit inside their documented bounds,
// and no field may move more than 10% from its prior value in one step.
func (e *Engine) UpdateRiskConfig(caller common.Address, next RiskConfig) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := e.risk.validateStep(next); err != nil {
		return err
	}
	next = next.Clone()
	next.LastUpdate = e.currentTime
	e.risk = next
	return nil
}

// SetPause toggles an individual operation switch.
func (e *Engine) SetPause(caller common.Address, op Operation, paused bool) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if e.risk.Paused == nil {
		e.risk.Paused = make(map[Operation]bool)
	}
	e.risk.Paused[op] = paused
	e.risk.LastUpdate = e.currentTime
	return nil
}

// SetEmergencyPause engages or releases the global circuit breaker.
func (e *Engine) SetEmergencyPause(caller common.Address, paused bool) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.risk.EmergencyPause = paused
	e.risk.LastUpdate = e.currentTime
	return nil
}

// InitializeRateConfig seeds the rate curve at construction time, before any
// governance history exists. The 10% step rule applies only to later updates.
func (e *Engine) InitializeRateConfig(cfg InterestRateConfig) error {
	if e == nil {
		return errNilState
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.rates = cfg
	return nil
}

// UpdateInterestRateConfig replaces the rate curve parameters under the same
// guardrails as UpdateRiskConfig. The emergency adjustment is exempt from the
// step rule and clamped by Validate.
func (e *Engine) UpdateInterestRateConfig(caller common.Address, next InterestRateConfig) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if err := e.rates.validateStep(next); err != nil {
		return err
	}
	next.LastUpdate = e.currentTime
	e.rates = next
	return nil
}

// UpdateReserveConfig replaces the reserve parameters.
func (e *Engine) UpdateReserveConfig(caller common.Address, next ReserveConfig) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	treasury := e.reserve.Treasury
	e.reserve = next
	if next.Treasury == (common.Address{}) {
		e.reserve.Treasury = treasury
	}
	return nil
}

// SetTreasury assigns the reserve withdrawal destination.
func (e *Engine) SetTreasury(caller, treasury common.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	e.reserve.Treasury = treasury
	return nil
}

func (e *Engine) requireAdmin(caller common.Address) error {
	if e == nil {
		return errNilState
	}
	if caller != e.admin {
		return ErrUnauthorized
	}
	return nil
}

// Deposit locks collateral for the user and grows the pool's aggregate
// collateral by the same amount.
func (e *Engine) Deposit(user common.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.risk, string(OpDeposit)); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	totals, origTotals, err := e.loadTotals()
	if err != nil {
		return err
	}
	pos, origPos, err := e.loadPosition(user)
	if err != nil {
		return err
	}
	if err := e.accruePosition(pos, totals); err != nil {
		return err
	}

	pos.Collateral = new(big.Int).Add(pos.Collateral, amount)
	totals.TotalCollateral = new(big.Int).Add(totals.TotalCollateral, amount)

	if err := e.persist(pos, totals); err != nil {
		return err
	}
	if e.collateralToken != nil {
		if err := e.collateralToken.TransferFrom(user, user, e.moduleAddress, amount); err != nil {
			e.restore(origPos, origTotals)
			return err
		}
	}

	e.emit(&events.LendingDeposit{
		User:            user,
		Amount:          new(big.Int).Set(amount),
		Collateral:      new(big.Int).Set(pos.Collateral),
		TotalCollateral: new(big.Int).Set(totals.TotalCollateral),
		Timestamp:       e.currentTime,
	})
	return nil
}

// Withdraw releases collateral back to the user, rejecting the operation when
// the remaining balance would push an indebted position under the minimum
// ratio.
func (e *Engine) Withdraw(user common.Address, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := nativecommon.Guard(e.risk, string(OpWithdraw)); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	totals, origTotals, err := e.loadTotals()
	if err != nil {
		return err
	}
	pos, origPos, err := e.loadPosition(user)
	if err != nil {
		return err
	}
	if err := e.accruePosition(pos, totals); err != nil {
		return err
	}

	if pos.Collateral.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	remaining := new(big.Int).Sub(pos.Collateral, amount)
	debt := pos.TotalDebt()
	if debt.Sign() > 0 {
		ratio := ratioBps(e.collateralValue(remaining), debt)
		if ratio.Cmp(new(big.Int).SetUint64(e.risk.MinCollateralRatioBps)) < 0 {
			return ErrInsufficientRatio
		}
	}

	pos.Collateral = remaining
	totals.TotalCollateral = new(big.Int).Sub(totals.TotalCollateral, amount)

	if err := e.persist(pos, totals); err != nil {
		return err
	}
	if e.collateralToken != nil {
		if err := e.collateralToken.Transfer(e.moduleAddress, user, amount); err != nil {
			e.restore(origPos, origTotals)
			return err
		}
	}

	e.emit(&events.LendingWithdraw{
		User:            user,
		Amount:          new(big.Int).Set(amount),
		Collateral:      new(big.Int).Set(pos.Collateral),
		TotalCollateral: new(big.Int).Set(totals.TotalCollateral),
		Timestamp:       e.currentTime,
	})
	return nil
}

// Borrow extends debt against the user's collateral. The requested amount is
// checked against the maximum borrowable bound and the resulting ratio is
// independently re-validated. An optional origination fee is deducted from
// the disbursement and routed to reserves; the fee charged is returned.
func (e *Engine) Borrow(user common.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.risk, string(OpBorrow)); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	totals, origTotals, err := e.loadTotals()
	if err != nil {
		return nil, err
	}
	pos, origPos, err := e.loadPosition(user)
	if err != nil {
		return nil, err
	}
	if err := e.accruePosition(pos, totals); err != nil {
		return nil, err
	}

	if pos.Collateral.Sign() == 0 {
		return nil, ErrInsufficientCollateral
	}
	if err := e.checkBorrowCaps(totals, amount); err != nil {
		return nil, err
	}

	debt := pos.TotalDebt()
	value := e.collateralValue(pos.Collateral)
	maxBorrowable := new(big.Int).Mul(value, basisPoints)
	maxBorrowable.Quo(maxBorrowable, new(big.Int).SetUint64(e.risk.MinCollateralRatioBps))
	maxBorrowable.Sub(maxBorrowable, debt)
	if maxBorrowable.Sign() < 0 {
		maxBorrowable.SetInt64(0)
	}
	if amount.Cmp(maxBorrowable) > 0 {
		return nil, ErrMaxBorrowExceeded
	}

	// Belt and braces: the bound above should already guarantee this, but the
	// resulting ratio is re-validated independently.
	projected := new(big.Int).Add(debt, amount)
	if ratioBps(value, projected).Cmp(new(big.Int).SetUint64(e.risk.MinCollateralRatioBps)) < 0 {
		return nil, ErrInsufficientRatio
	}

	if e.availableLiquidity(totals).Cmp(amount) < 0 {
		return nil, ErrInsufficientLiquidity
	}

	fee := mulDivBps(amount, e.reserve.OriginationFeeBps)
	disbursed := new(big.Int).Sub(amount, fee)

	pos.Debt = new(big.Int).Add(pos.Debt, amount)
	totals.TotalBorrows = new(big.Int).Add(totals.TotalBorrows, amount)
	if fee.Sign() > 0 {
		totals.ReserveBalance = new(big.Int).Add(totals.ReserveBalance, fee)
		totals.TotalInterestAccrued = new(big.Int).Add(totals.TotalInterestAccrued, fee)
	}

	if err := e.persist(pos, totals); err != nil {
		return nil, err
	}
	if e.token != nil && disbursed.Sign() > 0 {
		if err := e.token.Transfer(e.moduleAddress, user, disbursed); err != nil {
			e.restore(origPos, origTotals)
			return nil, err
		}
	}

	e.emit(&events.LendingBorrow{
		User:         user,
		Amount:       new(big.Int).Set(amount),
		Fee:          new(big.Int).Set(fee),
		Debt:         pos.TotalDebt(),
		TotalBorrows: new(big.Int).Set(totals.TotalBorrows),
		Timestamp:    e.currentTime,
	})
	return fee, nil
}

// Repay pays down the user's debt, interest before principal. The amount is
// capped to the total outstanding debt; the amount actually applied is
// returned.
func (e *Engine) Repay(user common.Address, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := nativecommon.Guard(e.risk, string(OpRepay)); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	totals, origTotals, err := e.loadTotals()
	if err != nil {
		return nil, err
	}
	pos, origPos, err := e.loadPosition(user)
	if err != nil {
		return nil, err
	}
	if err := e.accruePosition(pos, totals); err != nil {
		return nil, err
	}

	debt := pos.TotalDebt()
	if debt.Sign() == 0 {
		return nil, ErrNoOutstandingDebt
	}
	pay := new(big.Int).Set(amount)
	if pay.Cmp(debt) > 0 {
		pay.Set(debt)
	}

	interestPaid := new(big.Int).Set(pos.AccruedInterest)
	if interestPaid.Cmp(pay) > 0 {
		interestPaid.Set(pay)
	}
	principalPaid := new(big.Int).Sub(pay, interestPaid)

	pos.AccruedInterest = new(big.Int).Sub(pos.AccruedInterest, interestPaid)
	pos.Debt = new(big.Int).Sub(pos.Debt, principalPaid)
	totals.TotalBorrows = new(big.Int).Sub(totals.TotalBorrows, pay)
	if totals.TotalBorrows.Sign() < 0 {
		totals.TotalBorrows.SetInt64(0)
	}
	e.accrueReserve(totals, interestPaid)

	if err := e.persist(pos, totals); err != nil {
		return nil, err
	}
	if e.token != nil {
		if err := e.token.TransferFrom(user, user, e.moduleAddress, pay); err != nil {
			e.restore(origPos, origTotals)
			return nil, err
		}
	}

	e.emit(&events.LendingRepay{
		User:         user,
		Repaid:       new(big.Int).Set(pay),
		InterestPaid: interestPaid,
		Debt:         pos.TotalDebt(),
		TotalBorrows: new(big.Int).Set(totals.TotalBorrows),
		Timestamp:    e.currentTime,
	})
	return pay, nil
}

// Position returns a copy of the user's ledger entry, nil when none exists.
func (e *Engine) Position(user common.Address) (*Position, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	pos, err := e.state.GetPosition(user)
	if err != nil {
		return nil, err
	}
	return pos.Clone(), nil
}

// Totals returns a copy of the aggregate ledger state.
func (e *Engine) Totals() (*ProtocolTotals, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	totals, _, err := e.loadTotals()
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// CollateralRatioBps reports the user's current ratio; the boolean is false
// when the position carries no debt and the ratio is undefined (safe).
func (e *Engine) CollateralRatioBps(user common.Address) (*big.Int, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	pos, err := e.state.GetPosition(user)
	if err != nil {
		return nil, false, err
	}
	if pos == nil {
		return nil, false, nil
	}
	debt := pos.TotalDebt()
	if debt.Sign() == 0 {
		return nil, false, nil
	}
	return ratioBps(e.collateralValue(pos.Collateral), debt), true, nil
}

func (e *Engine) checkBorrowCaps(totals *ProtocolTotals, amount *big.Int) error {
	if e.caps.PerOperation != nil && e.caps.PerOperation.Sign() > 0 && amount.Cmp(e.caps.PerOperation) > 0 {
		return ErrBorrowCapExceeded
	}
	projected := new(big.Int).Add(totals.TotalBorrows, amount)
	if e.caps.Total != nil && e.caps.Total.Sign() > 0 && projected.Cmp(e.caps.Total) > 0 {
		return ErrBorrowCapExceeded
	}
	if e.caps.UtilizationBps > 0 {
		if Utilization(projected, totals.TotalCollateral) > e.caps.UtilizationBps {
			return ErrBorrowCapExceeded
		}
	}
	return nil
}

// collateralValue risk-weights a collateral balance for ratio checks.
func (e *Engine) collateralValue(balance *big.Int) *big.Int {
	if balance == nil || balance.Sign() <= 0 {
		return big.NewInt(0)
	}
	if e.collateralAsset == e.asset || e.collateralFactorBps == bpsDenominator {
		return new(big.Int).Set(balance)
	}
	return mulDivBps(balance, e.collateralFactorBps)
}

func (e *Engine) availableLiquidity(totals *ProtocolTotals) *big.Int {
	liquidity := new(big.Int).Sub(totals.TotalCollateral, totals.TotalBorrows)
	if liquidity.Sign() < 0 {
		return big.NewInt(0)
	}
	return liquidity
}

// loadPosition returns a working copy of the user's position plus the
// original snapshot used to roll back after a failed external transfer. A
// missing record yields a fresh zeroed position.
func (e *Engine) loadPosition(addr common.Address) (*Position, *Position, error) {
	stored, err := e.state.GetPosition(addr)
	if err != nil {
		return nil, nil, err
	}
	if stored == nil {
		stored = &Position{Address: addr, LastAccrualTime: e.currentTime}
	}
	ensurePositionDefaults(stored)
	return stored.Clone(), stored.Clone(), nil
}

func (e *Engine) loadTotals() (*ProtocolTotals, *ProtocolTotals, error) {
	stored, err := e.state.GetTotals(e.asset)
	if err != nil {
		return nil, nil, err
	}
	if stored == nil {
		stored = &ProtocolTotals{Asset: e.asset, LastAccrualTime: e.currentTime}
	}
	ensureTotalsDefaults(stored)
	return stored.Clone(), stored.Clone(), nil
}

func (e *Engine) persist(pos *Position, totals *ProtocolTotals) error {
	if pos != nil {
		if err := e.state.PutPosition(pos); err != nil {
			return err
		}
	}
	if totals != nil {
		if err := e.state.PutTotals(e.asset, totals); err != nil {
			return err
		}
	}
	return nil
}

// restore re-persists the pre-operation snapshots after an external transfer
// failure so the caller observes a ledger byte-for-byte unchanged.
func (e *Engine) restore(pos *Position, totals *ProtocolTotals) {
	if pos != nil {
		_ = e.state.PutPosition(pos)
	}
	if totals != nil {
		_ = e.state.PutTotals(e.asset, totals)
	}
}

func (e *Engine) emit(ev events.Event) {
	if e.emitter == nil {
		return
	}
	e.emitter.Emit(ev)
}
