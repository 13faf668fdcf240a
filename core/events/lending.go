package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// TypeLendingDeposit is emitted when collateral is locked.
	TypeLendingDeposit = "lending.deposit"
	// TypeLendingWithdraw is emitted when collateral is released.
	TypeLendingWithdraw = "lending.withdraw"
	// TypeLendingBorrow is emitted when new debt is extended.
	TypeLendingBorrow = "lending.borrow"
	// TypeLendingRepay is emitted when debt is paid down.
	TypeLendingRepay = "lending.repay"
	// TypeLendingLiquidation is emitted when a position is liquidated.
	TypeLendingLiquidation = "lending.liquidation"
	// TypeLendingAccrual is emitted when pool-wide interest is charged.
	TypeLendingAccrual = "lending.accrual"
	// TypeLendingReserveWithdrawal is emitted when reserves move to the
	// treasury.
	TypeLendingReserveWithdrawal = "lending.reserve.withdrawal"
	// TypeLendingFlashLoan is emitted when a flash loan settles in full.
	TypeLendingFlashLoan = "lending.flashloan"
)

// LendingDeposit captures a collateral deposit and the resulting balances.
type LendingDeposit struct {
	User            common.Address
	Amount          *big.Int
	Collateral      *big.Int
	TotalCollateral *big.Int
	Timestamp       uint64
}

// EventType implements the Event interface.
func (*LendingDeposit) EventType() string { return TypeLendingDeposit }

// LendingWithdraw captures a collateral withdrawal and the resulting balances.
type LendingWithdraw struct {
	User            common.Address
	Amount          *big.Int
	Collateral      *big.Int
	TotalCollateral *big.Int
	Timestamp       uint64
}

// EventType implements the Event interface.
func (*LendingWithdraw) EventType() string { return TypeLendingWithdraw }

// LendingBorrow captures a borrow, the origination fee charged, and the
// resulting debt.
type LendingBorrow struct {
	User         common.Address
	Amount       *big.Int
	Fee          *big.Int
	Debt         *big.Int
	TotalBorrows *big.Int
	Timestamp    uint64
}

// EventType implements the Event interface.
func (*LendingBorrow) EventType() string { return TypeLendingBorrow }

// LendingRepay captures a repayment and its interest/principal split.
type LendingRepay struct {
	User         common.Address
	Repaid       *big.Int
	InterestPaid *big.Int
	Debt         *big.Int
	TotalBorrows *big.Int
	Timestamp    uint64
}

// EventType implements the Event interface.
func (*LendingRepay) EventType() string { return TypeLendingRepay }

// LendingLiquidation captures a liquidation: debt repaid by the liquidator
// and collateral seized in exchange.
type LendingLiquidation struct {
	Liquidator common.Address
	Borrower   common.Address
	Repaid     *big.Int
	Seized     *big.Int
	Debt       *big.Int
	Timestamp  uint64
}

// EventType implements the Event interface.
func (*LendingLiquidation) EventType() string { return TypeLendingLiquidation }

// LendingAccrual captures a pool-wide interest accrual.
type LendingAccrual struct {
	Interest     *big.Int
	TotalBorrows *big.Int
	Timestamp    uint64
}

// EventType implements the Event interface.
func (*LendingAccrual) EventType() string { return TypeLendingAccrual }

// LendingReserveWithdrawal captures a treasury withdrawal from reserves.
type LendingReserveWithdrawal struct {
	Treasury  common.Address
	Amount    *big.Int
	Remaining *big.Int
	Timestamp uint64
}

// EventType implements the Event interface.
func (*LendingReserveWithdrawal) EventType() string { return TypeLendingReserveWithdrawal }

// LendingFlashLoan captures a settled flash loan.
type LendingFlashLoan struct {
	Receiver  common.Address
	Amount    *big.Int
	Fee       *big.Int
	Timestamp uint64
}

// EventType implements the Event interface.
func (*LendingFlashLoan) EventType() string { return TypeLendingFlashLoan }
