package lending

import "errors"

var (
	errNilState  = errors.New("lending: state not configured")
	errNilTotals = errors.New("lending: protocol totals not initialised")

	ErrInvalidAmount           = errors.New("lending: amount must be positive")
	ErrInsufficientCollateral  = errors.New("lending: insufficient collateral")
	ErrInsufficientRatio       = errors.New("lending: collateral ratio below minimum")
	ErrMaxBorrowExceeded       = errors.New("lending: amount exceeds maximum borrowable")
	ErrBorrowCapExceeded       = errors.New("lending: borrow cap exceeded")
	ErrInsufficientLiquidity   = errors.New("lending: insufficient pool liquidity")
	ErrNoOutstandingDebt       = errors.New("lending: no outstanding debt to repay")
	ErrNotLiquidatable         = errors.New("lending: borrower not eligible for liquidation")
	ErrExceedsCloseFactor      = errors.New("lending: liquidation exceeds close factor bound")
	ErrLiquidationRegressed    = errors.New("lending: liquidation would worsen borrower ratio")
	ErrPriceNotAvailable       = errors.New("lending: price not available")
	ErrOverflow                = errors.New("lending: arithmetic overflow")
	ErrInvalidParameter        = errors.New("lending: parameter outside permitted bounds")
	ErrParameterChangeTooLarge = errors.New("lending: parameter change exceeds 10% step limit")
	ErrUnauthorized            = errors.New("lending: caller is not the configured admin")
	ErrTreasuryNotSet          = errors.New("lending: treasury address not configured")
	ErrInsufficientReserves    = errors.New("lending: amount exceeds reserve balance")
	ErrFlashLoanNotRepaid      = errors.New("lending: flash loan not repaid in full")
	ErrTokenNotConfigured      = errors.New("lending: token transfer backend not configured")
	ErrTransferFailed          = errors.New("lending: external transfer failed")
)
