package lending

import (
	"errors"
	"math/big"
	"testing"
)

func newFlashLoanEngine(t *testing.T) (*Engine, *mockEngineState, *LedgerToken) {
	t.Helper()
	engine, state, token := newTestEngine(DefaultRiskConfig())
	cfg := ReserveConfig{ReserveFactorBps: 1_000, FlashLoanFeeBps: 900}
	if err := engine.UpdateReserveConfig(testAdmin, cfg); err != nil {
		t.Fatalf("reserve config failed: %v", err)
	}
	state.seedTotals(testAsset, 1_000, 0, 0, 0)
	token.Mint(testModule, big.NewInt(1_000))
	return engine, state, token
}

func TestFlashLoanRepaidWithFee(t *testing.T) {
	engine, state, token := newFlashLoanEngine(t)
	receiver := makeAddress(0x01)
	token.Mint(receiver, big.NewInt(45))

	var sawAmount, sawFee *big.Int
	fee, err := engine.FlashLoan(receiver, big.NewInt(500), func(amount, fee *big.Int) error {
		sawAmount = amount
		sawFee = fee
		balance, _ := token.BalanceOf(receiver)
		if balance.Cmp(big.NewInt(545)) != 0 {
			t.Fatalf("expected receiver to hold 545 mid-loan, got %s", balance)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("flash loan failed: %v", err)
	}
	if fee.Cmp(big.NewInt(45)) != 0 {
		t.Fatalf("expected fee 45, got %s", fee)
	}
	if sawAmount.Cmp(big.NewInt(500)) != 0 || sawFee.Cmp(big.NewInt(45)) != 0 {
		t.Fatalf("callback saw amount %s fee %s", sawAmount, sawFee)
	}

	balance, _ := token.BalanceOf(testModule)
	if balance.Cmp(big.NewInt(1_045)) != 0 {
		t.Fatalf("expected pool balance 1045, got %s", balance)
	}
	totals := state.totals[testAsset]
	// 45 units of fee at a 10% reserve factor.
	if totals.ReserveBalance.Cmp(big.NewInt(4)) != 0 {
		t.Fatalf("expected reserve balance 4, got %s", totals.ReserveBalance)
	}
	if totals.TotalInterestAccrued.Cmp(big.NewInt(45)) != 0 {
		t.Fatalf("expected interest accrued 45, got %s", totals.TotalInterestAccrued)
	}
}

func TestFlashLoanWithoutRepaymentFails(t *testing.T) {
	engine, state, token := newFlashLoanEngine(t)
	receiver := makeAddress(0x01)
	// The receiver never acquires the 45 fee, so the 545 pull-back fails.

	_, err := engine.FlashLoan(receiver, big.NewInt(500), nil)
	if !errors.Is(err, ErrFlashLoanNotRepaid) {
		t.Fatalf("expected ErrFlashLoanNotRepaid, got %v", err)
	}

	balance, _ := token.BalanceOf(testModule)
	if balance.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected principal clawed back to 1000, got %s", balance)
	}
	totals := state.totals[testAsset]
	if totals.ReserveBalance.Sign() != 0 || totals.TotalInterestAccrued.Sign() != 0 {
		t.Fatalf("expected ledger untouched, got reserve %s interest %s", totals.ReserveBalance, totals.TotalInterestAccrued)
	}
}

func TestFlashLoanCallbackFailureAborts(t *testing.T) {
	engine, _, token := newFlashLoanEngine(t)
	receiver := makeAddress(0x01)
	token.Mint(receiver, big.NewInt(45))

	boom := errors.New("callback failed")
	_, err := engine.FlashLoan(receiver, big.NewInt(500), func(_, _ *big.Int) error {
		return boom
	})
	if !errors.Is(err, ErrFlashLoanNotRepaid) {
		t.Fatalf("expected ErrFlashLoanNotRepaid, got %v", err)
	}

	balance, _ := token.BalanceOf(testModule)
	if balance.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("expected principal clawed back to 1000, got %s", balance)
	}
}

func TestFlashLoanReportsFailedClawback(t *testing.T) {
	engine, _, token := newFlashLoanEngine(t)
	receiver := makeAddress(0x01)
	sink := makeAddress(0x02)

	// The receiver moves the principal away inside the callback and then
	// fails, so the clawback cannot recover it. The error must carry the
	// transfer failure so the shortfall is visible.
	boom := errors.New("callback failed")
	_, err := engine.FlashLoan(receiver, big.NewInt(500), func(amount, _ *big.Int) error {
		if err := token.Transfer(receiver, sink, amount); err != nil {
			t.Fatalf("moving principal failed: %v", err)
		}
		return boom
	})
	if !errors.Is(err, ErrFlashLoanNotRepaid) {
		t.Fatalf("expected ErrFlashLoanNotRepaid, got %v", err)
	}
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected clawback failure carried in error, got %v", err)
	}

	// The pool is genuinely short by the disposed principal.
	balance, _ := token.BalanceOf(testModule)
	if balance.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("expected pool short at 500, got %s", balance)
	}
}

func TestFlashLoanRequiresLiquidity(t *testing.T) {
	engine, _, _ := newFlashLoanEngine(t)

	_, err := engine.FlashLoan(makeAddress(0x01), big.NewInt(2_000), nil)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestFlashLoanRejectsNonPositiveAmount(t *testing.T) {
	engine, _, _ := newFlashLoanEngine(t)

	_, err := engine.FlashLoan(makeAddress(0x01), big.NewInt(0), nil)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
