package lending

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// TokenTransfer abstracts the asset contract that moves funds between the
// pool and user accounts. The engine only invokes these methods after its own
// bookkeeping is committed, and any failure aborts the whole operation.
type TokenTransfer interface {
	BalanceOf(account common.Address) (*big.Int, error)
	Transfer(from, to common.Address, amount *big.Int) error
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
}

// LedgerToken is an in-process token backend keeping plain balances. The
// node embeds it for devnet operation and the tests use it to simulate
// transfer failures and reentrant callers.
type LedgerToken struct {
	mu       sync.RWMutex
	balances map[common.Address]*big.Int
}

// NewLedgerToken constructs an empty balance ledger.
func NewLedgerToken() *LedgerToken {
	return &LedgerToken{balances: make(map[common.Address]*big.Int)}
}

// Mint credits freshly issued units to the account.
func (t *LedgerToken) Mint(account common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	balance, ok := t.balances[account]
	if !ok {
		balance = big.NewInt(0)
	}
	t.balances[account] = new(big.Int).Add(balance, amount)
}

// BalanceOf returns the current balance for the account, zero when unknown.
func (t *LedgerToken) BalanceOf(account common.Address) (*big.Int, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	balance, ok := t.balances[account]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

// Transfer moves amount from one account to another, failing when the source
// balance does not cover it.
func (t *LedgerToken) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fromBalance, ok := t.balances[from]
	if !ok || fromBalance.Cmp(amount) < 0 {
		return ErrTransferFailed
	}
	toBalance, ok := t.balances[to]
	if !ok {
		toBalance = big.NewInt(0)
	}
	t.balances[from] = new(big.Int).Sub(fromBalance, amount)
	t.balances[to] = new(big.Int).Add(toBalance, amount)
	return nil
}

// TransferFrom moves amount out of from on behalf of spender. The in-process
// backend has no allowance bookkeeping, so it delegates to Transfer.
func (t *LedgerToken) TransferFrom(_, from, to common.Address, amount *big.Int) error {
	return t.Transfer(from, to, amount)
}
