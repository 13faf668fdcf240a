package lending

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// priceScale is the fixed-point denominator for oracle quotes: prices carry
// seven decimal places, so 10_000_000 represents 1.0.
var priceScale = big.NewInt(10_000_000)

// PriceOracle resolves the price of an asset in the oracle's reference unit.
// Implementations return ErrPriceNotAvailable when no quote is configured;
// callers decide between a documented fallback and a hard failure.
type PriceOracle interface {
	GetPrice(asset common.Address) (*big.Int, error)
}

// DefaultPrice is the 1.0 fallback applied when a quote is missing at call
// sites that must not block on oracle availability.
func DefaultPrice() *big.Int {
	return new(big.Int).Set(priceScale)
}

// StaticOracle is a mutable in-memory price table. The node feeds it from its
// upstream quote source; tests set prices directly.
type StaticOracle struct {
	mu     sync.RWMutex
	prices map[common.Address]*big.Int
}

// NewStaticOracle constructs an empty price table.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{prices: make(map[common.Address]*big.Int)}
}

// SetPrice stores a fixed-point quote for the asset. Non-positive prices
// remove the quote.
func (o *StaticOracle) SetPrice(asset common.Address, price *big.Int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if price == nil || price.Sign() <= 0 {
		delete(o.prices, asset)
		return
	}
	o.prices[asset] = new(big.Int).Set(price)
}

// GetPrice returns the stored quote or ErrPriceNotAvailable.
func (o *StaticOracle) GetPrice(asset common.Address) (*big.Int, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	price, ok := o.prices[asset]
	if !ok {
		return nil, ErrPriceNotAvailable
	}
	return new(big.Int).Set(price), nil
}
