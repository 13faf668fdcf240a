package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"stellarlend/native/lending"
	"stellarlend/storage"
)

// Keyed-record layout. Every record is content-addressed by a stable
// identifier: the user address, the asset address, or a fixed singleton tag.
const (
	positionKeyPrefix = "lending/position/"
	positionIndexKey  = "lending/positions"
	totalsKeyPrefix   = "lending/totals/"
	riskConfigKey     = "lending/config/risk"
	rateConfigKey     = "lending/config/rates"
	reserveKeyPrefix  = "lending/config/reserve/"
)

// LendingStore persists the lending ledger as JSON records in a key-value
// database. It implements the engine's state interface.
type LendingStore struct {
	db storage.Database
}

// NewLendingStore wraps the supplied database.
func NewLendingStore(db storage.Database) *LendingStore {
	return &LendingStore{db: db}
}

func positionKey(addr common.Address) []byte {
	return []byte(positionKeyPrefix + addr.Hex())
}

func totalsKey(asset common.Address) []byte {
	return []byte(totalsKeyPrefix + asset.Hex())
}

// GetPosition loads the user's position record, nil when none exists.
func (s *LendingStore) GetPosition(addr common.Address) (*lending.Position, error) {
	raw, err := s.db.Get(positionKey(addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	position := &lending.Position{}
	if err := json.Unmarshal(raw, position); err != nil {
		return nil, fmt.Errorf("state: decode position: %w", err)
	}
	return position, nil
}

// PutPosition stores the position and registers its address in the position
// index on first write.
func (s *LendingStore) PutPosition(position *lending.Position) error {
	if position == nil {
		return nil
	}
	key := positionKey(position.Address)
	known, err := s.db.Has(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(position)
	if err != nil {
		return fmt.Errorf("state: encode position: %w", err)
	}
	if err := s.db.Put(key, raw); err != nil {
		return err
	}
	if known {
		return nil
	}
	index, err := s.positionIndex()
	if err != nil {
		return err
	}
	index = append(index, position.Address)
	encoded, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("state: encode position index: %w", err)
	}
	return s.db.Put([]byte(positionIndexKey), encoded)
}

// ForEachPosition visits every stored position in index order.
func (s *LendingStore) ForEachPosition(fn func(*lending.Position) error) error {
	index, err := s.positionIndex()
	if err != nil {
		return err
	}
	for _, addr := range index {
		position, err := s.GetPosition(addr)
		if err != nil {
			return err
		}
		if position == nil {
			continue
		}
		if err := fn(position); err != nil {
			return err
		}
	}
	return nil
}

func (s *LendingStore) positionIndex() ([]common.Address, error) {
	raw, err := s.db.Get([]byte(positionIndexKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var index []common.Address
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("state: decode position index: %w", err)
	}
	return index, nil
}

// GetTotals loads the aggregate record for the asset, nil when none exists.
func (s *LendingStore) GetTotals(asset common.Address) (*lending.ProtocolTotals, error) {
	raw, err := s.db.Get(totalsKey(asset))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	totals := &lending.ProtocolTotals{}
	if err := json.Unmarshal(raw, totals); err != nil {
		return nil, fmt.Errorf("state: decode totals: %w", err)
	}
	return totals, nil
}

// PutTotals stores the aggregate record for the asset.
func (s *LendingStore) PutTotals(asset common.Address, totals *lending.ProtocolTotals) error {
	if totals == nil {
		return nil
	}
	raw, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("state: encode totals: %w", err)
	}
	return s.db.Put(totalsKey(asset), raw)
}

// SaveRiskConfig persists the singleton risk configuration record.
func (s *LendingStore) SaveRiskConfig(cfg lending.RiskConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("state: encode risk config: %w", err)
	}
	return s.db.Put([]byte(riskConfigKey), raw)
}

// LoadRiskConfig returns the stored risk configuration; the boolean reports
// whether a record exists.
func (s *LendingStore) LoadRiskConfig() (lending.RiskConfig, bool, error) {
	raw, err := s.db.Get([]byte(riskConfigKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return lending.RiskConfig{}, false, nil
	}
	if err != nil {
		return lending.RiskConfig{}, false, err
	}
	var cfg lending.RiskConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return lending.RiskConfig{}, false, fmt.Errorf("state: decode risk config: %w", err)
	}
	return cfg, true, nil
}

// SaveRateConfig persists the singleton interest rate configuration record.
func (s *LendingStore) SaveRateConfig(cfg lending.InterestRateConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("state: encode rate config: %w", err)
	}
	return s.db.Put([]byte(rateConfigKey), raw)
}

// LoadRateConfig returns the stored rate configuration; the boolean reports
// whether a record exists.
func (s *LendingStore) LoadRateConfig() (lending.InterestRateConfig, bool, error) {
	raw, err := s.db.Get([]byte(rateConfigKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return lending.InterestRateConfig{}, false, nil
	}
	if err != nil {
		return lending.InterestRateConfig{}, false, err
	}
	var cfg lending.InterestRateConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return lending.InterestRateConfig{}, false, fmt.Errorf("state: decode rate config: %w", err)
	}
	return cfg, true, nil
}

// SaveReserveConfig persists the per-asset reserve configuration record.
func (s *LendingStore) SaveReserveConfig(asset common.Address, cfg lending.ReserveConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("state: encode reserve config: %w", err)
	}
	return s.db.Put([]byte(reserveKeyPrefix+asset.Hex()), raw)
}

// LoadReserveConfig returns the stored reserve configuration for the asset;
// the boolean reports whether a record exists.
func (s *LendingStore) LoadReserveConfig(asset common.Address) (lending.ReserveConfig, bool, error) {
	raw, err := s.db.Get([]byte(reserveKeyPrefix + asset.Hex()))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return lending.ReserveConfig{}, false, nil
	}
	if err != nil {
		return lending.ReserveConfig{}, false, err
	}
	var cfg lending.ReserveConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return lending.ReserveConfig{}, false, fmt.Errorf("state: decode reserve config: %w", err)
	}
	return cfg, true, nil
}
