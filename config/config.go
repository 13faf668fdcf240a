package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"stellarlend/native/lending"
)

// Config is the on-disk node configuration. Addresses are hex encoded; all
// protocol parameters are basis points.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`

	AssetAddress           string `toml:"AssetAddress"`
	CollateralAssetAddress string `toml:"CollateralAssetAddress"`
	ModuleAddress          string `toml:"ModuleAddress"`
	AdminAddress           string `toml:"AdminAddress"`
	TreasuryAddress        string `toml:"TreasuryAddress,omitempty"`

	Telemetry TelemetrySection `toml:"telemetry"`
	Risk      RiskSection      `toml:"risk"`
	Rates     RatesSection     `toml:"rates"`
	Reserve   ReserveSection   `toml:"reserve"`
	Caps      CapsSection      `toml:"caps"`
}

// TelemetrySection configures the OpenTelemetry exporters.
type TelemetrySection struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Metrics  bool   `toml:"Metrics"`
	Traces   bool   `toml:"Traces"`
}

// RiskSection mirrors lending.RiskConfig.
type RiskSection struct {
	MinCollateralRatioBps   uint64 `toml:"MinCollateralRatioBps"`
	LiquidationThresholdBps uint64 `toml:"LiquidationThresholdBps"`
	CloseFactorBps          uint64 `toml:"CloseFactorBps"`
	LiquidationIncentiveBps uint64 `toml:"LiquidationIncentiveBps"`
}

// RatesSection mirrors lending.InterestRateConfig.
type RatesSection struct {
	BaseRateBps            uint64 `toml:"BaseRateBps"`
	KinkUtilizationBps     uint64 `toml:"KinkUtilizationBps"`
	MultiplierBps          uint64 `toml:"MultiplierBps"`
	JumpMultiplierBps      uint64 `toml:"JumpMultiplierBps"`
	RateFloorBps           uint64 `toml:"RateFloorBps"`
	RateCeilingBps         uint64 `toml:"RateCeilingBps"`
	SpreadBps              uint64 `toml:"SpreadBps"`
	EmergencyAdjustmentBps int64  `toml:"EmergencyAdjustmentBps"`
}

// ReserveSection mirrors lending.ReserveConfig.
type ReserveSection struct {
	ReserveFactorBps  uint64 `toml:"ReserveFactorBps"`
	OriginationFeeBps uint64 `toml:"OriginationFeeBps"`
	FlashLoanFeeBps   uint64 `toml:"FlashLoanFeeBps"`
}

// CapsSection mirrors lending.BorrowCaps; zero values disable a throttle.
type CapsSection struct {
	PerOperation   uint64 `toml:"PerOperation"`
	Total          uint64 `toml:"Total"`
	UtilizationBps uint64 `toml:"UtilizationBps"`
}

// Load reads the configuration from path, creating a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	for _, undecoded := range meta.Undecoded() {
		return nil, fmt.Errorf("config file %s contains unknown field %s", path, strings.Join(undecoded, "."))
	}

	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := Default()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the genesis configuration for a local single-asset devnet.
func Default() *Config {
	risk := lending.DefaultRiskConfig()
	rates := lending.DefaultInterestRateConfig()
	return &Config{
		ListenAddress:          ":8648",
		DataDir:                "./stellarlend-data",
		Environment:            "local",
		AssetAddress:           "0x0000000000000000000000000000000000000a55",
		CollateralAssetAddress: "0x0000000000000000000000000000000000000a55",
		ModuleAddress:          "0x0000000000000000000000000000000000001e4d",
		AdminAddress:           "0x00000000000000000000000000000000000000ad",
		Risk: RiskSection{
			MinCollateralRatioBps:   risk.MinCollateralRatioBps,
			LiquidationThresholdBps: risk.LiquidationThresholdBps,
			CloseFactorBps:          risk.CloseFactorBps,
			LiquidationIncentiveBps: risk.LiquidationIncentiveBps,
		},
		Rates: RatesSection{
			BaseRateBps:        rates.BaseRateBps,
			KinkUtilizationBps: rates.KinkUtilizationBps,
			MultiplierBps:      rates.MultiplierBps,
			JumpMultiplierBps:  rates.JumpMultiplierBps,
			RateFloorBps:       rates.RateFloorBps,
			RateCeilingBps:     rates.RateCeilingBps,
			SpreadBps:          rates.SpreadBps,
		},
		Reserve: ReserveSection{
			ReserveFactorBps: 1_000,
			FlashLoanFeeBps:  900,
		},
	}
}

func applyDefaults(cfg *Config) {
	def := Default()
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = def.ListenAddress
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = def.DataDir
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = def.Environment
	}
	if cfg.Risk == (RiskSection{}) {
		cfg.Risk = def.Risk
	}
	if cfg.Rates == (RatesSection{}) {
		cfg.Rates = def.Rates
	}
	if strings.TrimSpace(cfg.CollateralAssetAddress) == "" {
		cfg.CollateralAssetAddress = cfg.AssetAddress
	}
}

// Validate checks the addresses parse and every parameter section passes the
// lending module's own validators.
func (c *Config) Validate() error {
	for name, addr := range map[string]string{
		"AssetAddress":           c.AssetAddress,
		"CollateralAssetAddress": c.CollateralAssetAddress,
		"ModuleAddress":          c.ModuleAddress,
		"AdminAddress":           c.AdminAddress,
	} {
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("config: %s %q is not a valid hex address", name, addr)
		}
	}
	if c.TreasuryAddress != "" && !common.IsHexAddress(c.TreasuryAddress) {
		return fmt.Errorf("config: TreasuryAddress %q is not a valid hex address", c.TreasuryAddress)
	}
	if err := c.RiskConfig().Validate(); err != nil {
		return fmt.Errorf("config: risk section: %w", err)
	}
	if err := c.RateConfig().Validate(); err != nil {
		return fmt.Errorf("config: rates section: %w", err)
	}
	if err := c.ReserveConfig().Validate(); err != nil {
		return fmt.Errorf("config: reserve section: %w", err)
	}
	return nil
}

// RiskConfig converts the risk section into the lending module's form.
func (c *Config) RiskConfig() lending.RiskConfig {
	return lending.RiskConfig{
		MinCollateralRatioBps:   c.Risk.MinCollateralRatioBps,
		LiquidationThresholdBps: c.Risk.LiquidationThresholdBps,
		CloseFactorBps:          c.Risk.CloseFactorBps,
		LiquidationIncentiveBps: c.Risk.LiquidationIncentiveBps,
	}
}

// RateConfig converts the rates section into the lending module's form.
func (c *Config) RateConfig() lending.InterestRateConfig {
	return lending.InterestRateConfig{
		BaseRateBps:            c.Rates.BaseRateBps,
		KinkUtilizationBps:     c.Rates.KinkUtilizationBps,
		MultiplierBps:          c.Rates.MultiplierBps,
		JumpMultiplierBps:      c.Rates.JumpMultiplierBps,
		RateFloorBps:           c.Rates.RateFloorBps,
		RateCeilingBps:         c.Rates.RateCeilingBps,
		SpreadBps:              c.Rates.SpreadBps,
		EmergencyAdjustmentBps: c.Rates.EmergencyAdjustmentBps,
	}
}

// ReserveConfig converts the reserve section into the lending module's form.
func (c *Config) ReserveConfig() lending.ReserveConfig {
	cfg := lending.ReserveConfig{
		ReserveFactorBps:  c.Reserve.ReserveFactorBps,
		OriginationFeeBps: c.Reserve.OriginationFeeBps,
		FlashLoanFeeBps:   c.Reserve.FlashLoanFeeBps,
	}
	if c.TreasuryAddress != "" {
		cfg.Treasury = common.HexToAddress(c.TreasuryAddress)
	}
	return cfg
}

// BorrowCaps converts the caps section into the lending module's form.
func (c *Config) BorrowCaps() lending.BorrowCaps {
	caps := lending.BorrowCaps{UtilizationBps: c.Caps.UtilizationBps}
	if c.Caps.PerOperation > 0 {
		caps.PerOperation = new(big.Int).SetUint64(c.Caps.PerOperation)
	}
	if c.Caps.Total > 0 {
		caps.Total = new(big.Int).SetUint64(c.Caps.Total)
	}
	return caps
}
