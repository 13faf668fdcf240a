package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"stellarlend/config"
	"stellarlend/native/lending"
	"stellarlend/observability/logging"
	stellarotel "stellarlend/observability/otel"
	"stellarlend/state"
	"stellarlend/storage"
)

const envVar = "STELLARLEND_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("stellarlendd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	if env == "" {
		env = cfg.Environment
	}

	db, err := openDatabase(cfg.DataDir)
	if err != nil {
		logger.Error("open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := func(context.Context) error { return nil }
	if cfg.Telemetry.Metrics || cfg.Telemetry.Traces {
		shutdownTelemetry, err = stellarotel.Init(ctx, stellarotel.Config{
			ServiceName: "stellarlendd",
			Environment: env,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Metrics:     cfg.Telemetry.Metrics,
			Traces:      cfg.Telemetry.Traces,
		})
		if err != nil {
			logger.Error("init telemetry", slog.Any("error", err))
			os.Exit(1)
		}
	}

	store := state.NewLendingStore(db)
	engine, token, collateralToken, oracle, err := buildEngine(cfg, store, logger)
	if err != nil {
		logger.Error("build engine", slog.Any("error", err))
		os.Exit(1)
	}

	srv := newServer(engine, store, token, collateralToken, oracle, logger)
	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      srv.handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", slog.String("address", cfg.ListenAddress))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen and serve", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown", slog.Any("error", err))
	}
}

// openDatabase opens the persistent store, or an in-memory one when the data
// directory is set to ":memory:" for devnet runs.
func openDatabase(dataDir string) (storage.Database, error) {
	if strings.TrimSpace(dataDir) == ":memory:" {
		return storage.NewMemDB(), nil
	}
	return storage.NewLevelDB(dataDir)
}

// buildEngine assembles the lending engine from the on-disk configuration,
// preferring previously persisted parameter records over the config file so
// admin updates survive restarts.
func buildEngine(cfg *config.Config, store *state.LendingStore, logger *slog.Logger) (*lending.Engine, *lending.LedgerToken, *lending.LedgerToken, *lending.StaticOracle, error) {
	asset := common.HexToAddress(cfg.AssetAddress)
	collateralAsset := common.HexToAddress(cfg.CollateralAssetAddress)
	moduleAddr := common.HexToAddress(cfg.ModuleAddress)
	admin := common.HexToAddress(cfg.AdminAddress)

	risk := cfg.RiskConfig()
	if stored, ok, err := store.LoadRiskConfig(); err != nil {
		return nil, nil, nil, nil, err
	} else if ok {
		risk = stored
	}

	engine := lending.NewEngine(asset, collateralAsset, moduleAddr, admin, risk)
	engine.SetState(store)
	engine.SetEmitter(slogEmitter{logger: logger})
	engine.SetBorrowCaps(cfg.BorrowCaps())
	engine.SetCurrentTime(uint64(time.Now().Unix()))

	rates := cfg.RateConfig()
	if stored, ok, err := store.LoadRateConfig(); err != nil {
		return nil, nil, nil, nil, err
	} else if ok {
		rates = stored
	}
	if err := engine.InitializeRateConfig(rates); err != nil {
		return nil, nil, nil, nil, err
	}

	reserve := cfg.ReserveConfig()
	if stored, ok, err := store.LoadReserveConfig(asset); err != nil {
		return nil, nil, nil, nil, err
	} else if ok {
		reserve = stored
	}
	if err := engine.UpdateReserveConfig(admin, reserve); err != nil {
		return nil, nil, nil, nil, err
	}

	if err := store.SaveRiskConfig(engine.RiskParams()); err != nil {
		return nil, nil, nil, nil, err
	}
	if err := store.SaveRateConfig(engine.RateParams()); err != nil {
		return nil, nil, nil, nil, err
	}
	if err := store.SaveReserveConfig(asset, engine.ReserveParams()); err != nil {
		return nil, nil, nil, nil, err
	}

	token := lending.NewLedgerToken()
	collateralToken := token
	if collateralAsset != asset {
		collateralToken = lending.NewLedgerToken()
	}
	engine.SetTokens(token, collateralToken)

	oracle := lending.NewStaticOracle()
	engine.SetOracle(oracle)

	return engine, token, collateralToken, oracle, nil
}
