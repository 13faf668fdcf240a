package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"stellarlend/core/events"
	"stellarlend/native/lending"
	"stellarlend/observability"
	"stellarlend/state"
)

// server exposes the lending engine over HTTP. Engine operations are
// serialized behind a single mutex, matching the ledger's run-to-completion
// execution model.
type server struct {
	mu sync.Mutex

	engine          *lending.Engine
	store           *state.LendingStore
	token           *lending.LedgerToken
	collateralToken *lending.LedgerToken
	oracle          *lending.StaticOracle

	logger     *slog.Logger
	metrics    *observability.LendingMetrics
	instanceID string
}

func newServer(engine *lending.Engine, store *state.LendingStore, token, collateralToken *lending.LedgerToken, oracle *lending.StaticOracle, logger *slog.Logger) *server {
	return &server{
		engine:          engine,
		store:           store,
		token:           token,
		collateralToken: collateralToken,
		oracle:          oracle,
		logger:          logger,
		metrics:         observability.Lending(),
		instanceID:      uuid.NewString(),
	}
}

func (s *server) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/deposit", s.handleDeposit)
		r.Post("/withdraw", s.handleWithdraw)
		r.Post("/borrow", s.handleBorrow)
		r.Post("/repay", s.handleRepay)
		r.Post("/liquidate", s.handleLiquidate)
		r.Post("/flashloan", s.handleFlashLoan)
		r.Post("/accrue", s.handleAccrue)
		r.Post("/fund", s.handleFund)
		r.Post("/price", s.handlePrice)

		r.Get("/positions/{address}", s.handlePosition)
		r.Get("/pool", s.handlePool)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/pause", s.handlePause)
			r.Post("/emergency", s.handleEmergency)
			r.Post("/risk", s.handleRiskUpdate)
			r.Post("/rates", s.handleRateUpdate)
			r.Post("/reserve", s.handleReserveUpdate)
			r.Post("/treasury/withdraw", s.handleTreasuryWithdraw)
		})
	})

	return otelhttp.NewHandler(r, "stellarlendd")
}

// slogEmitter forwards ledger events to the structured log.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(ev events.Event) {
	if e.logger == nil || ev == nil {
		return
	}
	e.logger.Info("ledger event", slog.String("type", ev.EventType()), slog.Any("event", ev))
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("encode response", slog.Any("error", err))
	}
}

func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, lending.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, lending.ErrInvalidAmount), errors.Is(err, lending.ErrInvalidParameter):
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, into any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(into)
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errors.New("invalid hex address")
	}
	return common.HexToAddress(raw), nil
}

// parseAmount accepts a decimal string so amounts are never squeezed through
// floating point.
func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, errors.New("invalid decimal amount")
	}
	return amount, nil
}

// begin serializes an engine call and stamps the ledger clock.
func (s *server) begin() func() {
	s.mu.Lock()
	s.engine.SetCurrentTime(uint64(time.Now().Unix()))
	return s.mu.Unlock
}

func (s *server) refreshGauges() {
	utilization := uint64(0)
	totals, err := s.engine.Totals()
	if err == nil && totals != nil {
		utilization = lending.Utilization(totals.TotalBorrows, totals.TotalCollateral)
		collateral, _ := new(big.Float).SetInt(totals.TotalCollateral).Float64()
		borrows, _ := new(big.Float).SetInt(totals.TotalBorrows).Float64()
		reserve, _ := new(big.Float).SetInt(totals.ReserveBalance).Float64()
		s.metrics.SetTotals(collateral, borrows, reserve)
	}
	borrowRate, err := s.engine.BorrowRateBps()
	if err != nil {
		return
	}
	supplyRate, err := s.engine.SupplyRateBps()
	if err != nil {
		return
	}
	s.metrics.SetRates(utilization, borrowRate, supplyRate)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "instance": s.instanceID})
}

type amountRequest struct {
	Address string `json:"address"`
	Amount  string `json:"amount"`
}

func (s *server) userOperation(w http.ResponseWriter, r *http.Request, name string, op func(common.Address, *big.Int) error) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	user, err := parseAddress(req.Address)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	started := time.Now()
	err = op(user, amount)
	s.metrics.ObserveOperation(name, err, started)
	if err == nil {
		s.refreshGauges()
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	s.userOperation(w, r, "deposit", s.engine.Deposit)
}

func (s *server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.userOperation(w, r, "withdraw", s.engine.Withdraw)
}

func (s *server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	user, err := parseAddress(req.Address)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	started := time.Now()
	fee, err := s.engine.Borrow(user, amount)
	s.metrics.ObserveOperation("borrow", err, started)
	if err == nil {
		s.refreshGauges()
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "fee": fee.String()})
}

func (s *server) handleRepay(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	user, err := parseAddress(req.Address)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	started := time.Now()
	paid, err := s.engine.Repay(user, amount)
	s.metrics.ObserveOperation("repay", err, started)
	if err == nil {
		s.refreshGauges()
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "repaid": paid.String()})
}

type liquidateRequest struct {
	Liquidator string `json:"liquidator"`
	Borrower   string `json:"borrower"`
	Amount     string `json:"amount"`
}

func (s *server) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	var req liquidateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	liquidator, err := parseAddress(req.Liquidator)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	borrower, err := parseAddress(req.Borrower)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	started := time.Now()
	repaid, seized, err := s.engine.Liquidate(liquidator, borrower, amount)
	s.metrics.ObserveOperation("liquidate", err, started)
	if err == nil {
		s.refreshGauges()
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"repaid": repaid.String(),
		"seized": seized.String(),
	})
}

// handleFlashLoan extends a loan that the receiver must already be able to
// settle: the pull-back of principal plus fee happens before the call returns.
func (s *server) handleFlashLoan(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	receiver, err := parseAddress(req.Address)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	started := time.Now()
	fee, err := s.engine.FlashLoan(receiver, amount, nil)
	s.metrics.ObserveOperation("flashloan", err, started)
	if err == nil {
		s.refreshGauges()
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "fee": fee.String()})
}

func (s *server) handleAccrue(w http.ResponseWriter, _ *http.Request) {
	done := s.begin()
	started := time.Now()
	interest, err := s.engine.AccrueInterest()
	s.metrics.ObserveOperation("accrue", err, started)
	if err == nil {
		s.refreshGauges()
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "interest": interest.String()})
}

type fundRequest struct {
	Address    string `json:"address"`
	Amount     string `json:"amount"`
	Collateral bool   `json:"collateral,omitempty"`
}

// handleFund mints devnet balances on the in-process token ledger.
func (s *server) handleFund(w http.ResponseWriter, r *http.Request) {
	var req fundRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	account, err := parseAddress(req.Address)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	target := s.token
	if req.Collateral {
		target = s.collateralToken
	}
	target.Mint(account, amount)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type priceRequest struct {
	Asset string `json:"asset"`
	Price string `json:"price"`
}

// handlePrice sets a fixed-point oracle quote (7 decimals, 10000000 = 1.0).
func (s *server) handlePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	asset, err := parseAddress(req.Asset)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.oracle.SetPrice(asset, price)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type positionResponse struct {
	Address         string `json:"address"`
	Collateral      string `json:"collateral"`
	Debt            string `json:"debt"`
	AccruedInterest string `json:"accruedInterest"`
	RatioBps        string `json:"ratioBps,omitempty"`
}

func (s *server) handlePosition(w http.ResponseWriter, r *http.Request) {
	addr, err := parseAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	pos, err := s.engine.Position(addr)
	var ratio *big.Int
	var defined bool
	if err == nil && pos != nil {
		ratio, defined, err = s.engine.CollateralRatioBps(addr)
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	if pos == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "position not found"})
		return
	}
	resp := positionResponse{
		Address:         pos.Address.Hex(),
		Collateral:      pos.Collateral.String(),
		Debt:            pos.Debt.String(),
		AccruedInterest: pos.AccruedInterest.String(),
	}
	if defined {
		resp.RatioBps = ratio.String()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type poolResponse struct {
	Asset                string `json:"asset"`
	TotalCollateral      string `json:"totalCollateral"`
	TotalBorrows         string `json:"totalBorrows"`
	ReserveBalance       string `json:"reserveBalance"`
	TotalInterestAccrued string `json:"totalInterestAccrued"`
	UtilizationBps       uint64 `json:"utilizationBps"`
	BorrowRateBps        uint64 `json:"borrowRateBps"`
	SupplyRateBps        uint64 `json:"supplyRateBps"`
}

func (s *server) handlePool(w http.ResponseWriter, _ *http.Request) {
	done := s.begin()
	totals, err := s.engine.Totals()
	var borrowRate, supplyRate uint64
	if err == nil {
		borrowRate, err = s.engine.BorrowRateBps()
	}
	if err == nil {
		supplyRate, err = s.engine.SupplyRateBps()
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, poolResponse{
		Asset:                totals.Asset.Hex(),
		TotalCollateral:      totals.TotalCollateral.String(),
		TotalBorrows:         totals.TotalBorrows.String(),
		ReserveBalance:       totals.ReserveBalance.String(),
		TotalInterestAccrued: totals.TotalInterestAccrued.String(),
		UtilizationBps:       lending.Utilization(totals.TotalBorrows, totals.TotalCollateral),
		BorrowRateBps:        borrowRate,
		SupplyRateBps:        supplyRate,
	})
}

type pauseRequest struct {
	Caller    string `json:"caller"`
	Operation string `json:"operation"`
	Paused    bool   `json:"paused"`
}

func (s *server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	err = s.engine.SetPause(caller, lending.Operation(req.Operation), req.Paused)
	if err == nil {
		err = s.store.SaveRiskConfig(s.engine.RiskParams())
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type emergencyRequest struct {
	Caller string `json:"caller"`
	Paused bool   `json:"paused"`
}

func (s *server) handleEmergency(w http.ResponseWriter, r *http.Request) {
	var req emergencyRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	err = s.engine.SetEmergencyPause(caller, req.Paused)
	if err == nil {
		err = s.store.SaveRiskConfig(s.engine.RiskParams())
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type riskUpdateRequest struct {
	Caller                  string `json:"caller"`
	MinCollateralRatioBps   uint64 `json:"minCollateralRatioBps"`
	LiquidationThresholdBps uint64 `json:"liquidationThresholdBps"`
	CloseFactorBps          uint64 `json:"closeFactorBps"`
	LiquidationIncentiveBps uint64 `json:"liquidationIncentiveBps"`
}

func (s *server) handleRiskUpdate(w http.ResponseWriter, r *http.Request) {
	var req riskUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	next := s.engine.RiskParams()
	next.MinCollateralRatioBps = req.MinCollateralRatioBps
	next.LiquidationThresholdBps = req.LiquidationThresholdBps
	next.CloseFactorBps = req.CloseFactorBps
	next.LiquidationIncentiveBps = req.LiquidationIncentiveBps
	err = s.engine.UpdateRiskConfig(caller, next)
	if err == nil {
		err = s.store.SaveRiskConfig(s.engine.RiskParams())
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type rateUpdateRequest struct {
	Caller                 string `json:"caller"`
	BaseRateBps            uint64 `json:"baseRateBps"`
	KinkUtilizationBps     uint64 `json:"kinkUtilizationBps"`
	MultiplierBps          uint64 `json:"multiplierBps"`
	JumpMultiplierBps      uint64 `json:"jumpMultiplierBps"`
	RateFloorBps           uint64 `json:"rateFloorBps"`
	RateCeilingBps         uint64 `json:"rateCeilingBps"`
	SpreadBps              uint64 `json:"spreadBps"`
	EmergencyAdjustmentBps int64  `json:"emergencyAdjustmentBps"`
}

func (s *server) handleRateUpdate(w http.ResponseWriter, r *http.Request) {
	var req rateUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	err = s.engine.UpdateInterestRateConfig(caller, lending.InterestRateConfig{
		BaseRateBps:            req.BaseRateBps,
		KinkUtilizationBps:     req.KinkUtilizationBps,
		MultiplierBps:          req.MultiplierBps,
		JumpMultiplierBps:      req.JumpMultiplierBps,
		RateFloorBps:           req.RateFloorBps,
		RateCeilingBps:         req.RateCeilingBps,
		SpreadBps:              req.SpreadBps,
		EmergencyAdjustmentBps: req.EmergencyAdjustmentBps,
	})
	if err == nil {
		err = s.store.SaveRateConfig(s.engine.RateParams())
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type reserveUpdateRequest struct {
	Caller            string `json:"caller"`
	ReserveFactorBps  uint64 `json:"reserveFactorBps"`
	OriginationFeeBps uint64 `json:"originationFeeBps"`
	FlashLoanFeeBps   uint64 `json:"flashLoanFeeBps"`
	Treasury          string `json:"treasury,omitempty"`
}

func (s *server) handleReserveUpdate(w http.ResponseWriter, r *http.Request) {
	var req reserveUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	next := lending.ReserveConfig{
		ReserveFactorBps:  req.ReserveFactorBps,
		OriginationFeeBps: req.OriginationFeeBps,
		FlashLoanFeeBps:   req.FlashLoanFeeBps,
	}
	if req.Treasury != "" {
		treasury, err := parseAddress(req.Treasury)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		next.Treasury = treasury
	}

	done := s.begin()
	err = s.engine.UpdateReserveConfig(caller, next)
	if err == nil {
		err = s.store.SaveReserveConfig(s.engine.Asset(), s.engine.ReserveParams())
	}
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleTreasuryWithdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	caller, err := parseAddress(req.Address)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	done := s.begin()
	started := time.Now()
	moved, err := s.engine.WithdrawToTreasury(caller, amount)
	s.metrics.ObserveOperation("treasury_withdraw", err, started)
	done()

	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "amount": moved.String()})
}
