package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics tracks the lending ledger's operation mix and pool health.
type LendingMetrics struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec

	utilizationBps prometheus.Gauge
	borrowRateBps  prometheus.Gauge
	supplyRateBps  prometheus.Gauge

	totalCollateral prometheus.Gauge
	totalBorrows    prometheus.Gauge
	reserveBalance  prometheus.Gauge
}

var (
	lendingMetricsOnce sync.Once
	lendingRegistry    *LendingMetrics
)

// Lending returns the process-wide lending metrics registry.
func Lending() *LendingMetrics {
	lendingMetricsOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stellarlend",
				Subsystem: "lending",
				Name:      "operations_total",
				Help:      "Count of ledger operations segmented by type and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stellarlend",
				Subsystem: "lending",
				Name:      "operation_seconds",
				Help:      "Latency of ledger operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			utilizationBps: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stellarlend",
				Subsystem: "lending",
				Name:      "utilization_bps",
				Help:      "Current pool utilisation in basis points.",
			}),
			borrowRateBps: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stellarlend",
				Subsystem: "lending",
				Name:      "borrow_rate_bps",
				Help:      "Current borrow rate in basis points.",
			}),
			supplyRateBps: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stellarlend",
				Subsystem: "lending",
				Name:      "supply_rate_bps",
				Help:      "Current supply rate in basis points.",
			}),
			totalCollateral: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stellarlend",
				Subsystem: "lending",
				Name:      "total_collateral_units",
				Help:      "Aggregate collateral held by the pool.",
			}),
			totalBorrows: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stellarlend",
				Subsystem: "lending",
				Name:      "total_borrows_units",
				Help:      "Aggregate outstanding borrows including accrued interest.",
			}),
			reserveBalance: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "stellarlend",
				Subsystem: "lending",
				Name:      "reserve_balance_units",
				Help:      "Protocol reserve accumulated from realised interest.",
			}),
		}
		prometheus.MustRegister(
			lendingRegistry.operations,
			lendingRegistry.latency,
			lendingRegistry.utilizationBps,
			lendingRegistry.borrowRateBps,
			lendingRegistry.supplyRateBps,
			lendingRegistry.totalCollateral,
			lendingRegistry.totalBorrows,
			lendingRegistry.reserveBalance,
		)
	})
	return lendingRegistry
}

// ObserveOperation records one ledger call with its outcome and duration.
func (m *LendingMetrics) ObserveOperation(operation string, err error, started time.Time) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// SetRates updates the pool rate gauges.
func (m *LendingMetrics) SetRates(utilizationBps, borrowRateBps, supplyRateBps uint64) {
	if m == nil {
		return
	}
	m.utilizationBps.Set(float64(utilizationBps))
	m.borrowRateBps.Set(float64(borrowRateBps))
	m.supplyRateBps.Set(float64(supplyRateBps))
}

// SetTotals updates the aggregate ledger gauges.
func (m *LendingMetrics) SetTotals(totalCollateral, totalBorrows, reserveBalance float64) {
	if m == nil {
		return
	}
	m.totalCollateral.Set(totalCollateral)
	m.totalBorrows.Set(totalBorrows)
	m.reserveBalance.Set(reserveBalance)
}
