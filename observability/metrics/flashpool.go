package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type FlashpoolMetrics struct {
	loansOpened     *prometheus.CounterVec
	loansRepaid     prometheus.Counter
	loansForceClear prometheus.Counter
	feesCollected   prometheus.Counter
	liquidityUnits  prometheus.Gauge
	activeLoans     prometheus.Gauge
	operationErrors *prometheus.CounterVec
}

var (
	flashpoolOnce     sync.Once
	flashpoolRegistry *FlashpoolMetrics
)

func Flashpool() *FlashpoolMetrics {
	flashpoolOnce.Do(func() {
		flashpoolRegistry = &FlashpoolMetrics{
			loansOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "flashpool_loans_opened_total",
				Help: "Count of flash loans issued, split by funding source.",
			}, []string{"source"}),
			loansRepaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "flashpool_loans_repaid_total",
				Help: "Count of flash loans settled by their borrower.",
			}),
			loansForceClear: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "flashpool_loans_force_cleared_total",
				Help: "Count of stuck loans cleared by the owner without repayment.",
			}),
			feesCollected: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "flashpool_fees_collected_units",
				Help: "Cumulative fee units credited to pool liquidity.",
			}),
			liquidityUnits: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "flashpool_liquidity_units",
				Help: "Current pool liquidity in base units.",
			}),
			activeLoans: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "flashpool_active_loans",
				Help: "Number of currently open loans.",
			}),
			operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "flashpool_operation_errors_total",
				Help: "Count of rejected pool operations by method.",
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			flashpoolRegistry.loansOpened,
			flashpoolRegistry.loansRepaid,
			flashpoolRegistry.loansForceClear,
			flashpoolRegistry.feesCollected,
			flashpoolRegistry.liquidityUnits,
			flashpoolRegistry.activeLoans,
			flashpoolRegistry.operationErrors,
		)
	})
	return flashpoolRegistry
}

func (m *FlashpoolMetrics) ObserveLoanOpened(minted bool) {
	if m == nil {
		return
	}
	source := "pool"
	if minted {
		source = "mint"
	}
	m.loansOpened.WithLabelValues(source).Inc()
}

func (m *FlashpoolMetrics) ObserveLoanRepaid(fee *big.Int) {
	if m == nil {
		return
	}
	m.loansRepaid.Inc()
	if fee != nil && fee.Sign() > 0 {
		units, _ := new(big.Float).SetInt(fee).Float64()
		m.feesCollected.Add(units)
	}
}

func (m *FlashpoolMetrics) ObserveForceClear() {
	if m == nil {
		return
	}
	m.loansForceClear.Inc()
}

func (m *FlashpoolMetrics) SetLiquidity(total *big.Int) {
	if m == nil || total == nil {
		return
	}
	units, _ := new(big.Float).SetInt(total).Float64()
	m.liquidityUnits.Set(units)
}

func (m *FlashpoolMetrics) SetActiveLoans(count int) {
	if m == nil {
		return
	}
	m.activeLoans.Set(float64(count))
}

func (m *FlashpoolMetrics) ObserveError(method string) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.operationErrors.WithLabelValues(method).Inc()
}
