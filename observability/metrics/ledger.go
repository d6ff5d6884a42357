package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics instruments the ledger entry points and the headline state
// gauges scraped by the operations dashboards.
type LedgerMetrics struct {
	opsTotal     *prometheus.CounterVec
	opErrors     *prometheus.CounterVec
	totalStaked  prometheus.Gauge
	rewardPool   prometheus.Gauge
	totalSupply  prometheus.Gauge
	activeAssets prometheus.Gauge
	listings     prometheus.Gauge
	wsClients    prometheus.Gauge
}

var (
	ledgerOnce     sync.Once
	ledgerRegistry *LedgerMetrics
)

// Ledger returns the process-wide ledger metrics, registering them on first
// use.
func Ledger() *LedgerMetrics {
	ledgerOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vidchain_ops_total",
				Help: "Count of ledger operations by method.",
			}, []string{"method"}),
			opErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vidchain_op_errors_total",
				Help: "Count of failed ledger operations by method.",
			}, []string{"method"}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vidchain_total_staked",
				Help: "Whole tokens currently locked in stake positions.",
			}),
			rewardPool: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vidchain_reward_pool",
				Help: "Whole tokens remaining in the reward pool.",
			}),
			totalSupply: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vidchain_total_supply",
				Help: "Whole tokens outstanding.",
			}),
			activeAssets: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vidchain_active_assets",
				Help: "Number of live asset records.",
			}),
			listings: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vidchain_market_listings",
				Help: "Number of active marketplace listings.",
			}),
			wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vidchain_ws_clients",
				Help: "Connected websocket event subscribers.",
			}),
		}
		prometheus.MustRegister(
			ledgerRegistry.opsTotal,
			ledgerRegistry.opErrors,
			ledgerRegistry.totalStaked,
			ledgerRegistry.rewardPool,
			ledgerRegistry.totalSupply,
			ledgerRegistry.activeAssets,
			ledgerRegistry.listings,
			ledgerRegistry.wsClients,
		)
	})
	return ledgerRegistry
}

// ObserveOp counts one operation and, when failed is set, one error.
func (m *LedgerMetrics) ObserveOp(method string, failed bool) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.opsTotal.WithLabelValues(method).Inc()
	if failed {
		m.opErrors.WithLabelValues(method).Inc()
	}
}

// SetTotalStaked records the staked principal in whole tokens.
func (m *LedgerMetrics) SetTotalStaked(v float64) {
	if m == nil {
		return
	}
	m.totalStaked.Set(v)
}

// SetRewardPool records the reward pool balance in whole tokens.
func (m *LedgerMetrics) SetRewardPool(v float64) {
	if m == nil {
		return
	}
	m.rewardPool.Set(v)
}

// SetTotalSupply records the outstanding supply in whole tokens.
func (m *LedgerMetrics) SetTotalSupply(v float64) {
	if m == nil {
		return
	}
	m.totalSupply.Set(v)
}

// SetActiveAssets records the live asset record count.
func (m *LedgerMetrics) SetActiveAssets(v float64) {
	if m == nil {
		return
	}
	m.activeAssets.Set(v)
}

// SetListings records the active listing count.
func (m *LedgerMetrics) SetListings(v float64) {
	if m == nil {
		return
	}
	m.listings.Set(v)
}

// WSClientConnected adjusts the connected subscriber gauge.
func (m *LedgerMetrics) WSClientConnected(delta float64) {
	if m == nil {
		return
	}
	m.wsClients.Add(delta)
}
