// Package metrics provides Prometheus metrics for the betting daemon.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/phenomenon0/betpool/pkg/eth"
)

// DappMetrics collects contract, pagination and streaming metrics.
type DappMetrics struct {
	registry *prometheus.Registry

	// Gateway metrics
	GatewayCalls    *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	Transactions    *prometheus.CounterVec
	TxValue         *prometheus.CounterVec

	// Pagination metrics
	PageFetches   *prometheus.CounterVec
	StaleDiscards *prometheus.CounterVec
	ListItems     *prometheus.GaugeVec

	// Streaming metrics
	WSClients prometheus.Gauge
}

// NewDappMetrics creates a collector on a private registry.
func NewDappMetrics() *DappMetrics {
	m := &DappMetrics{
		registry: prometheus.NewRegistry(),

		GatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betpool_gateway_calls_total",
				Help: "Contract calls by method, kind and outcome",
			},
			[]string{"method", "kind", "outcome"},
		),
		GatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "betpool_gateway_call_duration_seconds",
				Help:    "Contract call latency, including receipt wait for writes",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
			},
			[]string{"method", "kind"},
		),
		Transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betpool_transactions_total",
				Help: "Transactions by method and final status",
			},
			[]string{"method", "status"},
		),
		TxValue: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betpool_transaction_value_ether",
				Help: "Ether attached to confirmed payable transactions",
			},
			[]string{"method"},
		),

		PageFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betpool_page_fetches_total",
				Help: "Page loads by list and outcome",
			},
			[]string{"list", "outcome"},
		),
		StaleDiscards: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "betpool_stale_discards_total",
				Help: "Page results discarded after a newer load or filter change",
			},
			[]string{"list"},
		),
		ListItems: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "betpool_list_items",
				Help: "Items currently accumulated per list",
			},
			[]string{"list"},
		),

		WSClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "betpool_ws_clients",
				Help: "Connected WebSocket clients",
			},
		),
	}

	m.registry.MustRegister(
		m.GatewayCalls,
		m.GatewayDuration,
		m.Transactions,
		m.TxValue,
		m.PageFetches,
		m.StaleDiscards,
		m.ListItems,
		m.WSClients,
	)
	return m
}

// Registry returns the prometheus registry.
func (m *DappMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// --- Gateway ---

// RecordCall records one contract call.
func (m *DappMetrics) RecordCall(method, kind, outcome string, d time.Duration) {
	m.GatewayCalls.WithLabelValues(method, kind, outcome).Inc()
	m.GatewayDuration.WithLabelValues(method, kind).Observe(d.Seconds())
}

// RecordTransaction records a transaction's final status.
func (m *DappMetrics) RecordTransaction(method, status string) {
	m.Transactions.WithLabelValues(method, status).Inc()
}

// RecordValue records ether attached to a confirmed transaction.
func (m *DappMetrics) RecordValue(method string, amount eth.Amount) {
	if amount.IsZero() {
		return
	}
	m.TxValue.WithLabelValues(method).Add(DecimalToFloat64(amount.Ether()))
}

// --- Pagination ---

// PageFetched records a page load outcome.
func (m *DappMetrics) PageFetched(list, outcome string) {
	m.PageFetches.WithLabelValues(list, outcome).Inc()
}

// StaleDiscarded records a discarded page result.
func (m *DappMetrics) StaleDiscarded(list string) {
	m.StaleDiscards.WithLabelValues(list).Inc()
}

// ListSize sets the accumulated item count of a list.
func (m *DappMetrics) ListSize(list string, n int) {
	m.ListItems.WithLabelValues(list).Set(float64(n))
}

// --- Streaming ---

// SetWSClients sets the connected client count.
func (m *DappMetrics) SetWSClients(n int) {
	m.WSClients.Set(float64(n))
}

// DecimalToFloat64 converts for metrics; precision loss is acceptable here.
func DecimalToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

var (
	defaultMetrics *DappMetrics
	once           sync.Once
)

// Default returns the process-wide metrics instance.
func Default() *DappMetrics {
	once.Do(func() {
		defaultMetrics = NewDappMetrics()
	})
	return defaultMetrics
}
