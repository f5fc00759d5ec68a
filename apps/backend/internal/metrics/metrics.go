package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "whitelabel"
	subsystem = "order_sync"
)

// Error stages reported by the reconciler.
const (
	StageQuery   = "query"
	StageReceipt = "receipt"
	StageUpdate  = "update"
	StagePublish = "publish"
	StageStats   = "stats"
)

// OrderSyncMetrics holds the metrics exported by the order-id reconciler.
type OrderSyncMetrics struct {
	PassesTotal           prometheus.Counter
	OrdersResolvedTotal   prometheus.Counter
	ReceiptsPendingTotal  prometheus.Counter
	EventsUnmatchedTotal  prometheus.Counter
	ErrorsTotal           *prometheus.CounterVec
	PassDuration          prometheus.Histogram
	UnresolvedOrders      prometheus.Gauge
	StaleUnresolvedOrders prometheus.Gauge
}

// NewOrderSyncMetrics registers the reconciler metrics on reg. A nil reg
// creates unregistered collectors.
func NewOrderSyncMetrics(reg prometheus.Registerer) *OrderSyncMetrics {
	factory := promauto.With(reg)

	return &OrderSyncMetrics{
		PassesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "passes_total",
			Help:      "Total number of reconciliation passes",
		}),
		OrdersResolvedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orders_resolved_total",
			Help:      "Total number of orders whose blockchain order id was backfilled",
		}),
		ReceiptsPendingTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "receipts_pending_total",
			Help:      "Total number of receipt lookups that found no mined transaction",
		}),
		EventsUnmatchedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "events_unmatched_total",
			Help:      "Total number of receipts without an order created event",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "errors_total",
			Help:      "Total number of reconciliation errors by stage",
		}, []string{"stage"}),
		PassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pass_duration_seconds",
			Help:      "Duration of reconciliation passes in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}),
		UnresolvedOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "unresolved_orders",
			Help:      "Active orders with a transaction hash and no blockchain order id",
		}),
		StaleUnresolvedOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stale_unresolved_orders",
			Help:      "Unresolved orders older than the stale threshold",
		}),
	}
}

// RecordPass records one finished pass.
func (m *OrderSyncMetrics) RecordPass(duration time.Duration) {
	m.PassesTotal.Inc()
	m.PassDuration.Observe(duration.Seconds())
}

func (m *OrderSyncMetrics) RecordResolved() {
	m.OrdersResolvedTotal.Inc()
}

func (m *OrderSyncMetrics) RecordPending() {
	m.ReceiptsPendingTotal.Inc()
}

func (m *OrderSyncMetrics) RecordUnmatched() {
	m.EventsUnmatchedTotal.Inc()
}

func (m *OrderSyncMetrics) RecordError(stage string) {
	m.ErrorsTotal.WithLabelValues(stage).Inc()
}

// SetBacklog updates the unresolved and stale gauges.
func (m *OrderSyncMetrics) SetBacklog(unresolved, stale int64) {
	m.UnresolvedOrders.Set(float64(unresolved))
	m.StaleUnresolvedOrders.Set(float64(stale))
}
