package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderSyncMetrics_Recording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderSyncMetrics(reg)

	m.RecordPass(250 * time.Millisecond)
	m.RecordPass(time.Second)
	m.RecordResolved()
	m.RecordPending()
	m.RecordPending()
	m.RecordUnmatched()
	m.RecordError(StageReceipt)
	m.RecordError(StageReceipt)
	m.RecordError(StageUpdate)
	m.SetBacklog(7, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PassesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersResolvedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReceiptsPendingTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsUnmatchedTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(StageReceipt)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues(StageUpdate)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.UnresolvedOrders))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleUnresolvedOrders))
}

func TestOrderSyncMetrics_Registration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderSyncMetrics(reg)
	m.RecordError(StageQuery)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	for _, name := range []string{
		"whitelabel_order_sync_passes_total",
		"whitelabel_order_sync_orders_resolved_total",
		"whitelabel_order_sync_receipts_pending_total",
		"whitelabel_order_sync_events_unmatched_total",
		"whitelabel_order_sync_errors_total",
		"whitelabel_order_sync_pass_duration_seconds",
		"whitelabel_order_sync_unresolved_orders",
		"whitelabel_order_sync_stale_unresolved_orders",
	} {
		assert.True(t, names[name], "missing metric %s", name)
	}

	assert.Panics(t, func() { NewOrderSyncMetrics(reg) }, "duplicate registration should panic")
}

func TestOrderSyncMetrics_NilRegisterer(t *testing.T) {
	m := NewOrderSyncMetrics(nil)
	m.RecordResolved()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersResolvedTotal))
}
