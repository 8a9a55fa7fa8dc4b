package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/pinledger/pkg/metrics"
	"github.com/marmos91/pinledger/pkg/pinning"
	"github.com/marmos91/pinledger/pkg/reconcile"
	"github.com/marmos91/pinledger/pkg/records"
)

func TestNewReconcileMetrics_Disabled(t *testing.T) {
	metrics.Reset()
	assert.Nil(t, NewReconcileMetrics())
	assert.Nil(t, metrics.NewReconcileMetrics())
}

func TestNewReconcileMetrics_Enabled(t *testing.T) {
	metrics.Reset()
	t.Cleanup(metrics.Reset)
	metrics.InitRegistry()

	m := metrics.NewReconcileMetrics()
	require.NotNil(t, m, "constructor is registered by init")
	m.ObserveCheck(pinning.StatusPinned, time.Millisecond)

	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["pinledger_reconcile_checks_total"])
}

func TestReconcileMetrics(t *testing.T) {
	m := newReconcileMetrics(prometheus.NewRegistry())

	m.ObserveCheck(pinning.StatusPinned, 10*time.Millisecond)
	m.ObserveCheck(pinning.StatusNotPinned, 20*time.Millisecond)
	m.ObserveCheck(pinning.StatusNotPinned, 20*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checksTotal.WithLabelValues("pinned")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.checksTotal.WithLabelValues("not-pinned")))

	m.RecordOutcome(reconcile.OutcomeDeleted, reconcile.ReasonNotPinned)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomesTotal.WithLabelValues("deleted", "not-pinned")))

	m.ObserveDelete(nil, time.Millisecond)
	m.ObserveDelete(records.ErrMetadataNotFound, time.Millisecond)
	m.ObserveDelete(errors.New("boom"), time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletesTotal.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deletesTotal.WithLabelValues("error")))

	m.SetPacerRate(2.1)
	assert.Equal(t, 2.1, testutil.ToFloat64(m.pacerRate))
}

func TestReconcileMetrics_ObserveRun(t *testing.T) {
	m := newReconcileMetrics(prometheus.NewRegistry())
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	m.ObserveRun(&reconcile.Report{
		Total: 3, Checked: 3, Present: 2, Orphaned: 1, Deleted: 1,
		StartedAt: started, Duration: 2 * time.Second,
	}, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lastRunSuccess))
	assert.Equal(t, float64(started.Unix()), testutil.ToFloat64(m.lastRunTimestamp))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.lastRunDuration))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.lastRunRecords.WithLabelValues("checked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lastRunRecords.WithLabelValues("deleted")))

	m.ObserveRun(&reconcile.Report{StartedAt: started}, reconcile.ErrListFailed)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.lastRunSuccess))
}
