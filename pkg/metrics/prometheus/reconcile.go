// Package prometheus implements pinledger's metric interfaces with
// client_golang collectors registered on the metrics package registry.
package prometheus

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/pinledger/pkg/metrics"
	"github.com/marmos91/pinledger/pkg/pinning"
	"github.com/marmos91/pinledger/pkg/reconcile"
	"github.com/marmos91/pinledger/pkg/records"
)

func init() {
	metrics.RegisterReconcileMetricsConstructor(NewReconcileMetrics)
}

// reconcileMetrics is the Prometheus implementation of reconcile.Metrics.
type reconcileMetrics struct {
	checksTotal    *prometheus.CounterVec
	checkDuration  prometheus.Histogram
	outcomesTotal  *prometheus.CounterVec
	deletesTotal   *prometheus.CounterVec
	deleteDuration prometheus.Histogram
	pacerRate      prometheus.Gauge

	lastRunTimestamp prometheus.Gauge
	lastRunDuration  prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
	lastRunRecords   *prometheus.GaugeVec
}

// Request latency buckets in seconds, from a fast API answer to a slow
// retry chain.
var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// NewReconcileMetrics creates a new Prometheus-backed reconcile.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewReconcileMetrics() reconcile.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}
	return newReconcileMetrics(metrics.GetRegistry())
}

func newReconcileMetrics(reg prometheus.Registerer) *reconcileMetrics {
	return &reconcileMetrics{
		checksTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinledger_reconcile_checks_total",
				Help: "Existence checks against the pinning service by result",
			},
			[]string{"status"}, // pinned, not-pinned, unknown
		),
		checkDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pinledger_reconcile_check_duration_seconds",
				Help:    "Duration of one existence check including retries",
				Buckets: latencyBuckets,
			},
		),
		outcomesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinledger_reconcile_records_total",
				Help: "Metadata records processed by final outcome",
			},
			[]string{"outcome", "reason"},
		),
		deletesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pinledger_reconcile_deletes_total",
				Help: "Delete attempts on orphaned metadata rows by result",
			},
			[]string{"result"}, // success, not_found, error
		),
		deleteDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pinledger_reconcile_delete_duration_seconds",
				Help:    "Duration of metadata row deletes",
				Buckets: latencyBuckets,
			},
		),
		pacerRate: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "pinledger_reconcile_pacer_rate",
				Help: "Current adaptive pacer rate in checks per second",
			},
		),
		lastRunTimestamp: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "pinledger_reconcile_last_run_timestamp_seconds",
				Help: "Unix time the last run started",
			},
		),
		lastRunDuration: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "pinledger_reconcile_last_run_duration_seconds",
				Help: "Wall time of the last run",
			},
		),
		lastRunSuccess: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "pinledger_reconcile_last_run_success",
				Help: "1 if the last run processed every record, 0 otherwise",
			},
		),
		lastRunRecords: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pinledger_reconcile_last_run_records",
				Help: "Record counts of the last run",
			},
			[]string{"kind"}, // total, checked, present, orphaned, check_failed, unknown, deleted, delete_failed
		),
	}
}

func (m *reconcileMetrics) ObserveCheck(status pinning.PinStatus, duration time.Duration) {
	m.checksTotal.WithLabelValues(string(status)).Inc()
	m.checkDuration.Observe(duration.Seconds())
}

func (m *reconcileMetrics) RecordOutcome(outcome reconcile.Outcome, reason reconcile.Reason) {
	m.outcomesTotal.WithLabelValues(string(outcome), string(reason)).Inc()
}

func (m *reconcileMetrics) ObserveDelete(err error, duration time.Duration) {
	result := "success"
	switch {
	case errors.Is(err, records.ErrMetadataNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	m.deletesTotal.WithLabelValues(result).Inc()
	m.deleteDuration.Observe(duration.Seconds())
}

func (m *reconcileMetrics) SetPacerRate(rps float64) {
	m.pacerRate.Set(rps)
}

func (m *reconcileMetrics) ObserveRun(report *reconcile.Report, err error) {
	m.lastRunTimestamp.Set(float64(report.StartedAt.Unix()))
	m.lastRunDuration.Set(report.Duration.Seconds())
	if err == nil {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}

	for kind, n := range map[string]int{
		"total":         report.Total,
		"checked":       report.Checked,
		"present":       report.Present,
		"orphaned":      report.Orphaned,
		"check_failed":  report.CheckFailed,
		"unknown":       report.Unknown,
		"deleted":       report.Deleted,
		"delete_failed": report.DeleteFailed,
		"already_gone":  report.AlreadyGone,
	} {
		m.lastRunRecords.WithLabelValues(kind).Set(float64(n))
	}
}
