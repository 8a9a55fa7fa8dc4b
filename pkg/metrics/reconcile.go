package metrics

import "github.com/marmos91/pinledger/pkg/reconcile"

// NewReconcileMetrics creates Prometheus-backed reconcile metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called) or the
// prometheus implementation is not linked in. The job treats nil as
// "collect nothing".
//
//	metrics.InitRegistry()
//	job := reconcile.New(store, pins, &reconcile.Options{
//		Metrics: metrics.NewReconcileMetrics(),
//	})
func NewReconcileMetrics() reconcile.Metrics {
	if !IsEnabled() || newPrometheusReconcileMetrics == nil {
		return nil
	}
	return newPrometheusReconcileMetrics()
}

// newPrometheusReconcileMetrics is set by pkg/metrics/prometheus, which
// imports this package for the registry.
var newPrometheusReconcileMetrics func() reconcile.Metrics

// RegisterReconcileMetricsConstructor registers the Prometheus
// implementation. Called from pkg/metrics/prometheus during init.
func RegisterReconcileMetricsConstructor(constructor func() reconcile.Metrics) {
	newPrometheusReconcileMetrics = constructor
}
