// Package metrics declares the process-wide Prometheus collectors,
// registered with the default registry through promauto. No package in
// this module serves them over HTTP, and only IngestRecordsTotal is
// updated (by internal/ingest). Grounded on
// go/network/metrics.go's promauto.NewCounterVec/NewGaugeVec style.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ComponentHealth is 1 when a doctor component check is ok, 0 otherwise.
	ComponentHealth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autocapture_component_health",
		Help: "1 if the named component's doctor check is ok, 0 otherwise",
	}, []string{"component"})

	// DiskFreeBytes tracks free bytes on each watched storage root.
	DiskFreeBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autocapture_disk_free_bytes",
		Help: "free bytes on a storage root as last observed by the retention evaluator",
	}, []string{"root"})

	// DiskPressureLevel encodes retention.Severity as a gauge (0..3) per root.
	DiskPressureLevel = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "autocapture_disk_pressure_level",
		Help: "disk pressure severity (0=ok,1=warn,2=soft,3=critical) per storage root",
	}, []string{"root"})

	// SpoolPending tracks the overflow spool's pending item count.
	SpoolPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "autocapture_spool_pending_items",
		Help: "number of items currently waiting in the overflow spool",
	})

	// SpoolDrainedTotal counts items drained from the overflow spool.
	SpoolDrainedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autocapture_spool_drained_total",
		Help: "total number of overflow spool items successfully drained",
	})

	// LedgerAppendTotal counts ledger entries appended, by stage.
	LedgerAppendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autocapture_ledger_append_total",
		Help: "total ledger entries appended, labeled by stage",
	}, []string{"stage"})

	// LedgerVerifyFailuresTotal counts failed ledger/anchor verifications.
	LedgerVerifyFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autocapture_ledger_verify_failures_total",
		Help: "total ledger/anchor verification failures, labeled by reason",
	}, []string{"reason"})

	// PluginLoadFailuresTotal counts factory load failures by plugin id.
	PluginLoadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autocapture_plugin_load_failures_total",
		Help: "total plugin extension factory load failures, labeled by plugin_id",
	}, []string{"plugin_id"})

	// GateStepResultTotal counts gate runner step outcomes.
	GateStepResultTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autocapture_gate_step_result_total",
		Help: "total gate runner step outcomes, labeled by step and result",
	}, []string{"step", "result"})

	// QueryLatencySeconds observes end-to-end query handling latency.
	QueryLatencySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autocapture_query_latency_seconds",
		Help:    "end-to-end query handling latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// IngestRecordsTotal counts ingested records by record_type.
	IngestRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autocapture_ingest_records_total",
		Help: "total records ingested, labeled by record_type",
	}, []string{"record_type"})
)

// SeverityGauge maps a retention.Level name to the numeric scale used
// by DiskPressureLevel.
func SeverityGauge(level string) float64 {
	switch level {
	case "critical":
		return 3
	case "soft":
		return 2
	case "warn":
		return 1
	default:
		return 0
	}
}
