// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Listener metrics
	LogNotifications    *prometheus.CounterVec
	SignaturesScheduled prometheus.Counter
	DelayedSignatures   prometheus.Gauge
	PendingSignatures   prometheus.Gauge
	SignaturesDropped   prometheus.Counter

	// Batcher metrics
	Batches            *prometheus.CounterVec
	BatchSize          prometheus.Histogram
	EnrichmentLatency  prometheus.Histogram
	TransactionsMissed prometheus.Counter
	SwapsArchived      *prometheus.CounterVec

	// Parser / aggregator metrics
	SwapsRecorded prometheus.Counter
	ParseDiscards *prometheus.CounterVec
	TokensTracked prometheus.Gauge

	// Reporter metrics
	MintFetches    *prometheus.CounterVec
	ReportDuration prometheus.Histogram
	ReportsSkipped prometheus.Counter
	ReportsEmitted prometheus.Counter
	SinkErrors     *prometheus.CounterVec

	// Solana client metrics
	RPCCallLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "swap_monitor"
	}

	return &Metrics{
		LogNotifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "log_notifications_total",
			Help:      "Log notifications received, by outcome",
		}, []string{"outcome"}),
		SignaturesScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "signatures_scheduled_total",
			Help:      "Signatures handed to the delay scheduler",
		}),
		DelayedSignatures: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "delayed_signatures",
			Help:      "Signatures waiting for their enqueue delay to elapse",
		}),
		PendingSignatures: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "pending_signatures",
			Help:      "Signatures queued for enrichment",
		}),
		SignaturesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "queue",
			Name:      "signatures_dropped_total",
			Help:      "Signatures lost to failed enrichment batches or shutdown",
		}),

		Batches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batcher",
			Name:      "batches_total",
			Help:      "Enrichment batches by status",
		}, []string{"status"}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batcher",
			Name:      "batch_size",
			Help:      "Signatures per enrichment batch",
			Buckets:   []float64{1, 5, 10, 25, 50, 75, 100},
		}),
		EnrichmentLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batcher",
			Name:      "enrichment_latency_seconds",
			Help:      "Enrichment API call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TransactionsMissed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batcher",
			Name:      "transactions_missed_total",
			Help:      "Signatures the enrichment API returned null for",
		}),
		SwapsArchived: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batcher",
			Name:      "swaps_archived_total",
			Help:      "Swaps written to the swap archive, by status",
		}, []string{"status"}),

		SwapsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "swaps_recorded_total",
			Help:      "Swaps appended to token histories",
		}),
		ParseDiscards: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "parser",
			Name:      "discards_total",
			Help:      "Descriptions discarded by the swap parser, by reason",
		}, []string{"reason"}),
		TokensTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "aggregator",
			Name:      "tokens_tracked",
			Help:      "Distinct tokens with at least one recorded swap",
		}),

		MintFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporter",
			Name:      "mint_fetches_total",
			Help:      "Mint detail lookups by status",
		}, []string{"status"}),
		ReportDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reporter",
			Name:      "report_duration_seconds",
			Help:      "Time to rank, enrich and emit one leaderboard",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2, 5, 10, 20},
		}),
		ReportsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporter",
			Name:      "reports_skipped_total",
			Help:      "Report ticks skipped because the previous report was still running",
		}),
		ReportsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporter",
			Name:      "reports_emitted_total",
			Help:      "Leaderboards emitted",
		}),
		SinkErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporter",
			Name:      "sink_errors_total",
			Help:      "Sink write failures by sink",
		}, []string{"sink"}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordLogNotification counts a log notification by outcome (accepted, no_marker, failed_tx).
func RecordLogNotification(outcome string) {
	DefaultMetrics.LogNotifications.WithLabelValues(outcome).Inc()
}

// RecordSignatureScheduled counts a signature handed to the delay scheduler.
func RecordSignatureScheduled() {
	DefaultMetrics.SignaturesScheduled.Inc()
}

// UpdateDelayedSignatures sets the number of signatures waiting out their delay.
func UpdateDelayedSignatures(n int) {
	DefaultMetrics.DelayedSignatures.Set(float64(n))
}

// UpdatePendingSignatures sets the number of signatures queued for enrichment.
func UpdatePendingSignatures(n int) {
	DefaultMetrics.PendingSignatures.Set(float64(n))
}

// RecordSignaturesDropped counts signatures that will never be enriched.
func RecordSignaturesDropped(n int) {
	DefaultMetrics.SignaturesDropped.Add(float64(n))
}

// RecordBatch records one enrichment batch.
func RecordBatch(status string, size int, seconds float64) {
	DefaultMetrics.Batches.WithLabelValues(status).Inc()
	DefaultMetrics.BatchSize.Observe(float64(size))
	DefaultMetrics.EnrichmentLatency.Observe(seconds)
}

// RecordTransactionsMissed counts null entries in an enrichment response.
func RecordTransactionsMissed(n int) {
	DefaultMetrics.TransactionsMissed.Add(float64(n))
}

// RecordSwapsArchived counts swaps handed to the swap archive (ok, failed).
func RecordSwapsArchived(status string, n int) {
	DefaultMetrics.SwapsArchived.WithLabelValues(status).Add(float64(n))
}

// RecordSwap counts a recorded swap.
func RecordSwap() {
	DefaultMetrics.SwapsRecorded.Inc()
}

// RecordParseDiscard counts a discarded description.
func RecordParseDiscard(reason string) {
	DefaultMetrics.ParseDiscards.WithLabelValues(reason).Inc()
}

// UpdateTokensTracked sets the tracked tokens gauge.
func UpdateTokensTracked(n int) {
	DefaultMetrics.TokensTracked.Set(float64(n))
}

// RecordMintFetch counts a mint lookup (ok, invalid_address, error).
func RecordMintFetch(status string) {
	DefaultMetrics.MintFetches.WithLabelValues(status).Inc()
}

// RecordReport records an emitted report.
func RecordReport(seconds float64) {
	DefaultMetrics.ReportsEmitted.Inc()
	DefaultMetrics.ReportDuration.Observe(seconds)
}

// RecordReportSkipped counts a skipped report tick.
func RecordReportSkipped() {
	DefaultMetrics.ReportsSkipped.Inc()
}

// RecordSinkError counts a sink failure.
func RecordSinkError(sink string) {
	DefaultMetrics.SinkErrors.WithLabelValues(sink).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
