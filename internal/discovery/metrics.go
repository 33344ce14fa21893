package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pairscout"

// Metrics agrupa las métricas Prometheus del pipeline de descubrimiento.
type Metrics struct {
	PassesTotal       *prometheus.CounterVec
	PassDuration      *prometheus.HistogramVec
	PassResults       *prometheus.HistogramVec
	CandidatesFetched *prometheus.CounterVec
	MalformedRecords  *prometheus.CounterVec
	StrategyFailures  *prometheus.CounterVec
	FetchRetries      *prometheus.CounterVec
	LateStrategies    prometheus.Counter

	NewPairs           prometheus.Counter
	NotifyFailures     prometheus.Counter
	RegistrySize       prometheus.Gauge
	RegistryExpired    prometheus.Counter
	RegistryCorruption prometheus.Counter

	HistoryDropped  prometheus.Counter
	HistoryFailures prometheus.Counter
}

// NewMetrics registra las métricas en reg. Con reg nil usa un registry propio,
// útil en tests para no colisionar con el registry global.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		PassesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "passes_total",
			Help:      "Discovery passes run, by criteria profile",
		}, []string{"profile"}),
		PassDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "pass_duration_seconds",
			Help:      "Wall-clock duration of a discovery pass",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"profile"}),
		PassResults: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "pass_results",
			Help:      "Ranked candidates returned per pass",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}, []string{"profile"}),
		CandidatesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "candidates_fetched_total",
			Help:      "Normalized candidates produced, by strategy",
		}, []string{"strategy"}),
		MalformedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "malformed_records_total",
			Help:      "Provider records dropped by the normalizer, by strategy",
		}, []string{"strategy"}),
		StrategyFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "strategy_query_failures_total",
			Help:      "Queries that yielded no data after retries, by strategy",
		}, []string{"strategy"}),
		FetchRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "fetch_retries_total",
			Help:      "Retries after transient fetch errors, by strategy",
		}, []string{"strategy"}),
		LateStrategies: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "discovery",
			Name:      "late_strategies_total",
			Help:      "Strategies whose results missed the pass deadline",
		}),
		NewPairs: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "poller",
			Name:      "new_pairs_total",
			Help:      "Pairs that transitioned from unseen to tracked",
		}),
		NotifyFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "poller",
			Name:      "notify_failures_total",
			Help:      "Notification callbacks that failed or panicked",
		}),
		RegistrySize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "registry",
			Name:      "tracked_pairs",
			Help:      "Pairs currently tracked by the freshness registry",
		}),
		RegistryExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "registry",
			Name:      "expired_total",
			Help:      "Records removed by the retention sweep",
		}),
		RegistryCorruption: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "registry",
			Name:      "corruption_total",
			Help:      "Corrupted registry entries dropped and recreated",
		}),
		HistoryDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "history",
			Name:      "dropped_batches_total",
			Help:      "History batches dropped because the writer queue was full",
		}),
		HistoryFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "history",
			Name:      "write_failures_total",
			Help:      "History batches the sink failed to persist",
		}),
	}
}
