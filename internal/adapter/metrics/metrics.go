package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PipelineMetrics holds all Prometheus metrics for the pipeline.
type PipelineMetrics struct {
	LinesTotal        *prometheus.CounterVec
	BytesTotal        prometheus.Counter
	SinkedEventsTotal prometheus.Counter
	SinkBatchSeconds  prometheus.Histogram
	WALActive         prometheus.Gauge
	APIKeyCacheHits   prometheus.Counter
	APIKeyCacheMisses prometheus.Counter
	StatsCacheHits    prometheus.Counter
	StatsCacheMisses  prometheus.Counter
}

// NewPipelineMetrics initializes and registers the Prometheus metrics.
func NewPipelineMetrics() *PipelineMetrics {
	return &PipelineMetrics{
		LinesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logsift",
			Subsystem: "ingest",
			Name:      "lines_total",
			Help:      "Total number of ingested log lines by result.",
		}, []string{"result"}), // result: parsed, malformed, error_buffer
		BytesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "logsift",
			Subsystem: "ingest",
			Name:      "bytes_total",
			Help:      "Total number of raw log bytes ingested.",
		}),
		SinkedEventsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "logsift",
			Subsystem: "consumer",
			Name:      "sinked_events_total",
			Help:      "Total number of events written to the structured sink.",
		}),
		SinkBatchSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "logsift",
			Subsystem: "consumer",
			Name:      "sink_batch_seconds",
			Help:      "Time taken to write one batch to the sink.",
			Buckets:   prometheus.DefBuckets,
		}),
		WALActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "logsift",
			Subsystem: "ingest",
			Name:      "wal_active_gauge",
			Help:      "Indicates if the write-ahead failover log is currently active (1 for active, 0 for inactive).",
		}),
		APIKeyCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "logsift",
			Subsystem: "auth",
			Name:      "api_key_cache_hits_total",
			Help:      "Total number of API key cache hits.",
		}),
		APIKeyCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "logsift",
			Subsystem: "auth",
			Name:      "api_key_cache_misses_total",
			Help:      "Total number of API key cache misses.",
		}),
		StatsCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "logsift",
			Subsystem: "stats",
			Name:      "cache_hits_total",
			Help:      "Total number of stats cache hits.",
		}),
		StatsCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "logsift",
			Subsystem: "stats",
			Name:      "cache_misses_total",
			Help:      "Total number of stats cache misses.",
		}),
	}
}
