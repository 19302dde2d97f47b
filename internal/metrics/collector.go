package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 Metrics collector
// =============================================================================

// Collector gathers semcache's prometheus metrics. A nil *Collector is safe
// to call; every method no-ops, so wiring metrics stays optional.
type Collector struct {
	lookupsTotal     *prometheus.CounterVec
	lookupDuration   *prometheus.HistogramVec
	storesTotal      *prometheus.CounterVec
	storeErrors      *prometheus.CounterVec
	embeddingErrors  prometheus.Counter
	throttledTotal   prometheus.Counter
	tokensSavedTotal prometheus.Counter
	entryCount       prometheus.Gauge

	logger *zap.Logger
}

// NewCollector creates and registers the collector on the given registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.lookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Cache lookups by result (exact, semantic, miss)",
		},
		[]string{"result", "endpoint"},
	)

	c.lookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Cache lookup duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	c.storesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stores_total",
			Help:      "Cache store attempts by outcome (ok, failed)",
		},
		[]string{"outcome"},
	)

	c.storeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Backing store errors by operation",
		},
		[]string{"op"},
	)

	c.embeddingErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_errors_total",
			Help:      "Embedding provider failures (timeouts included)",
		},
	)

	c.throttledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "throttled_candidates_total",
			Help:      "Semantic candidates skipped because a conversation reached its usage cap",
		},
	)

	c.tokensSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_saved_total",
			Help:      "Estimated upstream tokens saved by cache hits",
		},
	)

	c.entryCount = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries",
			Help:      "Cache entries currently stored (refreshed on stats calls)",
		},
	)

	reg.MustRegister(
		c.lookupsTotal,
		c.lookupDuration,
		c.storesTotal,
		c.storeErrors,
		c.embeddingErrors,
		c.throttledTotal,
		c.tokensSavedTotal,
		c.entryCount,
	)

	return c
}

// ObserveLookup records one lookup outcome and its latency.
func (c *Collector) ObserveLookup(result, endpoint string, dur time.Duration) {
	if c == nil {
		return
	}
	c.lookupsTotal.WithLabelValues(result, endpoint).Inc()
	c.lookupDuration.WithLabelValues(result).Observe(dur.Seconds())
}

// ObserveStore records one store attempt.
func (c *Collector) ObserveStore(ok bool) {
	if c == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	c.storesTotal.WithLabelValues(outcome).Inc()
}

// IncStoreError records a backing-store error for the given operation.
func (c *Collector) IncStoreError(op string) {
	if c == nil {
		return
	}
	c.storeErrors.WithLabelValues(op).Inc()
}

// IncEmbeddingError records an embedding provider failure.
func (c *Collector) IncEmbeddingError() {
	if c == nil {
		return
	}
	c.embeddingErrors.Inc()
}

// IncThrottled records a candidate skipped by the usage cap.
func (c *Collector) IncThrottled() {
	if c == nil {
		return
	}
	c.throttledTotal.Inc()
}

// AddTokensSaved accumulates the tokens-saved estimate.
func (c *Collector) AddTokensSaved(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.tokensSavedTotal.Add(float64(n))
}

// SetEntryCount publishes the current entry count.
func (c *Collector) SetEntryCount(n int64) {
	if c == nil {
		return
	}
	c.entryCount.Set(float64(n))
}
