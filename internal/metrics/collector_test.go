package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("semcache", reg, zap.NewNop()), reg
}

func TestCollector_ObserveLookup(t *testing.T) {
	c, _ := newTestCollector(t)

	c.ObserveLookup("exact", "chat", 5*time.Millisecond)
	c.ObserveLookup("exact", "chat", 5*time.Millisecond)
	c.ObserveLookup("miss", "completion", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.lookupsTotal.WithLabelValues("exact", "chat")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.lookupsTotal.WithLabelValues("miss", "completion")))
}

func TestCollector_ObserveStore(t *testing.T) {
	c, _ := newTestCollector(t)

	c.ObserveStore(true)
	c.ObserveStore(true)
	c.ObserveStore(false)

	assert.Equal(t, float64(2), testutil.ToFloat64(c.storesTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.storesTotal.WithLabelValues("failed")))
}

func TestCollector_Counters(t *testing.T) {
	c, _ := newTestCollector(t)

	c.IncEmbeddingError()
	c.IncThrottled()
	c.IncThrottled()
	c.AddTokensSaved(42)
	c.AddTokensSaved(-1) // ignored
	c.IncStoreError("get")
	c.SetEntryCount(7)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.embeddingErrors))
	assert.Equal(t, float64(2), testutil.ToFloat64(c.throttledTotal))
	assert.Equal(t, float64(42), testutil.ToFloat64(c.tokensSavedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.storeErrors.WithLabelValues("get")))
	assert.Equal(t, float64(7), testutil.ToFloat64(c.entryCount))
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	assert.NotPanics(t, func() {
		c.ObserveLookup("exact", "chat", time.Millisecond)
		c.ObserveStore(true)
		c.IncStoreError("set")
		c.IncEmbeddingError()
		c.IncThrottled()
		c.AddTokensSaved(10)
		c.SetEntryCount(1)
	})
}

func TestCollector_RegistersMetrics(t *testing.T) {
	c, reg := newTestCollector(t)
	c.ObserveLookup("semantic", "chat", time.Millisecond)

	families, err := reg.Gather()
	assert.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "semcache_lookups_total")
	assert.Contains(t, joined, "semcache_lookup_duration_seconds")
}
