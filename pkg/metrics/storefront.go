package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records counters for order submission and catalog caching.
type StorefrontMetrics struct {
	ordersSubmitted *prometheus.CounterVec
	ordersFailed    *prometheus.CounterVec
	submitDuration  *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	cacheBusts      *prometheus.CounterVec
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	ordersSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_submitted",
		Help: "Orders accepted by the submission service.",
	}, []string{"mode"})
	ordersFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed",
		Help: "Order submissions rejected or failed downstream.",
	}, []string{"reason"})
	submitDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_submit_duration_seconds",
		Help:    "Duration of order submissions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits",
		Help: "Catalog lookups served from the local cache.",
	}, []string{"resource"})
	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_misses",
		Help: "Catalog lookups that fell through to the upstream API.",
	}, []string{"resource"})
	cacheBusts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_busts",
		Help: "Cache invalidations triggered by revalidation webhooks.",
	}, []string{"tag"})
	reg.MustRegister(ordersSubmitted, ordersFailed, submitDuration, cacheHits, cacheMisses, cacheBusts)
	return &StorefrontMetrics{
		ordersSubmitted: ordersSubmitted,
		ordersFailed:    ordersFailed,
		submitDuration:  submitDuration,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheBusts:      cacheBusts,
	}
}

// IncOrderSubmitted increments the accepted order counter for the given mode.
func (m *StorefrontMetrics) IncOrderSubmitted(mode string) {
	if m == nil || m.ordersSubmitted == nil {
		return
	}
	m.ordersSubmitted.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncOrderFailed increments the failed order counter for the given reason.
func (m *StorefrontMetrics) IncOrderFailed(reason string) {
	if m == nil || m.ordersFailed == nil {
		return
	}
	m.ordersFailed.WithLabelValues(normalizeLabel(reason)).Inc()
}

// ObserveSubmitDuration records how long an order submission took.
func (m *StorefrontMetrics) ObserveSubmitDuration(mode string, duration time.Duration) {
	if m == nil || m.submitDuration == nil {
		return
	}
	m.submitDuration.WithLabelValues(normalizeLabel(mode)).Observe(duration.Seconds())
}

// IncCacheHit increments the cache hit counter for the given resource.
func (m *StorefrontMetrics) IncCacheHit(resource string) {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.WithLabelValues(normalizeLabel(resource)).Inc()
}

// IncCacheMiss increments the cache miss counter for the given resource.
func (m *StorefrontMetrics) IncCacheMiss(resource string) {
	if m == nil || m.cacheMisses == nil {
		return
	}
	m.cacheMisses.WithLabelValues(normalizeLabel(resource)).Inc()
}

// IncCacheBust increments the cache bust counter for the given tag.
func (m *StorefrontMetrics) IncCacheBust(tag string) {
	if m == nil || m.cacheBusts == nil {
		return
	}
	m.cacheBusts.WithLabelValues(normalizeLabel(tag)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
