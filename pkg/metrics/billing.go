package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BillingMetrics records cache behavior and Stripe call outcomes for the
// entitlement path.
type BillingMetrics struct {
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	providerCalls   *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
}

// NewBillingMetrics registers the billing metrics on the provided registerer.
func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	if reg == nil {
		return &BillingMetrics{}
	}
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_cache_hits",
		Help: "Billing cache lookups served without calling the provider.",
	}, []string{"kind"})
	cacheMisses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_cache_misses",
		Help: "Billing cache lookups that fell through to the provider.",
	}, []string{"kind"})
	providerCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_provider_calls",
		Help: "Stripe API calls grouped by operation and outcome.",
	}, []string{"op", "outcome"})
	refreshDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_refresh_duration_seconds",
		Help:    "Duration of full entitlement refreshes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	reg.MustRegister(cacheHits, cacheMisses, providerCalls, refreshDuration)
	return &BillingMetrics{
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		providerCalls:   providerCalls,
		refreshDuration: refreshDuration,
	}
}

// IncCacheHit increments the hit counter for the named cache kind.
func (b *BillingMetrics) IncCacheHit(kind string) {
	if b == nil || b.cacheHits == nil {
		return
	}
	b.cacheHits.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCacheMiss increments the miss counter for the named cache kind.
func (b *BillingMetrics) IncCacheMiss(kind string) {
	if b == nil || b.cacheMisses == nil {
		return
	}
	b.cacheMisses.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncProviderCall records a provider call by operation and outcome.
func (b *BillingMetrics) IncProviderCall(op string, err error) {
	if b == nil || b.providerCalls == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	b.providerCalls.WithLabelValues(normalizeLabel(op), outcome).Inc()
}

// ObserveRefresh records the duration of an entitlement refresh.
func (b *BillingMetrics) ObserveRefresh(source string, duration time.Duration) {
	if b == nil || b.refreshDuration == nil {
		return
	}
	b.refreshDuration.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
