package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutation and persistence outcomes.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	persistFailures prometheus.Counter
	watcherClears   prometheus.Counter
	checkouts       *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart state mutations by action.",
	}, []string{"action"})
	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Snapshot writes or removals that failed.",
	})
	watcherClears := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_watcher_clears_total",
		Help: "Cart clears triggered by the logout watcher.",
	})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(mutations, persistFailures, watcherClears, checkouts)
	return &CartMetrics{
		mutations:       mutations,
		persistFailures: persistFailures,
		watcherClears:   watcherClears,
		checkouts:       checkouts,
	}
}

// IncMutation increments the mutation counter for the named action.
func (c *CartMetrics) IncMutation(action string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncPersistFailure increments the persistence failure counter.
func (c *CartMetrics) IncPersistFailure() {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.Inc()
}

// IncWatcherClear increments the watcher-triggered clear counter.
func (c *CartMetrics) IncWatcherClear() {
	if c == nil || c.watcherClears == nil {
		return
	}
	c.watcherClears.Inc()
}

// IncCheckout increments the checkout counter for the given outcome.
func (c *CartMetrics) IncCheckout(outcome string) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
