// Package stats exposes the agent's own operational metrics on a private
// Prometheus registry.
package stats

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the agent's self-metrics.
type Collector struct {
	registry *prometheus.Registry

	cyclesTotal        prometheus.Counter
	cycleFailuresTotal prometheus.Counter
	scrapeDuration     *prometheus.HistogramVec
	findingsTotal      *prometheus.CounterVec
	lastCycleTimestamp prometheus.Gauge
}

// NewCollector creates and registers the agent metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		cyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qualisentinel_cycles_total",
			Help: "Total number of diagnostic cycles attempted",
		}),
		cycleFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qualisentinel_cycle_failures_total",
			Help: "Total number of cycles aborted because the metrics source was unavailable",
		}),
		scrapeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qualisentinel_scrape_duration_seconds",
			Help:    "Duration of management endpoint fetches",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qualisentinel_findings_total",
			Help: "Total findings emitted, by rule identity",
		}, []string{"rule"}),
		lastCycleTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "qualisentinel_last_cycle_timestamp_seconds",
			Help: "Unix time of the last completed diagnostic cycle",
		}),
	}

	c.registry.MustRegister(
		c.cyclesTotal,
		c.cycleFailuresTotal,
		c.scrapeDuration,
		c.findingsTotal,
		c.lastCycleTimestamp,
	)
	return c
}

// Registry returns the underlying registry, e.g. for OTLP bridging.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the /metrics HTTP handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// CycleStarted counts a new diagnostic cycle.
func (c *Collector) CycleStarted() {
	c.cyclesTotal.Inc()
}

// CycleFailed counts a cycle aborted by an unavailable metrics source.
func (c *Collector) CycleFailed() {
	c.cycleFailuresTotal.Inc()
}

// CycleCompleted records the completion time of a successful cycle.
func (c *Collector) CycleCompleted(at time.Time) {
	c.lastCycleTimestamp.Set(float64(at.Unix()))
}

// ObserveScrape records the duration of one endpoint fetch.
func (c *Collector) ObserveScrape(endpoint string, d time.Duration) {
	c.scrapeDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// CountFinding counts one emitted finding by rule identity.
func (c *Collector) CountFinding(rule string) {
	c.findingsTotal.WithLabelValues(rule).Inc()
}
