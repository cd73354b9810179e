// Package metrics holds the Prometheus instruments for scans and context
// assembly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "symctx"

// Metrics is a registry with the symctx instruments. Each run gets its own
// so tests and repeated scans do not share counts.
type Metrics struct {
	Registry *prometheus.Registry

	unitsParsed      prometheus.Counter
	unitFailures     *prometheus.CounterVec
	symbolsCollected prometheus.Counter
	symbolsDropped   prometheus.Counter
	references       prometheus.Counter
	bundleSize       *prometheus.HistogramVec
	scanDuration     prometheus.Histogram
}

// New registers the instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		unitsParsed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_parsed_total",
			Help:      "Translation units parsed successfully",
		}),
		unitFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_failures_total",
			Help:      "Translation units skipped because parsing failed",
		}, []string{"reason"}),
		symbolsCollected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_collected_total",
			Help:      "Symbols collected across all units before merging",
		}),
		symbolsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_dropped_total",
			Help:      "Symbols dropped at merge because the key was already registered",
		}),
		references: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "references_total",
			Help:      "Type references recorded on collected symbols",
		}),
		bundleSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bundle_size",
			Help:      "Entries per assembled context",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}, []string{"strategy"}),
		scanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall time of a full scan",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}
}

// UnitParsed records a successfully processed unit and its symbols.
func (m *Metrics) UnitParsed(symbols, references int) {
	m.unitsParsed.Inc()
	m.symbolsCollected.Add(float64(symbols))
	m.references.Add(float64(references))
}

// UnitFailed records a unit that produced no tree.
func (m *Metrics) UnitFailed(reason string) {
	m.unitFailures.WithLabelValues(reason).Inc()
}

// Dropped records symbols discarded at merge.
func (m *Metrics) Dropped(n int) {
	m.symbolsDropped.Add(float64(n))
}

// ScanFinished records the duration of a scan.
func (m *Metrics) ScanFinished(d time.Duration) {
	m.scanDuration.Observe(d.Seconds())
}

// BundleObserver returns a callback recording context sizes for strategy.
func (m *Metrics) BundleObserver(strategy string) func(int) {
	h := m.bundleSize.WithLabelValues(strategy)
	return func(n int) { h.Observe(float64(n)) }
}

// WriteTextfile writes the registry to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
