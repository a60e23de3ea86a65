package observability

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusFactory is a MetricFactory backed by Prometheus collectors.
// Dotted metric names are rewritten to Prometheus form, so
// "subledger.asset.minted" becomes "subledger_asset_minted_total".
type PrometheusFactory struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// NewPrometheusFactory creates a factory that registers collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{
		reg:        reg,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter implements MetricFactory. Repeated calls with the same name return
// the same collector.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: metricName(name) + "_total",
		Help: "Count of " + name + " notifications.",
	})
	f.counters[name] = registerOrExisting(f.reg, c).(prometheus.Counter) //nolint:forcetypeassert // same collector type
	return f.counters[name]
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    metricName(name),
		Help:    "Distribution of " + name + ".",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	f.histograms[name] = registerOrExisting(f.reg, h).(prometheus.Histogram) //nolint:forcetypeassert // same collector type
	return f.histograms[name]
}

// registerOrExisting registers c, returning the already registered collector
// when another factory sharing the registry created it first.
func registerOrExisting(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
