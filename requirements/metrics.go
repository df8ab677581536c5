package requirements

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var parseMetricsOnce sync.Once

var (
	parseLinesTotal     *prometheus.CounterVec
	manifestsParsed     *prometheus.CounterVec
	manifestSizeSamples prometheus.Histogram
)

func registerCountVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		log.Printf("prometheus counter register failed: %v", err)
	}
	return c
}

func registerHistogram(c prometheus.Histogram) prometheus.Histogram {
	if err := prometheus.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(prometheus.Histogram); ok {
				return existing
			}
		}
		log.Printf("prometheus histogram register failed: %v", err)
	}
	return c
}

func initParseMetrics() {
	parseMetricsOnce.Do(func() {
		parseLinesTotal = registerCountVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipdex",
			Subsystem: "parser",
			Name:      "lines_total",
			Help:      "Specifier lines read, by outcome.",
		}, []string{"result"}))

		manifestsParsed = registerCountVec(prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipdex",
			Subsystem: "parser",
			Name:      "manifests_total",
			Help:      "Manifests parsed, by outcome.",
		}, []string{"result"}))

		manifestSizeSamples = registerHistogram(prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pipdex",
			Subsystem: "parser",
			Name:      "manifest_requirements",
			Help:      "Requirements per parsed manifest.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
		}))
	})
}

func parseLineResult(result string) {
	initParseMetrics()
	parseLinesTotal.WithLabelValues(result).Inc()
}

// ObserveManifest records a completed parse for the service dashboards.
func ObserveManifest(m *Manifest, ok bool) {
	initParseMetrics()
	result := "ok"
	if !ok {
		result = "error"
	}
	manifestsParsed.WithLabelValues(result).Inc()
	if m != nil {
		manifestSizeSamples.Observe(float64(len(m.Requirements)))
	}
}
