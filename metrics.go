package urlfilter

import (
	"fmt"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "urlfilter"

// Metrics is the engine's Prometheus-based instrumentation, grounded on the
// teacher's internal/metrics package but scaled down to this engine's own
// surface: rule counts by kind, cache hit/miss, match latency, build
// duration. There is no push-gateway or per-subsystem registry split here,
// since the HTTP exposition shell is out of scope.
type Metrics struct {
	rulesCount *prometheus.GaugeVec

	cacheRequestsTotal *prometheus.CounterVec

	matchDuration prometheus.Histogram
	buildDuration prometheus.Histogram

	buildErrorsTotal prometheus.Counter
}

// NewMetrics registers the engine's metrics in reg and returns a populated
// *Metrics. A nil reg is valid and yields a *Metrics that still collects
// (so MatchRequest/Configure callers never need a nil check) but nothing is
// exposed anywhere.
func NewMetrics(reg prometheus.Registerer) (m *Metrics, err error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m = &Metrics{
		rulesCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules_count",
			Help:      "The number of rules currently indexed, by kind.",
		}, []string{"kind"}),
		cacheRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "The total number of cache lookups, by cache and outcome.",
		}, []string{"cache", "hit"}),
		matchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "The duration of a single MatchRequest call.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
		}),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "The duration of a full engine (re)build.",
			Buckets:   []float64{0.01, 0.1, 1, 10, 60},
		}),
		buildErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_errors_total",
			Help:      "The total number of rule lines discarded during a build.",
		}),
	}

	collectors := map[string]prometheus.Collector{
		"rules_count":          m.rulesCount,
		"cache_requests_total": m.cacheRequestsTotal,
		"match_duration":       m.matchDuration,
		"build_duration":       m.buildDuration,
		"build_errors_total":   m.buildErrorsTotal,
	}

	var errs []error
	for name, c := range collectors {
		if regErr := reg.Register(c); regErr != nil {
			errs = append(errs, fmt.Errorf("registering metric %q: %w", name, regErr))
		}
	}

	if err = errors.Join(errs...); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) setRulesCount(kind string, n int) {
	if m == nil {
		return
	}

	m.rulesCount.WithLabelValues(kind).Set(float64(n))
}

func (m *Metrics) observeCacheLookup(cacheName string, hit bool) {
	if m == nil {
		return
	}

	m.cacheRequestsTotal.WithLabelValues(cacheName, fmt.Sprintf("%t", hit)).Inc()
}

func (m *Metrics) observeMatchDuration(seconds float64) {
	if m == nil {
		return
	}

	m.matchDuration.Observe(seconds)
}

func (m *Metrics) observeBuildDuration(seconds float64) {
	if m == nil {
		return
	}

	m.buildDuration.Observe(seconds)
}

func (m *Metrics) addBuildErrors(n int) {
	if m == nil {
		return
	}

	m.buildErrorsTotal.Add(float64(n))
}
