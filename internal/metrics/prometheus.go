package metrics

import (
	"strconv"
	"sync"

	"github.com/arloliu/rollout/types"
	"github.com/prometheus/client_golang/prometheus"
)

// noVariationLabel is the variation label value used when a subject is not assigned.
const noVariationLabel = "none"

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Collectors are created and registered lazily on first use, so constructing
// a PrometheusCollector never panics on duplicate registration until it is
// actually exercised.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	updates            *prometheus.CounterVec
	updateLatency      prometheus.Histogram
	configVersion      prometheus.Gauge
	activeFeatures     prometheus.Gauge
	validationFailures prometheus.Counter
	biasFallbacks      *prometheus.CounterVec
	assignments        *prometheus.CounterVec
	memoLookups        *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer interface (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Prometheus metrics namespace (defaults to "rollout" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "rollout"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.updates = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "config",
			Name:      "updates_total",
			Help:      "Total configuration update attempts by result (success,failure).",
		}, []string{"result"})

		p.updateLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "config",
			Name:      "update_duration_seconds",
			Help:      "Time spent building and swapping a configuration snapshot.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2.5, 10), // 100µs .. ~380ms
		})

		p.configVersion = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "config",
			Name:      "version",
			Help:      "Version of the active configuration document.",
		})

		p.activeFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Subsystem: "config",
			Name:      "features",
			Help:      "Number of features in the active configuration document.",
		})

		p.validationFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "document",
			Name:      "validation_failures_total",
			Help:      "Total configuration documents rejected as malformed.",
		})

		p.biasFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "document",
			Name:      "bias_fallbacks_total",
			Help:      "Total features that fell back to uniform weighting, by feature and code.",
		}, []string{"feature", "code"})

		p.assignments = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "decisions_total",
			Help:      "Total assignment decisions (memoized or computed) by feature and variation.",
		}, []string{"feature", "variation"})

		p.memoLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "assignment",
			Name:      "memo_lookups_total",
			Help:      "Total assignment memo lookups by outcome (hit,miss).",
		}, []string{"hit"})

		p.reg.MustRegister(p.updates)
		p.reg.MustRegister(p.updateLatency)
		p.reg.MustRegister(p.configVersion)
		p.reg.MustRegister(p.activeFeatures)
		p.reg.MustRegister(p.validationFailures)
		p.reg.MustRegister(p.biasFallbacks)
		p.reg.MustRegister(p.assignments)
		p.reg.MustRegister(p.memoLookups)
	})
}

// UpdateMetrics implementation

// RecordUpdate counts an update attempt and observes its latency.
func (p *PrometheusCollector) RecordUpdate(success bool, _ /* changes */ int, duration float64) {
	p.ensureRegistered()
	if success {
		p.updates.WithLabelValues("success").Inc()
	} else {
		p.updates.WithLabelValues("failure").Inc()
	}
	p.updateLatency.Observe(duration)
}

// SetConfigVersion sets the active version gauge.
func (p *PrometheusCollector) SetConfigVersion(version uint64) {
	p.ensureRegistered()
	p.configVersion.Set(float64(version))
}

// SetActiveFeatures sets the feature count gauge.
func (p *PrometheusCollector) SetActiveFeatures(count int) {
	p.ensureRegistered()
	p.activeFeatures.Set(float64(count))
}

// DocumentMetrics implementation

// RecordValidationFailure increments the rejected document counter.
func (p *PrometheusCollector) RecordValidationFailure() {
	p.ensureRegistered()
	p.validationFailures.Inc()
}

// RecordBiasFallback increments the bias fallback counter.
func (p *PrometheusCollector) RecordBiasFallback(feature string, code string) {
	p.ensureRegistered()
	p.biasFallbacks.WithLabelValues(feature, code).Inc()
}

// AssignmentMetrics implementation

// RecordAssignment increments the assignment decision counter.
func (p *PrometheusCollector) RecordAssignment(feature string, variation string) {
	p.ensureRegistered()
	if variation == "" {
		variation = noVariationLabel
	}
	p.assignments.WithLabelValues(feature, variation).Inc()
}

// RecordMemoLookup increments the memo lookup counter.
func (p *PrometheusCollector) RecordMemoLookup(hit bool) {
	p.ensureRegistered()
	p.memoLookups.WithLabelValues(strconv.FormatBool(hit)).Inc()
}
