package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pool-sniper/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "meteora"

// Metrics holds all Prometheus metrics for the sniper.
type Metrics struct {
	// Detection metrics
	PoolsDetected    prometheus.Counter
	StreamMessages   *prometheus.CounterVec
	LastPoolDetected prometheus.Gauge

	// Swap metrics
	SwapSuccess     *prometheus.CounterVec
	SwapFailure     *prometheus.CounterVec
	DispatchLatency *prometheus.HistogramVec
}

var _ Reporter = (*Metrics)(nil)

// NewMetrics creates metrics registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Detection metrics
		PoolsDetected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pools_detected_total",
			Help:      "Total number of newly claimed pools",
		}),
		StreamMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_messages_total",
			Help:      "Total number of stream messages by decode result",
		}, []string{"result"}),
		LastPoolDetected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_pool_detected_timestamp",
			Help:      "Unix timestamp of the last claimed pool",
		}),

		// Swap metrics
		SwapSuccess: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swap_success_total",
			Help:      "Total number of accepted swaps by backend",
		}, []string{"backend"}),
		SwapFailure: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swap_failure_total",
			Help:      "Total number of failed swaps by last stage reached",
		}, []string{"stage"}),
		DispatchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_latency_seconds",
			Help:      "Submission latency in seconds by backend",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"backend"}),
	}
}

// PoolDetected increments the detected counter.
func (m *Metrics) PoolDetected() {
	m.PoolsDetected.Inc()
	m.LastPoolDetected.Set(float64(time.Now().Unix()))
}

// SwapSucceeded increments the success counter for backend.
func (m *Metrics) SwapSucceeded(backend string) {
	m.SwapSuccess.WithLabelValues(backend).Inc()
}

// SwapFailed increments the failure counter for stage.
func (m *Metrics) SwapFailed(stage domain.Stage) {
	m.SwapFailure.WithLabelValues(stage.String()).Inc()
}

// DispatchObserved records a submission latency.
func (m *Metrics) DispatchObserved(backend string, latency time.Duration) {
	m.DispatchLatency.WithLabelValues(backend).Observe(latency.Seconds())
}

// StreamMessage counts a feed message.
func (m *Metrics) StreamMessage(decoded bool) {
	result := "decoded"
	if !decoded {
		result = "skipped"
	}
	m.StreamMessages.WithLabelValues(result).Inc()
}
