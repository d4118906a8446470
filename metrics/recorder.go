package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "soilflag"

// Failure reasons used as the "reason" label.
const (
	ReasonFetch     = "fetch"
	ReasonPartition = "partition"
	ReasonOracle    = "oracle"
)

// Recorder owns a private registry with the flagging metrics. A nil
// *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	eligible       prometheus.Counter
	decided        prometheus.Counter
	oracleCalls    prometheus.Counter
	oracleDuration prometheus.Histogram
	failures       *prometheus.CounterVec
	storeSize      prometheus.Gauge
	lastRun        prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		eligible: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "eligible_readings_total",
			Help:      "Readings without a stored flag at run start.",
		}),
		decided: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decided_readings_total",
			Help:      "Flags accepted from the oracle and merged into the store.",
		}),
		oracleCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Oracle invocations, one per non-empty stream batch.",
		}),
		oracleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_duration_seconds",
			Help:      "Duration of oracle invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Skipped catalog entries and streams by reason.",
		}, []string{"reason"}),
		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_entries",
			Help:      "Number of flags in the store.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}),
	}

	r.registry.MustRegister(r.eligible, r.decided, r.oracleCalls, r.oracleDuration, r.failures, r.storeSize, r.lastRun)
	return r
}

func (r *Recorder) AddEligible(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.eligible.Add(float64(n))
}

func (r *Recorder) AddDecided(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.decided.Add(float64(n))
}

func (r *Recorder) ObserveOracleCall(duration time.Duration) {
	if r == nil {
		return
	}
	r.oracleCalls.Inc()
	r.oracleDuration.Observe(duration.Seconds())
}

func (r *Recorder) IncFailure(reason string) {
	if r == nil {
		return
	}
	r.failures.WithLabelValues(reason).Inc()
}

func (r *Recorder) SetStoreSize(n int) {
	if r == nil {
		return
	}
	r.storeSize.Set(float64(n))
}

func (r *Recorder) MarkRunCompleted(at time.Time) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(at.Unix()))
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the registry for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}

	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
