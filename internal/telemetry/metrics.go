// Package telemetry exports reconciliation measurements as Prometheus metrics
// and configures OpenTelemetry tracing for the zonewatch service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/zonewatch/pkg/coordinator"
	"github.com/agentstation/zonewatch/pkg/merger"
	"github.com/agentstation/zonewatch/pkg/metrics"
)

const namespace = "zonewatch"

// Compile-time interface check.
var _ coordinator.Recorder = (*Recorder)(nil)

// Recorder implements coordinator.Recorder on Prometheus collectors.
type Recorder struct {
	cyclesStarted    prometheus.Counter
	cyclesFinished   *prometheus.CounterVec
	cycleDuration    *prometheus.HistogramVec
	axisDuration     *prometheus.HistogramVec
	axisFailures     *prometheus.CounterVec
	staleSettlements *prometheus.CounterVec
	malformed        prometheus.Counter
	orphans          prometheus.Counter
	values           *prometheus.CounterVec
	generation       prometheus.Gauge
}

// NewRecorder registers the zonewatch collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cyclesStarted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_started_total",
			Help:      "Reconciliation cycles started",
		}),
		cyclesFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_finished_total",
			Help:      "Reconciliation cycles by terminal state",
		}, []string{"state"}),
		cycleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Time from cycle start to terminal state",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"state"}),
		axisDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "axis_fetch_duration_seconds",
			Help:      "Duration of a single axis fetch",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"axis", "outcome"}),
		axisFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "axis_failures_total",
			Help:      "Axis fetches that failed and fell back to catalog values",
		}, []string{"axis"}),
		staleSettlements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_settlements_total",
			Help:      "Axis results discarded because their generation was superseded",
		}, []string{"axis"}),
		malformed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_malformed_total",
			Help:      "Live records dropped for a missing key or value",
		}),
		orphans: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_orphaned_total",
			Help:      "Live records that matched no catalog building",
		}),
		values: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_values_total",
			Help:      "Published building values by axis and source",
		}, []string{"axis", "source"}),
		generation: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_generation",
			Help:      "Generation of the most recently published view",
		}),
	}
}

// CycleStarted implements coordinator.Recorder.
func (r *Recorder) CycleStarted() {
	r.cyclesStarted.Inc()
}

// AxisSettled implements coordinator.Recorder.
func (r *Recorder) AxisSettled(axis metrics.Axis, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		r.axisFailures.WithLabelValues(axis.String()).Inc()
	}
	r.axisDuration.WithLabelValues(axis.String(), outcome).Observe(d.Seconds())
}

// StaleDiscarded implements coordinator.Recorder.
func (r *Recorder) StaleDiscarded(axis metrics.Axis) {
	r.staleSettlements.WithLabelValues(axis.String()).Inc()
}

// CycleFinished implements coordinator.Recorder.
func (r *Recorder) CycleFinished(state coordinator.State, d time.Duration) {
	r.cyclesFinished.WithLabelValues(state.String()).Inc()
	r.cycleDuration.WithLabelValues(state.String()).Observe(d.Seconds())
}

// ViewPublished implements coordinator.Recorder.
func (r *Recorder) ViewPublished(view merger.View) {
	r.generation.Set(float64(view.Generation))
	r.malformed.Add(float64(view.Summary.Malformed))
	r.orphans.Add(float64(view.Summary.Orphans))
	for axis, n := range view.Summary.Live {
		r.values.WithLabelValues(axis.String(), string(merger.SourceLive)).Add(float64(n))
	}
	for axis, n := range view.Summary.Fallback {
		r.values.WithLabelValues(axis.String(), string(merger.SourceFallback)).Add(float64(n))
	}
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
