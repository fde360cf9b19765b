package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics records metadata for scheduled reconciliation sweeps.
type SweepMetrics struct {
	duration    *prometheus.HistogramVec
	success     *prometheus.CounterVec
	failure     *prometheus.CounterVec
	drift       *prometheus.CounterVec
	overbooking prometheus.Counter
}

// NewSweepMetrics registers the sweep metrics on the provided registerer.
func NewSweepMetrics(reg prometheus.Registerer) *SweepMetrics {
	if reg == nil {
		return &SweepMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sweep_duration_seconds",
		Help:    "Duration of reconciliation sweeps in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_success",
		Help: "Successful reconciliation sweep executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_failure",
		Help: "Failed reconciliation sweep executions.",
	}, []string{"job"})
	drift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_drift_detected_total",
		Help: "Ghost discrepancies detected between counters and incident logs.",
	}, []string{"condition"})
	overbooking := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overbooking_conflicts_total",
		Help: "Dates where confirmed reservations exceed usable stock.",
	})
	reg.MustRegister(duration, success, failure, drift, overbooking)
	return &SweepMetrics{
		duration:    duration,
		success:     success,
		failure:     failure,
		drift:       drift,
		overbooking: overbooking,
	}
}

// ObserveDuration records the duration for the named sweep job.
func (s *SweepMetrics) ObserveDuration(job string, duration time.Duration) {
	if s == nil || s.duration == nil {
		return
	}
	s.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named sweep job.
func (s *SweepMetrics) IncSuccess(job string) {
	if s == nil || s.success == nil {
		return
	}
	s.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named sweep job.
func (s *SweepMetrics) IncFailure(job string) {
	if s == nil || s.failure == nil {
		return
	}
	s.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncDrift increments the drift counter for the given stock condition.
func (s *SweepMetrics) IncDrift(condition string) {
	if s == nil || s.drift == nil {
		return
	}
	s.drift.WithLabelValues(normalizeLabel(condition)).Inc()
}

// IncOverbooking increments the overbooking conflict counter.
func (s *SweepMetrics) IncOverbooking() {
	if s == nil || s.overbooking == nil {
		return
	}
	s.overbooking.Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
