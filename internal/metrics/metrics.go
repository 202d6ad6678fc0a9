// Package metrics exposes scheduling metrics in Prometheus format.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "critpath"

// Outcome labels a scheduling attempt.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeCycle   Outcome = "cycle"
	OutcomeInvalid Outcome = "invalid"
)

// Recorder owns a Prometheus registry and the critpath collectors.
// It is safe for concurrent use.
type Recorder struct {
	prom            *prometheus.Registry
	schedules       *prometheus.CounterVec
	projectDuration prometheus.Gauge
	activities      prometheus.Gauge
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() (*Recorder, error) {
	reg := prometheus.NewRegistry()

	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("registering go collector: %w", err)
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("registering process collector: %w", err)
	}

	r := &Recorder{
		prom: reg,
		schedules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_total",
			Help:      "Scheduling requests by outcome.",
		}, []string{"outcome"}),
		projectDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "project_duration",
			Help:      "Duration of the last successfully scheduled project.",
		}),
		activities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "activities",
			Help:      "Activity count of the last successfully scheduled project.",
		}),
	}

	for _, c := range []prometheus.Collector{r.schedules, r.projectDuration, r.activities} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering critpath collector: %w", err)
		}
	}

	// Pre-create every outcome so the series exist before the first request.
	for _, o := range []Outcome{OutcomeOK, OutcomeCycle, OutcomeInvalid} {
		r.schedules.WithLabelValues(string(o))
	}

	return r, nil
}

// ObserveSchedule records a successful computation.
func (r *Recorder) ObserveSchedule(activities, projectDuration int) {
	r.schedules.WithLabelValues(string(OutcomeOK)).Inc()
	r.activities.Set(float64(activities))
	r.projectDuration.Set(float64(projectDuration))
}

// ObserveFailure records a rejected computation.
func (r *Recorder) ObserveFailure(outcome Outcome) {
	r.schedules.WithLabelValues(string(outcome)).Inc()
}

// Handler returns an http.Handler for the /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.prom
}
