package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mind-engage/medscore/internal/reftable"
	"github.com/mind-engage/medscore/internal/scoring"
)

const namespace = "medscore"

// Request outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeBadRequest  = "bad_request"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"
)

// Metrics groups the service's Prometheus collectors on a private registry.
// All methods are no-ops on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	lookups      *prometheus.CounterVec
	scores       prometheus.Histogram
	tableEntries prometheus.Gauge
	tableSkipped prometheus.Gauge
	reloads      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_requests_total",
			Help:      "Score requests by outcome.",
		}, []string{"outcome"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "condition_lookups_total",
			Help:      "Condition name lookups by result.",
		}, []string{"result"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Distribution of computed scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		tableEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_conditions_loaded",
			Help:      "Entries in the active reference table.",
		}),
		tableSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_rows_skipped",
			Help:      "Rows skipped while building the active reference table.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_reloads_total",
			Help:      "Reference table reload attempts by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.lookups, m.scores, m.tableEntries, m.tableSkipped, m.reloads,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveScore records a successful score.
func (m *Metrics) ObserveScore(res scoring.Result) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(OutcomeOK).Inc()
	m.scores.Observe(res.Score)
	m.lookups.WithLabelValues("matched").Add(float64(len(res.Matched)))
	m.lookups.WithLabelValues("unmatched").Add(float64(len(res.Unmatched)))
}

// ObserveError records a failed score request.
func (m *Metrics) ObserveError(err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(Outcome(err)).Inc()
}

// ObserveRequest records a request outcome directly.
func (m *Metrics) ObserveRequest(outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
}

// ObserveTable sets the table gauges.
func (m *Metrics) ObserveTable(t *reftable.Table) {
	if m == nil || t == nil {
		return
	}
	st := t.Stats()
	m.tableEntries.Set(float64(st.Loaded))
	m.tableSkipped.Set(float64(st.Skipped))
}

// ObserveReload matches reftable.ReloadFunc.
func (m *Metrics) ObserveReload(t *reftable.Table, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.reloads.WithLabelValues("error").Inc()
		return
	}
	m.reloads.WithLabelValues("ok").Inc()
	m.ObserveTable(t)
}

// Outcome classifies a scoring error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, scoring.ErrInvalidAge):
		return OutcomeInvalid
	case errors.Is(err, scoring.ErrTableUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}
