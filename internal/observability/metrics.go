// Package observability wires Prometheus metrics and OpenTelemetry tracing
// for the planner, the geocoders and the HTTP API.
package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
)

// Plan outcomes recorded by ObservePlan.
const (
	OutcomeViable   = "viable"
	OutcomeNoViable = "no_viable"
	OutcomeInvalid  = "invalid"
	OutcomeError    = "error"
)

// Collector bundles the planner's Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	PlansTotal      *prometheus.CounterVec
	PlanDuration    prometheus.Histogram
	RegionsFiltered prometheus.Histogram
	GeocodeLookups  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDurations   *prometheus.HistogramVec
}

// NewCollector registers planner metrics against reg, defaulting to the
// global registry when reg is nil. Registering twice against the same
// registry returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	plans, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_plans_total",
		Help: "Planning passes, labeled by outcome.",
	}, []string{"outcome"}), "planner_plans_total")
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_plan_duration_seconds",
		Help:    "Duration of a full planning pass including annotation.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}), "planner_plan_duration_seconds")
	if err != nil {
		return nil, err
	}

	filtered, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "planner_regions_filtered",
		Help:    "Number of regions surviving the constraint filter per plan.",
		Buckets: prometheus.LinearBuckets(0, 1, 11),
	}), "planner_regions_filtered")
	if err != nil {
		return nil, err
	}

	lookups, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_geocode_lookups_total",
		Help: "Reverse geocode lookups, labeled by provider and outcome.",
	}, []string{"provider", "outcome"}), "planner_geocode_lookups_total")
	if err != nil {
		return nil, err
	}

	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_http_requests_total",
		Help: "HTTP requests, labeled by route, method and status code.",
	}, []string{"route", "method", "code"}), "planner_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"}), "planner_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:        gatherer,
		PlansTotal:      plans,
		PlanDuration:    duration,
		RegionsFiltered: filtered,
		GeocodeLookups:  lookups,
		HTTPRequests:    requests,
		HTTPDurations:   durations,
	}, nil
}

// ObservePlan records one planning pass.
func (c *Collector) ObservePlan(outcome string, d time.Duration, filtered int) {
	if c == nil {
		return
	}
	c.PlansTotal.WithLabelValues(outcome).Inc()
	c.PlanDuration.Observe(d.Seconds())
	if outcome == OutcomeViable || outcome == OutcomeNoViable {
		c.RegionsFiltered.Observe(float64(filtered))
	}
}

// ObserveLookup records one reverse geocode attempt.
func (c *Collector) ObserveLookup(provider, outcome string) {
	if c == nil {
		return
	}
	c.GeocodeLookups.WithLabelValues(provider, outcome).Inc()
}

// Handler serves the metrics exposition for the collector's registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per chi route pattern.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		c.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		c.HTTPDurations.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// register registers collector, returning an already-registered collector of
// the same type when present.
func register[T prometheus.Collector](reg prometheus.Registerer, collector T, name string) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, eris.Errorf("observability: collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, eris.Wrapf(err, "observability: register %s", name)
	}
	return collector, nil
}
