package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/network-planner/internal/config"
)

func TestCollector_ObservePlan(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.ObservePlan(OutcomeViable, 20*time.Millisecond, 3)
	c.ObservePlan(OutcomeInvalid, time.Millisecond, 0)

	assert.InDelta(t, 1, testutil.ToFloat64(c.PlansTotal.WithLabelValues(OutcomeViable)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(c.PlansTotal.WithLabelValues(OutcomeInvalid)), 0)
	n, err := testutil.GatherAndCount(reg, "planner_plans_total", "planner_plan_duration_seconds", "planner_regions_filtered")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestCollector_RegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	require.NoError(t, err)
	b, err := NewCollector(reg)
	require.NoError(t, err)

	a.ObserveLookup("nominatim", "ok")
	assert.InDelta(t, 1, testutil.ToFloat64(b.GeocodeLookups.WithLabelValues("nominatim", "ok")), 0)
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.ObservePlan(OutcomeViable, time.Second, 1)
	c.ObserveLookup("google", "error")

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	c.Middleware(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCollector_MiddlewareAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(c.Middleware)
	r.Get("/v1/regions/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", c.Handler())

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/regions/abc")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.InDelta(t, 1, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("/v1/regions/{id}", "GET", "404")), 0)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "planner_http_requests_total")
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_Stdout(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), config.TracingConfig{
		Enabled: true, ServiceName: "planner-test", Exporter: "stdout", SampleRatio: 1,
	})
	require.NoError(t, err)
	ShutdownWithTimeout(context.Background(), shutdown)
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), config.TracingConfig{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported tracing exporter")
}
