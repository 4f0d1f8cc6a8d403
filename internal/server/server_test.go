package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/network-planner/internal/dataset"
	"github.com/sells-group/network-planner/internal/model"
	"github.com/sells-group/network-planner/internal/observability"
	"github.com/sells-group/network-planner/internal/planner"
)

type staticSource []model.Region

func (s staticSource) Regions(context.Context) ([]model.Region, error) { return s, nil }

type brokenSource struct{}

func (brokenSource) Regions(context.Context) ([]model.Region, error) {
	return nil, errors.New("unreachable")
}

func fixtureRegions() staticSource {
	return staticSource{
		{ID: "Region-1", Latitude: 40, Longitude: -100, TerrainDifficulty: 3, SignalStrengthDBM: -80, CostKUSD: 100, PriorityArea: model.AreaRural, ClimateRisk: 2},
		{ID: "Region-2", Latitude: 42, Longitude: -96, TerrainDifficulty: 5, SignalStrengthDBM: -60, CostKUSD: 60, PriorityArea: model.AreaRural, ClimateRisk: 7},
		{ID: "Region-3", Latitude: 35, Longitude: -80, TerrainDifficulty: 1, SignalStrengthDBM: -40, CostKUSD: 150, PriorityArea: model.AreaUrban, ClimateRisk: 0},
	}
}

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	defaults := model.DefaultPlanRequest()
	defaults.IncludeLocationNames = false
	p := planner.New(planner.WithSource(fixtureRegions()))
	h := NewHandler(p, append([]Option{WithDefaults(defaults)}, opts...)...)
	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestPlan(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/v1/plan", `{"budget_max_k_usd": 120, "signal_min_dbm": -90, "priority_area": "rural"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan model.Plan
	decode(t, resp, &plan)
	assert.NotEmpty(t, plan.ID)
	assert.Equal(t, model.AreaRural, plan.Request.PriorityArea)
	assert.InDelta(t, 0.5, plan.Request.Cost, 0, "omitted fields take defaults")
	require.Len(t, plan.FilteredRegions, 2)
	assert.InDelta(t, -87.5, plan.FilteredRegions[0].CompositeScore, 1e-9)
	require.True(t, plan.Recommendation.Viable)
	assert.Equal(t, "Region-2", plan.Recommendation.Region.ID)
}

func TestPlan_NoViableRegion(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/v1/plan", `{"budget_max_k_usd": 50}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var plan model.Plan
	decode(t, resp, &plan)
	assert.Empty(t, plan.FilteredRegions)
	assert.False(t, plan.Recommendation.Viable)
	assert.Equal(t, model.NoViableRegionMessage, plan.Recommendation.Message)
}

func TestPlan_BadRequests(t *testing.T) {
	srv := newTestServer(t)
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{`, "invalid request body"},
		{"unknown field", `{"budget": 10}`, "invalid request body"},
		{"zero budget", `{"budget_max_k_usd": 0}`, "invalid budget_max_k_usd"},
		{"signal out of range", `{"budget_max_k_usd": 100, "signal_min_dbm": -10}`, "invalid signal_min_dbm"},
		{"typo area", `{"budget_max_k_usd": 100, "priority_area": "Rurall"}`, `did you mean "Rural"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/v1/plan", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]string
			decode(t, resp, &body)
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestPlan_NonFiniteScore(t *testing.T) {
	srv := newTestServer(t)
	body := `{"budget_max_k_usd": 200, "signal_min_dbm": -90, "terrain_weight": 1e308, "cost_weight": -1e308}`

	for _, path := range []string{"/v1/plan", "/v1/plan/scatter"} {
		t.Run(path, func(t *testing.T) {
			resp := post(t, srv.URL+path, body)
			assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			var out map[string]string
			decode(t, resp, &out)
			assert.Contains(t, out["error"], "could not be encoded")
		})
	}
}

func TestPlan_SourceFailure(t *testing.T) {
	p := planner.New(planner.WithSource(brokenSource{}))
	srv := httptest.NewServer(NewHandler(p).Router())
	defer srv.Close()

	resp := post(t, srv.URL+"/v1/plan", `{"budget_max_k_usd": 100}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestPlanMap(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/v1/plan/map", `{"budget_max_k_usd": 120, "signal_min_dbm": -90}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var view struct {
		Center  []float64 `json:"center"`
		Zoom    int       `json:"zoom"`
		Regions struct {
			Type     string            `json:"type"`
			Features []json.RawMessage `json:"features"`
		} `json:"regions"`
	}
	decode(t, resp, &view)
	assert.Equal(t, []float64{41, -98}, view.Center)
	assert.Equal(t, 6, view.Zoom)
	assert.Equal(t, "FeatureCollection", view.Regions.Type)
	assert.Len(t, view.Regions.Features, 2)
}

func TestPlanScatter(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/v1/plan/scatter", `{"budget_max_k_usd": 120, "signal_min_dbm": -90}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var chart struct {
		Title  string `json:"title"`
		Points []struct {
			Region string `json:"region"`
			X      int    `json:"x"`
		} `json:"points"`
	}
	decode(t, resp, &chart)
	assert.Equal(t, "Signal Strength vs. Cost", chart.Title)
	require.Len(t, chart.Points, 2)
	assert.Equal(t, 100, chart.Points[0].X)
}

func TestRegions(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/regions?seed=7")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var regions []model.Region
	decode(t, resp, &regions)
	assert.Equal(t, dataset.Generate(7), regions)

	bad, err := http.Get(srv.URL + "/v1/regions?seed=abc")
	require.NoError(t, err)
	defer bad.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestRegions_SourceFailure(t *testing.T) {
	srv := newTestServer(t, WithRegionSource(func(int64) dataset.Source { return brokenSource{} }))
	resp, err := http.Get(srv.URL + "/v1/regions")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestMetricsRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := observability.NewCollector(reg)
	require.NoError(t, err)

	srv := newTestServer(t, WithMetrics(c))
	post(t, srv.URL+"/v1/plan", `{"budget_max_k_usd": 120}`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `planner_http_requests_total{code="200",method="POST",route="/v1/plan"} 1`)
}

func TestMetricsRoute_DisabledWithoutCollector(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, WithCORSOrigins([]string{"https://planner.example.com"}))
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/plan", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://planner.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "https://planner.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
