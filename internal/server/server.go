// Package server exposes the planner over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/network-planner/internal/dataset"
	"github.com/sells-group/network-planner/internal/model"
	"github.com/sells-group/network-planner/internal/observability"
	"github.com/sells-group/network-planner/internal/planner"
	"github.com/sells-group/network-planner/internal/render"
)

const maxBodyBytes = 1 << 20

// Handler serves the planning API.
type Handler struct {
	planner     *planner.Planner
	defaults    model.PlanRequest
	regions     func(seed int64) dataset.Source
	metrics     *observability.Collector
	corsOrigins []string
}

// Option configures a Handler.
type Option func(*Handler)

// WithDefaults sets the request values used for fields a client omits.
func WithDefaults(req model.PlanRequest) Option {
	return func(h *Handler) { h.defaults = req }
}

// WithRegionSource sets the source behind GET /v1/regions.
func WithRegionSource(fn func(seed int64) dataset.Source) Option {
	return func(h *Handler) { h.regions = fn }
}

// WithMetrics instruments every route and serves /metrics.
func WithMetrics(c *observability.Collector) Option {
	return func(h *Handler) { h.metrics = c }
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) Option {
	return func(h *Handler) { h.corsOrigins = origins }
}

// NewHandler creates a Handler around p.
func NewHandler(p *planner.Planner, opts ...Option) *Handler {
	h := &Handler{
		planner:     p,
		defaults:    model.DefaultPlanRequest(),
		regions:     func(seed int64) dataset.Source { return dataset.GeneratorSource{Seed: seed} },
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the HTTP routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(h.metrics.Middleware)

	r.Get("/health", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/plan", h.plan)
		r.Post("/plan/map", h.planMap)
		r.Post("/plan/scatter", h.planScatter)
		r.Get("/regions", h.listRegions)
	})
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) plan(w http.ResponseWriter, r *http.Request) {
	if plan, ok := h.runPlan(w, r); ok {
		writeJSON(w, http.StatusOK, plan)
	}
}

func (h *Handler) planMap(w http.ResponseWriter, r *http.Request) {
	plan, ok := h.runPlan(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	writeJSON(w, http.StatusOK, render.Map(plan))
}

func (h *Handler) planScatter(w http.ResponseWriter, r *http.Request) {
	if plan, ok := h.runPlan(w, r); ok {
		writeJSON(w, http.StatusOK, render.Scatter(plan))
	}
}

func (h *Handler) listRegions(w http.ResponseWriter, r *http.Request) {
	seed := h.defaults.Seed
	if s := r.URL.Query().Get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid seed: "+s)
			return
		}
		seed = v
	}

	regions, err := h.regions(seed).Regions(r.Context())
	if err != nil {
		zap.L().Error("server: load regions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load regions")
		return
	}
	writeJSON(w, http.StatusOK, regions)
}

// runPlan decodes the request over the defaults and runs the planner. It
// writes the error response itself and reports whether the caller should
// continue.
func (h *Handler) runPlan(w http.ResponseWriter, r *http.Request) (*model.Plan, bool) {
	req := h.defaults
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return nil, false
	}

	start := time.Now()
	plan, err := h.planner.Plan(r.Context(), req)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.Error())
			return nil, false
		}
		zap.L().Error("server: plan failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		writeError(w, http.StatusInternalServerError, "planning failed")
		return nil, false
	}
	return plan, true
}

// writeJSON encodes v before committing the status so an unencodable value
// (a non-finite score from extreme weights) becomes a 500, not an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(eris.Wrap(err, "server: encode")))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"response could not be encoded"}` + "\n"))
		return
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
