// Package planner filters, scores and ranks candidate regions for network
// infrastructure deployment.
package planner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/sells-group/network-planner/internal/annotate"
	"github.com/sells-group/network-planner/internal/dataset"
	"github.com/sells-group/network-planner/internal/model"
	"github.com/sells-group/network-planner/internal/observability"
)

const tracerName = "github.com/sells-group/network-planner/internal/planner"

// Planner runs the source, filter, annotate, score and recommend stages.
type Planner struct {
	source    dataset.Source
	annotator *annotate.Annotator
	metrics   *observability.Collector
}

// Option configures a Planner.
type Option func(*Planner)

// WithSource replaces the seeded generator with a fixed region source. The
// request seed is ignored when a source is set.
func WithSource(s dataset.Source) Option {
	return func(p *Planner) { p.source = s }
}

// WithAnnotator enables location names for requests that ask for them.
func WithAnnotator(a *annotate.Annotator) Option {
	return func(p *Planner) { p.annotator = a }
}

// WithMetrics records plan outcomes on c.
func WithMetrics(c *observability.Collector) Option {
	return func(p *Planner) { p.metrics = c }
}

// New creates a Planner.
func New(opts ...Option) *Planner {
	p := &Planner{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Plan runs one planning pass. Only invalid requests (*model.ValidationError)
// and region source failures are returned as errors; an empty filter result
// is a successful plan with the no-viable-region recommendation.
func (p *Planner) Plan(ctx context.Context, req model.PlanRequest) (*model.Plan, error) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "planner.Plan")
	defer span.End()

	req, err := req.Normalize()
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		span.SetStatus(codes.Error, "invalid request")
		span.RecordError(err)
		p.metrics.ObservePlan(observability.OutcomeInvalid, time.Since(start), 0)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("plan.seed", req.Seed),
		attribute.Int("plan.budget_max_k_usd", req.BudgetMaxKUSD),
		attribute.Int("plan.signal_min_dbm", req.SignalMinDBM),
		attribute.String("plan.priority_area", string(req.PriorityArea)),
	)

	source := p.source
	if source == nil {
		source = dataset.GeneratorSource{Seed: req.Seed}
	}
	regions, err := source.Regions(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "load regions")
		span.RecordError(err)
		p.metrics.ObservePlan(observability.OutcomeError, time.Since(start), 0)
		return nil, eris.Wrap(err, "planner: load regions")
	}

	filtered := Filter(regions, req.BudgetMaxKUSD, req.SignalMinDBM, req.PriorityArea)

	if req.IncludeLocationNames {
		a := p.annotator
		if a == nil {
			a = annotate.New(nil)
		}
		filtered = a.Annotate(ctx, filtered)
	} else {
		// Names from a custom source never leak into an unannotated plan.
		for i := range filtered {
			filtered[i].LocationName = nil
		}
	}

	scored := ScoreAll(filtered, req.Weights)
	rec := Recommend(scored)

	plan := &model.Plan{
		ID:                    uuid.New().String(),
		Request:               req,
		FilteredRegions:       scored,
		Recommendation:        rec,
		LocationNamesIncluded: req.IncludeLocationNames,
	}

	outcome := observability.OutcomeNoViable
	fields := []zap.Field{
		zap.String("plan_id", plan.ID),
		zap.Int("candidates", len(regions)),
		zap.Int("filtered", len(scored)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if rec.Viable {
		outcome = observability.OutcomeViable
		fields = append(fields,
			zap.String("recommended", rec.Region.ID),
			zap.Float64("score", rec.Region.CompositeScore),
		)
	}
	span.SetAttributes(
		attribute.Int("plan.filtered", len(scored)),
		attribute.String("plan.outcome", outcome),
	)
	p.metrics.ObservePlan(outcome, time.Since(start), len(scored))
	zap.L().Info("planner: plan complete", fields...)

	return plan, nil
}
