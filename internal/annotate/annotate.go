// Package annotate attaches human-readable location names to regions by
// reverse geocoding their coordinates.
package annotate

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/network-planner/internal/model"
	"github.com/sells-group/network-planner/pkg/geocode"
)

// UnknownLocation is the name given to regions whose lookup failed.
const UnknownLocation = "Unknown Location"

// Annotator resolves location names for regions.
type Annotator struct {
	reverser    geocode.Reverser
	timeout     time.Duration
	concurrency int
	sentinel    string
}

// Option configures an Annotator.
type Option func(*Annotator)

// WithTimeout bounds each lookup.
func WithTimeout(d time.Duration) Option {
	return func(a *Annotator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithConcurrency sets the number of lookups in flight.
func WithConcurrency(n int) Option {
	return func(a *Annotator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithSentinel overrides the failure name.
func WithSentinel(s string) Option {
	return func(a *Annotator) {
		if s != "" {
			a.sentinel = s
		}
	}
}

// New creates an Annotator. A nil reverser names every region with the
// sentinel.
func New(r geocode.Reverser, opts ...Option) *Annotator {
	a := &Annotator{
		reverser:    r,
		timeout:     10 * time.Second,
		concurrency: 1,
		sentinel:    UnknownLocation,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Sentinel returns the name used for failed lookups.
func (a *Annotator) Sentinel() string { return a.sentinel }

// Annotate returns a copy of regions with LocationName set on every row.
// Lookup failures become the sentinel; no region is dropped or reordered and
// no other field changes.
func (a *Annotator) Annotate(ctx context.Context, regions []model.Region) []model.Region {
	out := make([]model.Region, len(regions))
	if len(regions) == 0 {
		return out
	}

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, r := range regions {
		g.Go(func() error {
			out[i] = r.WithLocationName(a.Name(ctx, r.Latitude, r.Longitude))
			return nil
		})
	}
	// Name never fails; lookup errors are folded into the sentinel.
	g.Wait() //nolint:errcheck

	return out
}

// Name resolves one coordinate, returning the sentinel on any failure.
func (a *Annotator) Name(ctx context.Context, lat, lng float64) string {
	if a.reverser == nil {
		return a.sentinel
	}
	if math.IsNaN(lat) || math.IsNaN(lng) || !geocode.ValidCoordinates(lat, lng) {
		zap.L().Debug("annotate: malformed coordinates",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
		)
		return a.sentinel
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res, err := a.reverser.Reverse(callCtx, lat, lng)
	switch {
	case errors.Is(err, geocode.ErrNoResult):
		return a.sentinel
	case err != nil:
		zap.L().Warn("annotate: reverse geocode failed",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return a.sentinel
	case res == nil || strings.TrimSpace(res.Address) == "":
		return a.sentinel
	}
	return res.Address
}
