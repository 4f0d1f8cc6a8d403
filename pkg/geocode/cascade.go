package geocode

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Lookup outcomes reported to a LookupObserver.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// LookupObserver receives one event per provider attempt.
type LookupObserver interface {
	ObserveLookup(provider, outcome string)
}

type cascadeEntry struct {
	provider Provider
	breaker  *Breaker
}

// CascadeClient tries providers in order until one returns an address.
// Each provider sits behind its own circuit breaker.
type CascadeClient struct {
	entries  []cascadeEntry
	observer LookupObserver
}

// NewCascadeClient creates a cascade over providers, each guarded by a breaker
// built from cfg. observer may be nil.
func NewCascadeClient(cfg BreakerConfig, observer LookupObserver, providers ...Provider) *CascadeClient {
	c := &CascadeClient{observer: observer}
	for _, p := range providers {
		c.entries = append(c.entries, cascadeEntry{provider: p, breaker: NewBreaker(cfg)})
	}
	return c
}

// Name implements Provider.
func (c *CascadeClient) Name() string { return "cascade" }

// Reverse returns the first provider answer. ErrNoResult is returned when
// every provider answered with no result; otherwise the last provider error.
func (c *CascadeClient) Reverse(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	if len(c.entries) == 0 {
		return nil, eris.New("geocode: no providers configured")
	}
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}

	var lastErr error
	for _, e := range c.entries {
		name := e.provider.Name()
		if err := e.breaker.Allow(); err != nil {
			c.observe(name, OutcomeRejected)
			lastErr = err
			continue
		}

		res, err := e.provider.Reverse(ctx, lat, lng)
		e.breaker.Record(err)

		switch {
		case err == nil:
			c.observe(name, OutcomeHit)
			return res, nil
		case errors.Is(err, ErrNoResult):
			c.observe(name, OutcomeMiss)
			if lastErr == nil {
				lastErr = err
			}
		default:
			c.observe(name, OutcomeError)
			zap.L().Debug("geocode: provider failed",
				zap.String("provider", name),
				zap.Error(err),
			)
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "geocode: cascade")
		}
	}
	return nil, lastErr
}

func (c *CascadeClient) observe(provider, outcome string) {
	if c.observer != nil {
		c.observer.ObserveLookup(provider, outcome)
	}
}
