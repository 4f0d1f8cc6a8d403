// Package geocode resolves coordinates to human-readable addresses via
// Nominatim, Google and PostGIS TIGER providers, with a cascade client, a
// per-provider circuit breaker and an optional SQLite lookup cache.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// ErrNoResult is returned when a provider has no address for a coordinate.
var ErrNoResult = eris.New("geocode: no result")

// ErrInvalidCoordinates is returned for latitudes or longitudes outside the
// geographic range.
var ErrInvalidCoordinates = eris.New("geocode: invalid coordinates")

// Reverser converts a coordinate to an address.
type Reverser interface {
	Reverse(ctx context.Context, lat, lng float64) (*ReverseResult, error)
}

// Provider is a named reverse geocoding backend.
type Provider interface {
	Reverser
	Name() string
}

// ValidCoordinates reports whether lat/lng lie in the geographic range.
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Option configures an HTTP-backed provider.
type Option func(*httpProvider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *httpProvider) {
		p.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit.
func WithRateLimit(rps float64) Option {
	return func(p *httpProvider) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(u string) Option {
	return func(p *httpProvider) {
		if u != "" {
			p.baseURL = u
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(p *httpProvider) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// httpProvider holds the transport shared by the HTTP providers.
type httpProvider struct {
	name       string
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
}

func newHTTPProvider(name, baseURL string, rps float64, opts []Option) httpProvider {
	p := httpProvider{
		name:       name,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		userAgent:  "network-planner/1.0",
		limiter:    rate.NewLimiter(rate.Limit(rps), max(1, int(rps))),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// getJSON performs a rate-limited GET and decodes the JSON body into out.
func (p *httpProvider) getJSON(ctx context.Context, reqURL string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return eris.Wrapf(err, "geocode: %s rate limit", p.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s build request", p.name)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// The request URL may carry an API key; keep only the cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return eris.Wrapf(err, "geocode: %s request", p.name)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("geocode: %s returned status %d", p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "geocode: %s read body", p.name)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "geocode: %s parse response", p.name)
	}
	return nil
}
