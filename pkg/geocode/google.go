package geocode

import (
	"context"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocodeResponse is the JSON response from the Google Geocoding API.
type googleGeocodeResponse struct {
	Results      []googleResult `json:"results"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
}

type googleResult struct {
	FormattedAddress  string `json:"formatted_address"`
	AddressComponents []struct {
		LongName  string   `json:"long_name"`
		ShortName string   `json:"short_name"`
		Types     []string `json:"types"`
	} `json:"address_components"`
}

// component returns the short name of the first component tagged typ.
func (r googleResult) component(typ string) string {
	for _, c := range r.AddressComponents {
		for _, t := range c.Types {
			if t == typ {
				return c.ShortName
			}
		}
	}
	return ""
}

// GoogleProvider reverse geocodes with the Google Geocoding API.
type GoogleProvider struct {
	httpProvider
	key string
}

// NewGoogleProvider creates a Google provider. The default rate limit is 50
// requests per second.
func NewGoogleProvider(key string, opts ...Option) *GoogleProvider {
	return &GoogleProvider{
		httpProvider: newHTTPProvider("google", googleGeocodeURL, 50, opts),
		key:          key,
	}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// Reverse implements Reverser.
func (p *GoogleProvider) Reverse(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	if p.key == "" {
		return nil, eris.New("geocode: google api key not configured")
	}
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}

	params := url.Values{
		"latlng": {strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)},
		"key":    {p.key},
	}

	var resp googleGeocodeResponse
	if err := p.getJSON(ctx, p.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	switch resp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, ErrNoResult
	default:
		return nil, eris.Errorf("geocode: google status %s: %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return nil, ErrNoResult
	}

	top := resp.Results[0]
	return &ReverseResult{
		Address:    top.FormattedAddress,
		City:       top.component("locality"),
		State:      top.component("administrative_area_level_1"),
		PostalCode: top.component("postal_code"),
		Country:    top.component("country"),
		Source:     p.Name(),
	}, nil
}
