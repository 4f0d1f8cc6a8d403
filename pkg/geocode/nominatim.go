package geocode

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		Hamlet   string `json:"hamlet"`
		County   string `json:"county"`
		State    string `json:"state"`
		Postcode string `json:"postcode"`
		Country  string `json:"country_code"`
	} `json:"address"`
}

// locality picks the most specific populated place name.
func (r nominatimResponse) locality() string {
	for _, s := range []string{r.Address.City, r.Address.Town, r.Address.Village, r.Address.Hamlet, r.Address.County} {
		if s != "" {
			return s
		}
	}
	return ""
}

// NominatimProvider reverse geocodes with an OpenStreetMap Nominatim server.
// The public instance allows one request per second and requires an
// identifying User-Agent.
type NominatimProvider struct {
	httpProvider
}

// NewNominatimProvider creates a Nominatim provider limited to 1 req/s by default.
func NewNominatimProvider(opts ...Option) *NominatimProvider {
	return &NominatimProvider{
		httpProvider: newHTTPProvider("nominatim", nominatimBaseURL, 1, opts),
	}
}

// Name implements Provider.
func (p *NominatimProvider) Name() string { return "nominatim" }

// Reverse implements Reverser.
func (p *NominatimProvider) Reverse(ctx context.Context, lat, lng float64) (*ReverseResult, error) {
	if !ValidCoordinates(lat, lng) {
		return nil, ErrInvalidCoordinates
	}

	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lng, 'f', -1, 64)},
		"addressdetails": {"1"},
	}
	reqURL := strings.TrimRight(p.baseURL, "/") + "/reverse?" + params.Encode()

	var resp nominatimResponse
	if err := p.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		if strings.Contains(strings.ToLower(resp.Error), "unable to geocode") {
			return nil, ErrNoResult
		}
		return nil, eris.Errorf("geocode: nominatim: %s", resp.Error)
	}
	if resp.DisplayName == "" {
		return nil, ErrNoResult
	}

	return &ReverseResult{
		Address:    resp.DisplayName,
		City:       resp.locality(),
		State:      resp.Address.State,
		PostalCode: resp.Address.Postcode,
		Country:    strings.ToUpper(resp.Address.Country),
		Source:     p.Name(),
	}, nil
}
