package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kelvins/geocoder"
	"github.com/kelvins/geocoder/structs"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultGoogleGeocodingURL is the geocoder library's endpoint without its
// trailing query separator.
var DefaultGoogleGeocodingURL = strings.TrimSuffix(geocoder.ApiUrl, "?")

// GoogleGeocoder implements weather.Geocoder on the Google Geocoding API. The
// request goes through the shared requester so it honours ctx, the HTTP
// timeout and the breaker; the library supplies the address formatting and
// the response types.
type GoogleGeocoder struct {
	name    string
	baseURL string
	apiKey  string
	req     *requester
}

func NewGoogleGeocoder(baseURL, apiKey string, cfg HTTPClientConfig) *GoogleGeocoder {
	if baseURL == "" {
		baseURL = DefaultGoogleGeocodingURL
	}
	return &GoogleGeocoder{
		name:    "google",
		baseURL: baseURL,
		apiKey:  apiKey,
		req:     newRequester("google", cfg),
	}
}

func (g *GoogleGeocoder) Name() string {
	return g.name
}

// Search returns up to limit candidates. ZERO_RESULTS is a valid "no match";
// every other non-OK status is an upstream failure.
func (g *GoogleGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.Location, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("%w: google geocoder api key", weather.ErrProviderNotConfigured)
	}

	addr := geocoder.Address{City: query}
	values := url.Values{}
	values.Set("address", addr.FormatAddress())
	values.Set("key", g.apiKey)

	var payload structs.Results
	if err := g.req.getJSON(ctx, g.baseURL, values, &payload); err != nil {
		return nil, err
	}

	switch strings.ToUpper(payload.Status) {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		msg := payload.ErrorMessage
		if msg == "" {
			msg = "status " + payload.Status
		}
		return nil, fmt.Errorf("%w: %s: %s", weather.ErrUpstream, g.name, msg)
	}

	results := payload.Results
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	locs := make([]weather.Location, 0, len(results))
	for _, r := range results {
		loc := weather.Location{
			Name:      query,
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
		}
		for _, c := range r.AddressComponents {
			for _, typ := range c.Types {
				switch typ {
				case "locality", "administrative_area_level_3":
					loc.Name = c.LongName
				case "administrative_area_level_1":
					loc.State = c.LongName
				case "country":
					loc.Country = c.LongName
				}
			}
		}
		locs = append(locs, loc)
	}
	return locs, nil
}
