package providers

import (
	"context"
	"net/url"
	"strconv"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

// OpenMeteoGeocoder implements weather.Geocoder with the Open-Meteo search API.
type OpenMeteoGeocoder struct {
	name    string
	baseURL string
	req     *requester
}

func NewOpenMeteoGeocoder(baseURL string, cfg HTTPClientConfig) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}
	return &OpenMeteoGeocoder{
		name:    "geocoding",
		baseURL: baseURL,
		req:     newRequester("geocoding", cfg),
	}
}

func (g *OpenMeteoGeocoder) Name() string {
	return g.name
}

// Search returns candidates in upstream rank order. A response without a
// results key is a valid "no match".
func (g *OpenMeteoGeocoder) Search(ctx context.Context, query string, limit int) ([]weather.Location, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", strconv.Itoa(limit))
	values.Set("language", "en")
	values.Set("format", "json")

	var payload struct {
		Results []struct {
			Name      string   `json:"name"`
			Country   string   `json:"country"`
			Admin1    string   `json:"admin1"`
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
			Timezone  string   `json:"timezone"`
		} `json:"results"`
	}
	if err := g.req.getJSON(ctx, g.baseURL, values, &payload); err != nil {
		return nil, err
	}

	locs := make([]weather.Location, 0, len(payload.Results))
	for i, r := range payload.Results {
		if r.Latitude == nil || r.Longitude == nil {
			return nil, g.req.malformed("result %d has no coordinates", i)
		}
		locs = append(locs, weather.Location{
			Name:      r.Name,
			Country:   r.Country,
			State:     r.Admin1,
			Latitude:  *r.Latitude,
			Longitude: *r.Longitude,
			Timezone:  r.Timezone,
		})
	}
	return locs, nil
}
