package providers

import (
	"context"
	"strconv"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultMarineURL     = "https://marine-api.open-meteo.com/v1/marine"
	DefaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
	DefaultFloodURL      = "https://flood-api.open-meteo.com/v1/flood"
)

// SeriesProvider implements weather.SeriesProvider for the single-block
// Open-Meteo APIs (marine, air quality, flood).
type SeriesProvider struct {
	name    string
	baseURL string
	block   string
	vars    []weather.Variable
	days    int
	// emptyWhenAllNull treats a block without a single value as "no data
	// for this location" instead of a populated series of nulls.
	emptyWhenAllNull bool
	req              *requester
}

// NewMarineProvider fetches hourly wave data. Inland points yield an empty bundle.
func NewMarineProvider(baseURL string, cfg HTTPClientConfig) *SeriesProvider {
	if baseURL == "" {
		baseURL = DefaultMarineURL
	}
	return &SeriesProvider{
		name:             "marine",
		baseURL:          baseURL,
		block:            "hourly",
		vars:             weather.MarineVariables,
		emptyWhenAllNull: true,
		req:              newRequester("marine", cfg),
	}
}

// NewAirQualityProvider fetches hourly pollutant concentrations.
func NewAirQualityProvider(baseURL string, cfg HTTPClientConfig) *SeriesProvider {
	if baseURL == "" {
		baseURL = DefaultAirQualityURL
	}
	return &SeriesProvider{
		name:    "airquality",
		baseURL: baseURL,
		block:   "hourly",
		vars:    weather.AirQualityVariables,
		req:     newRequester("airquality", cfg),
	}
}

// NewFloodProvider fetches daily river discharge. Points away from a modelled
// river yield an empty bundle.
func NewFloodProvider(baseURL string, cfg HTTPClientConfig) *SeriesProvider {
	if baseURL == "" {
		baseURL = DefaultFloodURL
	}
	return &SeriesProvider{
		name:             "flood",
		baseURL:          baseURL,
		block:            "daily",
		vars:             weather.FloodVariables,
		days:             7,
		emptyWhenAllNull: true,
		req:              newRequester("flood", cfg),
	}
}

func (p *SeriesProvider) Name() string {
	return p.name
}

func (p *SeriesProvider) FetchSeries(ctx context.Context, loc weather.Location) (*weather.Bundle, error) {
	values := locationParams(loc)
	values.Set(p.block, joinVariables(p.vars))
	if p.days > 0 {
		values.Set("past_days", "1")
		values.Set("forecast_days", strconv.Itoa(p.days))
	}

	var payload openMeteoPayload
	if err := p.req.getJSON(ctx, p.baseURL, values, &payload); err != nil {
		return nil, err
	}

	raw, units, layout := payload.Hourly, payload.HourlyUnits, hourlyLayout
	if p.block == "daily" {
		raw, units, layout = payload.Daily, payload.DailyUnits, dailyLayout
	}

	b, err := parseBlock(raw, units, p.vars, layout, payload.zone())
	if err != nil {
		return nil, p.req.malformed("%s: %v", p.block, err)
	}
	if p.emptyWhenAllNull && (b.Len() == 0 || b.AllNull()) {
		empty := weather.NewBundle()
		for v, u := range b.Units {
			empty.Units[v] = u
		}
		return empty, nil
	}
	return b, nil
}
