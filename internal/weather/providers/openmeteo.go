package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultArchiveURL  = "https://archive-api.open-meteo.com/v1/archive"

	hourlyLayout = "2006-01-02T15:04"
	dailyLayout  = "2006-01-02"
)

// OpenMeteoProvider implements weather.ForecastProvider for the Open-Meteo
// forecast and archive endpoints, which share one response shape.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	req     *requester
}

// NewOpenMeteoProvider creates a forecast client.
func NewOpenMeteoProvider(baseURL string, cfg HTTPClientConfig) *OpenMeteoProvider {
	return newOpenMeteo("openmeteo", baseURL, DefaultForecastURL, cfg)
}

// NewOpenMeteoArchiveProvider creates a client for the historical archive.
func NewOpenMeteoArchiveProvider(baseURL string, cfg HTTPClientConfig) *OpenMeteoProvider {
	return newOpenMeteo("openmeteo-archive", baseURL, DefaultArchiveURL, cfg)
}

func newOpenMeteo(name, baseURL, fallback string, cfg HTTPClientConfig) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = fallback
	}
	return &OpenMeteoProvider{
		name:    name,
		baseURL: baseURL,
		req:     newRequester(name, cfg),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, q weather.ForecastQuery) (weather.Forecast, error) {
	if len(q.Hourly) == 0 && len(q.Daily) == 0 {
		return weather.Forecast{}, fmt.Errorf("%w: no variables requested", weather.ErrInvalidQuery)
	}

	values := locationParams(q.Location)
	if len(q.Hourly) > 0 {
		values.Set("hourly", joinVariables(q.Hourly))
	}
	if len(q.Daily) > 0 {
		values.Set("daily", joinVariables(q.Daily))
	}
	if q.PastDays > 0 {
		values.Set("past_days", strconv.Itoa(q.PastDays))
	}
	if !q.Start.IsZero() && !q.End.IsZero() {
		values.Set("start_date", q.Start.Format(dailyLayout))
		values.Set("end_date", q.End.Format(dailyLayout))
	}

	var payload openMeteoPayload
	if err := p.req.getJSON(ctx, p.baseURL, values, &payload); err != nil {
		return weather.Forecast{}, err
	}

	var (
		fc  weather.Forecast
		err error
	)
	zone := payload.zone()
	if len(q.Hourly) > 0 {
		fc.Hourly, err = parseBlock(payload.Hourly, payload.HourlyUnits, q.Hourly, hourlyLayout, zone)
		if err != nil {
			return weather.Forecast{}, p.req.malformed("hourly: %v", err)
		}
	}
	if len(q.Daily) > 0 {
		fc.Daily, err = parseBlock(payload.Daily, payload.DailyUnits, q.Daily, dailyLayout, zone)
		if err != nil {
			return weather.Forecast{}, p.req.malformed("daily: %v", err)
		}
	}
	return fc, nil
}

// openMeteoPayload is the envelope shared by every Open-Meteo API. Blocks are
// kept raw because their keys depend on the requested variables.
type openMeteoPayload struct {
	Latitude         float64                    `json:"latitude"`
	Longitude        float64                    `json:"longitude"`
	Timezone         string                     `json:"timezone"`
	UTCOffsetSeconds int                        `json:"utc_offset_seconds"`
	Hourly           map[string]json.RawMessage `json:"hourly"`
	HourlyUnits      map[string]string          `json:"hourly_units"`
	Daily            map[string]json.RawMessage `json:"daily"`
	DailyUnits       map[string]string          `json:"daily_units"`
}

// zone returns the location the local timestamps of the payload are in.
func (p openMeteoPayload) zone() *time.Location {
	name := p.Timezone
	if name == "" {
		name = "UTC"
	}
	return time.FixedZone(name, p.UTCOffsetSeconds)
}

// parseBlock turns one {time: [...], var: [...]} block into a validated
// bundle. A missing block, time axis or requested series is malformed.
func parseBlock(raw map[string]json.RawMessage, units map[string]string, vars []weather.Variable, layout string, zone *time.Location) (*weather.Bundle, error) {
	if raw == nil {
		return nil, fmt.Errorf("block missing")
	}
	rawTimes, ok := raw["time"]
	if !ok {
		return nil, fmt.Errorf("time axis missing")
	}
	var stamps []string
	if err := json.Unmarshal(rawTimes, &stamps); err != nil {
		return nil, fmt.Errorf("decode time axis: %w", err)
	}

	b := weather.NewBundle()
	b.Timestamps = make([]time.Time, 0, len(stamps))
	for _, s := range stamps {
		ts, err := time.ParseInLocation(layout, s, zone)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp %q: %w", s, err)
		}
		b.Timestamps = append(b.Timestamps, ts)
	}

	for _, v := range vars {
		rawCol, ok := raw[string(v)]
		if !ok {
			return nil, fmt.Errorf("series %q missing", v)
		}
		var col []*float64
		if err := json.Unmarshal(rawCol, &col); err != nil {
			return nil, fmt.Errorf("decode series %q: %w", v, err)
		}
		b.Values[v] = col
		if u, ok := units[string(v)]; ok {
			b.Units[v] = u
		}
	}

	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func locationParams(loc weather.Location) url.Values {
	values := url.Values{}
	values.Set("latitude", coord(loc.Latitude))
	values.Set("longitude", coord(loc.Longitude))
	values.Set("timezone", "auto")
	return values
}

func joinVariables(vars []weather.Variable) string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = string(v)
	}
	return strings.Join(names, ",")
}
