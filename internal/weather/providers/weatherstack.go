package providers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

const DefaultWeatherstackURL = "http://api.weatherstack.com/current"

// WeatherstackProvider implements weather.CurrentProvider for Weatherstack.
type WeatherstackProvider struct {
	name    string
	apiKey  string
	baseURL string
	req     *requester
}

func NewWeatherstackProvider(baseURL, apiKey string, cfg HTTPClientConfig) *WeatherstackProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherstackURL
	}
	return &WeatherstackProvider{
		name:    "weatherstack",
		apiKey:  apiKey,
		baseURL: baseURL,
		req:     newRequester("weatherstack", cfg),
	}
}

func (p *WeatherstackProvider) Name() string {
	return p.name
}

func (p *WeatherstackProvider) FetchCurrent(ctx context.Context, loc weather.Location) (weather.CurrentConditions, error) {
	if p.apiKey == "" {
		return weather.CurrentConditions{}, fmt.Errorf("%w: weatherstack api key", weather.ErrProviderNotConfigured)
	}

	values := url.Values{}
	values.Set("access_key", p.apiKey)
	values.Set("query", fmt.Sprintf("%s,%s", coord(loc.Latitude), coord(loc.Longitude)))
	values.Set("units", "m")

	var payload struct {
		// Weatherstack reports failures with HTTP 200 and success=false.
		Success *bool `json:"success"`
		Error   *struct {
			Code int    `json:"code"`
			Type string `json:"type"`
			Info string `json:"info"`
		} `json:"error"`
		Location struct {
			LocaltimeEpoch int64 `json:"localtime_epoch"`
		} `json:"location"`
		Current *struct {
			Temperature         *float64 `json:"temperature"`
			FeelsLike           *float64 `json:"feelslike"`
			Humidity            *float64 `json:"humidity"`
			WindSpeed           float64  `json:"wind_speed"`
			WindDegree          float64  `json:"wind_degree"`
			Pressure            *float64 `json:"pressure"`
			Precip              *float64 `json:"precip"`
			Visibility          *float64 `json:"visibility"`
			WeatherDescriptions []string `json:"weather_descriptions"`
			WeatherIcons        []string `json:"weather_icons"`
			IsDay               string   `json:"is_day"`
		} `json:"current"`
	}
	if err := p.req.getJSON(ctx, p.baseURL, values, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}
	if payload.Success != nil && !*payload.Success {
		info := "request rejected"
		if payload.Error != nil && payload.Error.Info != "" {
			info = payload.Error.Info
		}
		return weather.CurrentConditions{}, fmt.Errorf("%w: %s: %s", weather.ErrUpstream, p.name, info)
	}
	if payload.Current == nil || payload.Current.Temperature == nil {
		return weather.CurrentConditions{}, p.req.malformed("current.temperature missing")
	}
	c := payload.Current

	ts := time.Now().UTC()
	if payload.Location.LocaltimeEpoch > 0 {
		ts = time.Unix(payload.Location.LocaltimeEpoch, 0).UTC()
	}

	var visibility *float64
	if c.Visibility != nil {
		visibility = common.Ptr(*c.Visibility * 1000)
	}

	cur := weather.CurrentConditions{
		Provider:         p.name,
		ObservedAt:       ts,
		TemperatureC:     *c.Temperature,
		FeelsLikeC:       c.FeelsLike,
		WindSpeedMS:      c.WindSpeed / 3.6,
		WindDirectionDeg: c.WindDegree,
		HumidityPct:      c.Humidity,
		PrecipitationMM:  c.Precip,
		PressureHPa:      c.Pressure,
		VisibilityM:      visibility,
		IsNight:          strings.EqualFold(c.IsDay, "no"),
		Condition:        weather.ConditionUnknown,
	}
	if len(c.WeatherDescriptions) > 0 {
		cur.Description = c.WeatherDescriptions[0]
		cur.Condition = weather.ConditionFromText(cur.Description)
	}
	if len(c.WeatherIcons) > 0 {
		cur.Icon = c.WeatherIcons[0]
	}
	return cur, nil
}
