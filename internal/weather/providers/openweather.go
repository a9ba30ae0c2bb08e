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

const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeatherProvider implements weather.CurrentProvider for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	req     *requester
}

func NewOpenWeatherProvider(baseURL, apiKey string, cfg HTTPClientConfig) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: baseURL,
		req:     newRequester("openweathermap", cfg),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchCurrent(ctx context.Context, loc weather.Location) (weather.CurrentConditions, error) {
	if p.apiKey == "" {
		return weather.CurrentConditions{}, fmt.Errorf("%w: openweathermap api key", weather.ErrProviderNotConfigured)
	}

	values := url.Values{}
	values.Set("lat", coord(loc.Latitude))
	values.Set("lon", coord(loc.Longitude))
	values.Set("units", "metric")
	values.Set("appid", p.apiKey)

	var payload struct {
		Dt         int64    `json:"dt"`
		Visibility *float64 `json:"visibility"`
		Main       *struct {
			Temp      *float64 `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  *float64 `json:"humidity"`
			Pressure  *float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
			Deg   float64 `json:"deg"`
		} `json:"wind"`
		Rain struct {
			OneH   *float64 `json:"1h"`
			ThreeH *float64 `json:"3h"`
		} `json:"rain"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	}
	if err := p.req.getJSON(ctx, p.baseURL, values, &payload); err != nil {
		return weather.CurrentConditions{}, err
	}
	if payload.Main == nil || payload.Main.Temp == nil {
		return weather.CurrentConditions{}, p.req.malformed("main.temp missing")
	}

	ts := time.Now().UTC()
	if payload.Dt > 0 {
		ts = time.Unix(payload.Dt, 0).UTC()
	}

	// OpenWeatherMap omits the rain object when it is dry.
	precip := common.Ptr(0.0)
	switch {
	case payload.Rain.OneH != nil:
		precip = payload.Rain.OneH
	case payload.Rain.ThreeH != nil:
		precip = payload.Rain.ThreeH
	}

	cur := weather.CurrentConditions{
		Provider:         p.name,
		ObservedAt:       ts,
		TemperatureC:     *payload.Main.Temp,
		FeelsLikeC:       payload.Main.FeelsLike,
		WindSpeedMS:      payload.Wind.Speed,
		WindDirectionDeg: payload.Wind.Deg,
		HumidityPct:      payload.Main.Humidity,
		PrecipitationMM:  precip,
		PressureHPa:      payload.Main.Pressure,
		VisibilityM:      payload.Visibility,
		Condition:        weather.ConditionUnknown,
	}
	if len(payload.Weather) > 0 {
		w := payload.Weather[0]
		cur.Condition = weather.ConditionFromOpenWeather(w.Main)
		cur.Description = w.Description
		cur.Icon = w.Icon
		cur.IsNight = strings.HasSuffix(w.Icon, "n")
	}
	return cur, nil
}
