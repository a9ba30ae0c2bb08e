package providers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/i474232898/weather-dashboard/internal/metrics"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

func fakeUpstream(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, srv *httptest.Server) HTTPClientConfig {
	logger := zaptest.NewLogger(t)
	return HTTPClientConfig{
		Client:  NewRestyClient(srv.Client(), logger),
		Breaker: DefaultBreakerConfig(),
		Metrics: metrics.New(),
		Logger:  logger,
	}
}

var london = weather.Location{Name: "London", Country: "United Kingdom", Latitude: 51.5085, Longitude: -0.1257}

const hourlyForecast = `{
  "latitude": 51.5, "longitude": -0.12,
  "timezone": "Europe/London", "utc_offset_seconds": 3600,
  "hourly_units": {"time": "iso8601", "temperature_2m": "°C", "relative_humidity_2m": "%", "wind_speed_10m": "km/h"},
  "hourly": {
    "time": ["2024-06-01T00:00", "2024-06-01T01:00", "2024-06-01T02:00"],
    "temperature_2m": [12.5, null, 11.0],
    "relative_humidity_2m": [80, 82, 85],
    "wind_speed_10m": [10.1, 9.8, 9.0]
  }
}`

func TestOpenMeteoForecastParsesHourlyBlock(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, hourlyForecast, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("timezone") != "auto" {
			t.Errorf("expected timezone=auto, got %q", q.Get("timezone"))
		}
		if q.Get("hourly") != "temperature_2m,relative_humidity_2m,wind_speed_10m" {
			t.Errorf("unexpected hourly param %q", q.Get("hourly"))
		}
		if q.Has("daily") {
			t.Errorf("daily must not be requested")
		}
	})

	p := NewOpenMeteoProvider(srv.URL, testConfig(t, srv))
	fc, err := p.FetchForecast(context.Background(), weather.ForecastQuery{
		Location: london,
		Hourly:   weather.HourlyVariables,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.Daily != nil {
		t.Fatalf("expected no daily block")
	}
	if fc.Hourly.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", fc.Hourly.Len())
	}

	want := time.Date(2024, 5, 31, 23, 0, 0, 0, time.UTC)
	if !fc.Hourly.Timestamps[0].Equal(want) {
		t.Fatalf("expected first timestamp %v, got %v", want, fc.Hourly.Timestamps[0].UTC())
	}
	if fc.Hourly.At(weather.VarTemperature, 1) != nil {
		t.Fatalf("expected null to be preserved")
	}
	if got := *fc.Hourly.At(weather.VarTemperature, 0); got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}
	if fc.Hourly.Units[weather.VarTemperature] != "°C" {
		t.Fatalf("expected unit °C, got %q", fc.Hourly.Units[weather.VarTemperature])
	}
}

func TestOpenMeteoArchiveSendsDateRange(t *testing.T) {
	body := `{"timezone":"GMT","utc_offset_seconds":0,
	  "daily":{"time":["2024-05-25","2024-05-26"],
	    "temperature_2m_max":[18,19],"temperature_2m_min":[9,10],"precipitation_sum":[0,1.2]}}`
	srv := fakeUpstream(t, http.StatusOK, body, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("start_date") != "2024-05-25" || q.Get("end_date") != "2024-06-01" {
			t.Errorf("unexpected range %s..%s", q.Get("start_date"), q.Get("end_date"))
		}
	})

	p := NewOpenMeteoArchiveProvider(srv.URL, testConfig(t, srv))
	end := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	fc, err := p.FetchForecast(context.Background(), weather.ForecastQuery{
		Location: london,
		Daily:    weather.HistoricalVariables,
		Start:    end.AddDate(0, 0, -7),
		End:      end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.Daily.Len() != 2 {
		t.Fatalf("expected 2 days, got %d", fc.Daily.Len())
	}
}

func TestOpenMeteoMalformedBlocks(t *testing.T) {
	cases := map[string]string{
		"missing block":  `{"timezone":"GMT"}`,
		"missing time":   `{"hourly":{"temperature_2m":[1],"relative_humidity_2m":[1],"wind_speed_10m":[1]}}`,
		"missing series": `{"hourly":{"time":["2024-06-01T00:00"],"temperature_2m":[1],"relative_humidity_2m":[1]}}`,
		"length mismatch": `{"hourly":{"time":["2024-06-01T00:00","2024-06-01T01:00"],
		  "temperature_2m":[1],"relative_humidity_2m":[1,2],"wind_speed_10m":[1,2]}}`,
		"bad timestamp": `{"hourly":{"time":["yesterday"],"temperature_2m":[1],"relative_humidity_2m":[1],"wind_speed_10m":[1]}}`,
		"not json":      `<html>oops</html>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := fakeUpstream(t, http.StatusOK, body, nil)
			p := NewOpenMeteoProvider(srv.URL, testConfig(t, srv))
			_, err := p.FetchForecast(context.Background(), weather.ForecastQuery{Location: london, Hourly: weather.HourlyVariables})
			if !errors.Is(err, weather.ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestUpstreamStatusIsUpstreamError(t *testing.T) {
	srv := fakeUpstream(t, http.StatusBadRequest, `{"error":true,"reason":"Latitude must be in range of -90 to 90°"}`, nil)
	p := NewOpenMeteoProvider(srv.URL, testConfig(t, srv))

	_, err := p.FetchForecast(context.Background(), weather.ForecastQuery{Location: london, Daily: weather.DailyVariables})
	if !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "Latitude must be in range") {
		t.Fatalf("expected upstream reason in error, got %v", err)
	}
}

func TestRequestHonoursContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	p := NewAirQualityProvider(srv.URL, testConfig(t, srv))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.FetchSeries(ctx, london)
	if !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("request was not cancelled by the deadline")
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv)
	cfg.Breaker.Enabled = true
	cfg.Breaker.ConsecutiveFailures = 2
	p := NewFloodProvider(srv.URL, cfg)

	for i := 0; i < 2; i++ {
		if _, err := p.FetchSeries(context.Background(), london); !errors.Is(err, weather.ErrUpstream) {
			t.Fatalf("call %d: expected ErrUpstream, got %v", i, err)
		}
	}
	_, err := p.FetchSeries(context.Background(), london)
	if !errors.Is(err, weather.ErrUpstream) || !errors.Is(err, errCircuitOpen) {
		t.Fatalf("expected open circuit error, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected 2 upstream hits, got %d", got)
	}
}

func TestMarineInlandYieldsEmptyBundle(t *testing.T) {
	cases := map[string]string{
		"empty arrays": `{"timezone":"GMT","hourly":{"time":[],"wave_height":[],"wave_direction":[],"wave_period":[]}}`,
		"all null": `{"timezone":"GMT","hourly_units":{"wave_height":"m"},"hourly":{"time":["2024-06-01T00:00","2024-06-01T01:00"],
		  "wave_height":[null,null],"wave_direction":[null,null],"wave_period":[null,null]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := fakeUpstream(t, http.StatusOK, body, nil)
			p := NewMarineProvider(srv.URL, testConfig(t, srv))
			b, err := p.FetchSeries(context.Background(), weather.Location{Name: "Madrid", Latitude: 40.4, Longitude: -3.7})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if b == nil || b.Len() != 0 {
				t.Fatalf("expected empty non-nil bundle, got %+v", b)
			}
		})
	}
}

func TestAirQualityKeepsNullSamples(t *testing.T) {
	body := `{"timezone":"GMT","hourly":{"time":["2024-06-01T00:00"],
	  "pm10":[null],"pm2_5":[null],"carbon_monoxide":[null],"nitrogen_dioxide":[null],"sulphur_dioxide":[null],"ozone":[null]}}`
	srv := fakeUpstream(t, http.StatusOK, body, nil)
	p := NewAirQualityProvider(srv.URL, testConfig(t, srv))

	b, err := p.FetchSeries(context.Background(), london)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Len() != 1 {
		t.Fatalf("expected one sample, got %d", b.Len())
	}
}

func TestFloodRequestsDailyBlock(t *testing.T) {
	body := `{"timezone":"GMT","daily":{"time":["2024-06-01","2024-06-02"],
	  "river_discharge":[3.2,3.4],"river_discharge_mean":[3,3.1],"river_discharge_max":[4,4.2]}}`
	srv := fakeUpstream(t, http.StatusOK, body, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("daily") != "river_discharge,river_discharge_mean,river_discharge_max" {
			t.Errorf("unexpected daily param %q", q.Get("daily"))
		}
		if q.Get("forecast_days") != "7" {
			t.Errorf("expected forecast_days=7, got %q", q.Get("forecast_days"))
		}
	})
	p := NewFloodProvider(srv.URL, testConfig(t, srv))

	b, err := p.FetchSeries(context.Background(), london)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 days, got %d", b.Len())
	}
}

func TestGeocoderResults(t *testing.T) {
	body := `{"results":[
	  {"name":"London","country":"United Kingdom","admin1":"England","latitude":51.50853,"longitude":-0.12574,"timezone":"Europe/London"},
	  {"name":"London","country":"Canada","admin1":"Ontario","latitude":42.98339,"longitude":-81.23304}
	]}`
	srv := fakeUpstream(t, http.StatusOK, body, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("name") != "London" || q.Get("count") != "5" || q.Get("language") != "en" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
	})
	g := NewOpenMeteoGeocoder(srv.URL, testConfig(t, srv))

	locs, err := g.Search(context.Background(), "London", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(locs))
	}
	if locs[0].Country != "United Kingdom" || locs[0].State != "England" {
		t.Fatalf("unexpected top candidate %+v", locs[0])
	}
}

func TestGeocoderWithoutResultsKey(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, `{"generationtime_ms":0.4}`, nil)
	g := NewOpenMeteoGeocoder(srv.URL, testConfig(t, srv))

	locs, err := g.Search(context.Background(), "Xyzzyqqq", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 0 {
		t.Fatalf("expected no candidates, got %d", len(locs))
	}
}

func TestOpenWeatherCurrent(t *testing.T) {
	body := `{"dt":1717236000,"visibility":10000,
	  "main":{"temp":14.2,"feels_like":13.5,"humidity":72,"pressure":1012},
	  "wind":{"speed":4.1,"deg":230},
	  "weather":[{"main":"Clouds","description":"broken clouds","icon":"04n"}]}`
	srv := fakeUpstream(t, http.StatusOK, body, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("units") != "metric" || q.Get("appid") != "secret" || q.Get("lat") == "" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
	})
	p := NewOpenWeatherProvider(srv.URL, "secret", testConfig(t, srv))

	cur, err := p.FetchCurrent(context.Background(), london)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur.TemperatureC != 14.2 || cur.Condition != weather.ConditionCloudy || !cur.IsNight {
		t.Fatalf("unexpected conditions %+v", cur)
	}
	if cur.PrecipitationMM == nil || *cur.PrecipitationMM != 0 {
		t.Fatalf("expected dry precipitation of 0")
	}
	if !cur.ObservedAt.Equal(time.Unix(1717236000, 0)) {
		t.Fatalf("unexpected observation time %v", cur.ObservedAt)
	}
}

func TestOpenWeatherWithoutKey(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	t.Cleanup(srv.Close)

	p := NewOpenWeatherProvider(srv.URL, "", testConfig(t, srv))
	if _, err := p.FetchCurrent(context.Background(), london); !errors.Is(err, weather.ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
	if hits != 0 {
		t.Fatalf("expected no upstream call")
	}
}

func TestOpenWeatherMissingTemperature(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, `{"main":{"humidity":50}}`, nil)
	p := NewOpenWeatherProvider(srv.URL, "secret", testConfig(t, srv))
	if _, err := p.FetchCurrent(context.Background(), london); !errors.Is(err, weather.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestWeatherstackCurrent(t *testing.T) {
	body := `{"location":{"localtime_epoch":1717236000},
	  "current":{"temperature":20,"feelslike":19,"humidity":60,"wind_speed":36,"wind_degree":90,
	    "pressure":1015,"precip":0.2,"visibility":10,"is_day":"yes",
	    "weather_descriptions":["Light Rain Shower"],"weather_icons":["https://example.com/rain.png"]}}`
	srv := fakeUpstream(t, http.StatusOK, body, func(r *http.Request) {
		if !strings.Contains(r.URL.Query().Get("query"), ",") {
			t.Errorf("expected lat,lon query, got %q", r.URL.Query().Get("query"))
		}
	})
	p := NewWeatherstackProvider(srv.URL, "key", testConfig(t, srv))

	cur, err := p.FetchCurrent(context.Background(), london)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(cur.WindSpeedMS-10) > 1e-9 {
		t.Fatalf("expected 36 km/h to become 10 m/s, got %v", cur.WindSpeedMS)
	}
	if cur.Condition != weather.ConditionRain || cur.IsNight {
		t.Fatalf("unexpected condition %+v", cur)
	}
	if cur.VisibilityM == nil || *cur.VisibilityM != 10000 {
		t.Fatalf("expected visibility in metres")
	}
}

func TestWeatherstackFailureOnOK(t *testing.T) {
	body := `{"success":false,"error":{"code":101,"type":"invalid_access_key","info":"You have not supplied a valid API Access Key."}}`
	srv := fakeUpstream(t, http.StatusOK, body, nil)
	p := NewWeatherstackProvider(srv.URL, "bad", testConfig(t, srv))

	_, err := p.FetchCurrent(context.Background(), london)
	if !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "valid API Access Key") {
		t.Fatalf("expected upstream info in error, got %v", err)
	}
}

func TestGoogleGeocoderResults(t *testing.T) {
	body := `{"status":"OK","results":[{
	  "formatted_address":"London, UK",
	  "geometry":{"location":{"lat":51.5072178,"lng":-0.1275862}},
	  "address_components":[
	    {"long_name":"London","short_name":"London","types":["locality","political"]},
	    {"long_name":"England","short_name":"England","types":["administrative_area_level_1","political"]},
	    {"long_name":"United Kingdom","short_name":"GB","types":["country","political"]}
	  ],
	  "types":["locality","political"]
	}]}`
	srv := fakeUpstream(t, http.StatusOK, body, func(r *http.Request) {
		q := r.URL.Query()
		if q.Get("address") != "London" || q.Get("key") != "test-key" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
	})
	g := NewGoogleGeocoder(srv.URL, "test-key", testConfig(t, srv))

	locs, err := g.Search(context.Background(), "London", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(locs))
	}
	got := locs[0]
	if got.Name != "London" || got.State != "England" || got.Country != "United Kingdom" {
		t.Fatalf("unexpected candidate %+v", got)
	}
	if math.Abs(got.Latitude-51.5072178) > 1e-9 || math.Abs(got.Longitude+0.1275862) > 1e-9 {
		t.Fatalf("unexpected coordinates %+v", got)
	}
}

func TestGoogleGeocoderZeroResultsIsNotFound(t *testing.T) {
	srv := fakeUpstream(t, http.StatusOK, `{"results":[],"status":"ZERO_RESULTS"}`, nil)
	g := NewGoogleGeocoder(srv.URL, "test-key", testConfig(t, srv))

	locs, err := g.Search(context.Background(), "Xyzabc123", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(locs) != 0 {
		t.Fatalf("expected no candidates, got %d", len(locs))
	}

	svc := weather.NewService(g, nil, nil, zaptest.NewLogger(t))
	_, err = svc.Resolve(context.Background(), "Xyzabc123")
	if !errors.Is(err, weather.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("zero results must not be an upstream error: %v", err)
	}
}

func TestGoogleGeocoderDeniedIsUpstreamError(t *testing.T) {
	body := `{"results":[],"status":"REQUEST_DENIED","error_message":"The provided API key is invalid."}`
	srv := fakeUpstream(t, http.StatusOK, body, nil)
	g := NewGoogleGeocoder(srv.URL, "bad-key", testConfig(t, srv))

	_, err := g.Search(context.Background(), "London", 5)
	if !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "API key is invalid") {
		t.Fatalf("expected upstream message in %q", err)
	}
}

func TestGoogleGeocoderHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	g := NewGoogleGeocoder(srv.URL, "test-key", testConfig(t, srv))

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		start := time.Now()
		_, err := g.Search(ctx, "London", 5)
		cancel()
		if !errors.Is(err, weather.ErrUpstream) {
			t.Fatalf("call %d: expected ErrUpstream, got %v", i, err)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Fatalf("call %d: lookup blocked for %s", i, elapsed)
		}
	}
}

func TestGoogleGeocoderWithoutKey(t *testing.T) {
	g := NewGoogleGeocoder("http://127.0.0.1:0", "", HTTPClientConfig{})
	_, err := g.Search(context.Background(), "London", 5)
	if !errors.Is(err, weather.ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}
