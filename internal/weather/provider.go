package weather

import (
	"context"
	"time"
)

// Geocoder resolves free text to candidate locations, best match first.
type Geocoder interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Location, error)
}

// CurrentProvider supplies instantaneous conditions (OpenWeatherMap, Weatherstack).
type CurrentProvider interface {
	Name() string
	FetchCurrent(ctx context.Context, loc Location) (CurrentConditions, error)
}

// ForecastQuery selects the variables and date range of a forecast or
// archive request. Start/End are used only when both are set.
type ForecastQuery struct {
	Location Location
	Hourly   []Variable
	Daily    []Variable
	PastDays int
	Start    time.Time
	End      time.Time
}

// Forecast holds the parsed series of a forecast or archive response. A block
// that was not requested is nil.
type Forecast struct {
	Hourly *Bundle
	Daily  *Bundle
}

// ForecastProvider abstracts the Open-Meteo forecast and archive endpoints.
type ForecastProvider interface {
	Name() string
	FetchForecast(ctx context.Context, q ForecastQuery) (Forecast, error)
}

// SeriesProvider supplies a single bundle for a location (marine, air
// quality, flood). An empty bundle is a valid "no data here" answer.
type SeriesProvider interface {
	Name() string
	FetchSeries(ctx context.Context, loc Location) (*Bundle, error)
}

// Store is the contract for snapshot history (in-memory or persistent).
type Store interface {
	SaveSnapshot(loc Location, snapshot Snapshot) error
	GetLatest(loc Location) (Snapshot, error)
	GetRange(loc Location, from, to time.Time) ([]Snapshot, error)
}
