package weather

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Location is a resolved place. It is immutable once produced by a Geocoder.
type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	State     string  `json:"state,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone,omitempty"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return fmt.Sprintf("%.4f,%.4f", l.Latitude, l.Longitude)
}

// CurrentConditions is an instantaneous observation. Pointer fields are
// optional: not every provider reports them.
type CurrentConditions struct {
	Provider         string    `json:"provider"`
	ObservedAt       time.Time `json:"observedAt"`
	TemperatureC     float64   `json:"temperatureC"`
	FeelsLikeC       *float64  `json:"feelsLikeC,omitempty"`
	WindSpeedMS      float64   `json:"windSpeedMs"`
	WindDirectionDeg float64   `json:"windDirectionDeg"`
	HumidityPct      *float64  `json:"humidityPct,omitempty"`
	PrecipitationMM  *float64  `json:"precipitationMm,omitempty"`
	PressureHPa      *float64  `json:"pressureHpa,omitempty"`
	VisibilityM      *float64  `json:"visibilityM,omitempty"`
	Condition        Condition `json:"condition"`
	Description      string    `json:"description,omitempty"`
	Icon             string    `json:"icon,omitempty"`
	IsNight          bool      `json:"isNight"`
}

// SectionKind names one independently fetched part of a Snapshot.
type SectionKind string

const (
	SectionCurrent    SectionKind = "current"
	SectionHourly     SectionKind = "hourly"
	SectionDaily      SectionKind = "daily"
	SectionMarine     SectionKind = "marine"
	SectionAirQuality SectionKind = "air_quality"
	SectionFlood      SectionKind = "flood"
	SectionHistorical SectionKind = "historical"
)

// DefaultSections is what a dashboard search requests. Historical data is opt-in.
var DefaultSections = []SectionKind{
	SectionCurrent,
	SectionHourly,
	SectionDaily,
	SectionMarine,
	SectionAirQuality,
	SectionFlood,
}

// AllSections lists every section the aggregator knows how to fetch.
var AllSections = append(append([]SectionKind{}, DefaultSections...), SectionHistorical)

// ParseSectionKind validates a section name.
func ParseSectionKind(s string) (SectionKind, error) {
	for _, k := range AllSections {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown section %q", ErrInvalidQuery, s)
}

// SectionState describes how a section ended up in a snapshot.
type SectionState string

const (
	StatePopulated SectionState = "populated"
	StateEmpty     SectionState = "empty"
	StateAbsent    SectionState = "absent"
)

// Snapshot is the unified, point-in-time aggregate for one location. Each
// section is nil when absent; Absent records the reason for requested
// sections that failed.
type Snapshot struct {
	ID          uuid.UUID `json:"id"`
	Sequence    uint64    `json:"sequence,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"` // always UTC
	Location    Location  `json:"location"`

	Current    *CurrentConditions `json:"current"`
	Hourly     *Bundle            `json:"hourly"`
	Daily      *Bundle            `json:"daily"`
	Marine     *Bundle            `json:"marine"`
	AirQuality *Bundle            `json:"airQuality"`
	Flood      *Bundle            `json:"flood"`
	Historical *Bundle            `json:"historical,omitempty"`

	Absent map[SectionKind]string `json:"absent,omitempty"`
}

// Series returns the bundle backing a series section, or nil.
func (s *Snapshot) Series(kind SectionKind) *Bundle {
	switch kind {
	case SectionHourly:
		return s.Hourly
	case SectionDaily:
		return s.Daily
	case SectionMarine:
		return s.Marine
	case SectionAirQuality:
		return s.AirQuality
	case SectionFlood:
		return s.Flood
	case SectionHistorical:
		return s.Historical
	}
	return nil
}

// State reports whether a section is populated, empty or absent.
func (s *Snapshot) State(kind SectionKind) SectionState {
	if kind == SectionCurrent {
		if s.Current == nil {
			return StateAbsent
		}
		return StatePopulated
	}
	b := s.Series(kind)
	switch {
	case b == nil:
		return StateAbsent
	case b.Len() == 0:
		return StateEmpty
	default:
		return StatePopulated
	}
}
