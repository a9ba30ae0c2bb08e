// Package view projects a weather.Snapshot into display-ready values. It does
// no rendering; the unit and clock come from an explicit DisplayContext.
package view

import (
	"fmt"
	"math"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DisplayContext carries everything presentation depends on besides the snapshot.
type DisplayContext struct {
	Unit weather.TemperatureUnit
	Now  time.Time
}

type Header struct {
	Name        string    `json:"name"`
	Country     string    `json:"country"`
	State       string    `json:"state,omitempty"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Coordinates string    `json:"coordinates"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type CurrentCard struct {
	Temperature      float64           `json:"temperature"`
	FeelsLike        *float64          `json:"feelsLike,omitempty"`
	Condition        weather.Condition `json:"condition"`
	Description      string            `json:"description,omitempty"`
	Icon             string            `json:"icon,omitempty"`
	IsNight          bool              `json:"isNight"`
	HumidityPct      *float64          `json:"humidityPct,omitempty"`
	WindSpeedMS      float64           `json:"windSpeedMs"`
	WindDirectionDeg float64           `json:"windDirectionDeg"`
	PressureHPa      *float64          `json:"pressureHpa,omitempty"`
	VisibilityKM     *float64          `json:"visibilityKm,omitempty"`
	PrecipitationMM  *float64          `json:"precipitationMm,omitempty"`
	Provider         string            `json:"provider"`
}

type HourlyPoint struct {
	Time        time.Time `json:"time"`
	Label       string    `json:"label"`
	Temperature *float64  `json:"temperature"`
	HumidityPct *float64  `json:"humidityPct"`
	WindSpeed   *float64  `json:"windSpeed"`
}

type DailyRow struct {
	Date              time.Time         `json:"date"`
	Label             string            `json:"label"`
	Max               *float64          `json:"max"`
	Min               *float64          `json:"min"`
	Condition         weather.Condition `json:"condition"`
	PrecipitationMM   *float64          `json:"precipitationMm"`
	PrecipProbability *float64          `json:"precipProbability"`
}

type MarinePoint struct {
	Time          time.Time `json:"time"`
	Label         string    `json:"label"`
	WaveHeightM   *float64  `json:"waveHeightM"`
	WaveDirection *float64  `json:"waveDirection"`
	WavePeriodS   *float64  `json:"wavePeriodS"`
}

type AirQualityPoint struct {
	Time            time.Time `json:"time"`
	Label           string    `json:"label"`
	PM10            *float64  `json:"pm10"`
	PM25            *float64  `json:"pm25"`
	CarbonMonoxide  *float64  `json:"carbonMonoxide"`
	NitrogenDioxide *float64  `json:"nitrogenDioxide"`
	SulphurDioxide  *float64  `json:"sulphurDioxide"`
	Ozone           *float64  `json:"ozone"`
}

type FloodRow struct {
	Date      time.Time `json:"date"`
	Label     string    `json:"label"`
	Discharge *float64  `json:"discharge"`
	Mean      *float64  `json:"mean"`
	Max       *float64  `json:"max"`
}

type HistoricalRow struct {
	Date            time.Time `json:"date"`
	Max             *float64  `json:"max"`
	Min             *float64  `json:"min"`
	PrecipitationMM *float64  `json:"precipitationMm"`
}

// SectionView lets a renderer pick between data, an empty-state note and an
// error placeholder.
type SectionView struct {
	State  weather.SectionState `json:"state"`
	Reason string               `json:"reason,omitempty"`
}

// Dashboard is the display projection of one snapshot.
type Dashboard struct {
	Header     Header                              `json:"header"`
	Unit       weather.TemperatureUnit             `json:"unit"`
	UnitSymbol string                              `json:"unitSymbol"`
	Current    *CurrentCard                        `json:"current,omitempty"`
	Hourly     []HourlyPoint                       `json:"hourly"`
	Daily      []DailyRow                          `json:"daily"`
	Marine     []MarinePoint                       `json:"marine"`
	AirQuality []AirQualityPoint                   `json:"airQuality"`
	Flood      []FloodRow                          `json:"flood"`
	Historical []HistoricalRow                     `json:"historical,omitempty"`
	Sections   map[weather.SectionKind]SectionView `json:"sections"`
}

// Render builds the Dashboard for snap. Temperatures are converted with
// dc.Unit; everything else keeps its upstream unit.
func Render(snap weather.Snapshot, dc DisplayContext) Dashboard {
	unit := dc.Unit
	if unit == "" {
		unit = weather.Celsius
	}
	loc := snap.Location

	d := Dashboard{
		Header: Header{
			Name:        loc.Name,
			Country:     loc.Country,
			State:       loc.State,
			Latitude:    round(loc.Latitude, 2),
			Longitude:   round(loc.Longitude, 2),
			Coordinates: fmt.Sprintf("Lat: %.2f° • Lon: %.2f°", loc.Latitude, loc.Longitude),
			GeneratedAt: snap.GeneratedAt,
		},
		Unit:       unit,
		UnitSymbol: unit.Symbol(),
		Hourly:     []HourlyPoint{},
		Daily:      []DailyRow{},
		Marine:     []MarinePoint{},
		AirQuality: []AirQualityPoint{},
		Flood:      []FloodRow{},
		Sections:   sections(snap),
	}

	if c := snap.Current; c != nil {
		card := &CurrentCard{
			Temperature:      weather.ConvertValue(c.TemperatureC, unit),
			FeelsLike:        weather.Convert(c.FeelsLikeC, unit),
			Condition:        c.Condition,
			Description:      c.Description,
			Icon:             c.Icon,
			IsNight:          c.IsNight,
			HumidityPct:      c.HumidityPct,
			WindSpeedMS:      c.WindSpeedMS,
			WindDirectionDeg: c.WindDirectionDeg,
			PressureHPa:      c.PressureHPa,
			PrecipitationMM:  c.PrecipitationMM,
			Provider:         c.Provider,
		}
		if c.VisibilityM != nil {
			km := round(*c.VisibilityM/1000, 1)
			card.VisibilityKM = &km
		}
		d.Current = card
	}

	if b := snap.Hourly; b != nil {
		for i, ts := range b.Timestamps {
			d.Hourly = append(d.Hourly, HourlyPoint{
				Time:        ts,
				Label:       hourLabel(ts),
				Temperature: weather.Convert(b.At(weather.VarTemperature, i), unit),
				HumidityPct: b.At(weather.VarHumidity, i),
				WindSpeed:   b.At(weather.VarWindSpeed, i),
			})
		}
	}

	if b := snap.Daily; b != nil {
		for i, ts := range b.Timestamps {
			cond := weather.ConditionUnknown
			if code := b.At(weather.VarWeatherCode, i); code != nil {
				cond = weather.ConditionFromWMO(int(*code))
			}
			d.Daily = append(d.Daily, DailyRow{
				Date:              ts,
				Label:             dayLabel(ts, i, dc.Now),
				Max:               weather.Convert(b.At(weather.VarTemperatureMax, i), unit),
				Min:               weather.Convert(b.At(weather.VarTemperatureMin, i), unit),
				Condition:         cond,
				PrecipitationMM:   b.At(weather.VarPrecipitationSum, i),
				PrecipProbability: b.At(weather.VarPrecipProbMax, i),
			})
		}
	}

	if b := snap.Marine; b != nil {
		for i, ts := range b.Timestamps {
			d.Marine = append(d.Marine, MarinePoint{
				Time:          ts,
				Label:         hourLabel(ts),
				WaveHeightM:   b.At(weather.VarWaveHeight, i),
				WaveDirection: b.At(weather.VarWaveDirection, i),
				WavePeriodS:   b.At(weather.VarWavePeriod, i),
			})
		}
	}

	if b := snap.AirQuality; b != nil {
		for i, ts := range b.Timestamps {
			d.AirQuality = append(d.AirQuality, AirQualityPoint{
				Time:            ts,
				Label:           hourLabel(ts),
				PM10:            b.At(weather.VarPM10, i),
				PM25:            b.At(weather.VarPM25, i),
				CarbonMonoxide:  b.At(weather.VarCarbonMonoxide, i),
				NitrogenDioxide: b.At(weather.VarNitrogenDioxide, i),
				SulphurDioxide:  b.At(weather.VarSulphurDioxide, i),
				Ozone:           b.At(weather.VarOzone, i),
			})
		}
	}

	if b := snap.Flood; b != nil {
		for i, ts := range b.Timestamps {
			d.Flood = append(d.Flood, FloodRow{
				Date:      ts,
				Label:     dayLabel(ts, i, dc.Now),
				Discharge: roundPtr(b.At(weather.VarRiverDischarge, i), 2),
				Mean:      roundPtr(b.At(weather.VarRiverDischargeMean, i), 2),
				Max:       roundPtr(b.At(weather.VarRiverDischargeMax, i), 2),
			})
		}
	}

	if b := snap.Historical; b != nil {
		for i, ts := range b.Timestamps {
			d.Historical = append(d.Historical, HistoricalRow{
				Date:            ts,
				Max:             weather.Convert(b.At(weather.VarTemperatureMax, i), unit),
				Min:             weather.Convert(b.At(weather.VarTemperatureMin, i), unit),
				PrecipitationMM: b.At(weather.VarPrecipitationSum, i),
			})
		}
	}
	return d
}

func sections(snap weather.Snapshot) map[weather.SectionKind]SectionView {
	out := make(map[weather.SectionKind]SectionView, len(weather.AllSections))
	for _, k := range weather.AllSections {
		out[k] = SectionView{State: snap.State(k), Reason: snap.Absent[k]}
	}
	return out
}

// hourLabel formats ts in its own (location-local) zone, e.g. "3 PM".
func hourLabel(ts time.Time) string {
	return ts.Format("3 PM")
}

// dayLabel returns "Today" for the current local date and the short weekday
// otherwise. Without a clock the first row is today.
func dayLabel(ts time.Time, idx int, now time.Time) string {
	if now.IsZero() {
		if idx == 0 {
			return "Today"
		}
		return ts.Format("Mon")
	}
	ny, nm, nd := now.In(ts.Location()).Date()
	ty, tm, td := ts.Date()
	if ny == ty && nm == tm && nd == td {
		return "Today"
	}
	return ts.Format("Mon")
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := round(*v, places)
	return &r
}
