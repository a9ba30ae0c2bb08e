package weather

import (
	"fmt"
	"math"
	"strings"
)

// TemperatureUnit is a display preference. Stored values are always Celsius.
type TemperatureUnit string

const (
	Celsius    TemperatureUnit = "C"
	Fahrenheit TemperatureUnit = "F"
	Kelvin     TemperatureUnit = "K"
)

// ParseTemperatureUnit accepts "C", "F", "K" or the full unit names, in any case.
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "celsius":
		return Celsius, nil
	case "f", "fahrenheit":
		return Fahrenheit, nil
	case "k", "kelvin":
		return Kelvin, nil
	}
	return "", fmt.Errorf("%w: unknown temperature unit %q", ErrInvalidQuery, s)
}

// Symbol returns the display suffix for the unit.
func (u TemperatureUnit) Symbol() string {
	switch u {
	case Fahrenheit:
		return "°F"
	case Kelvin:
		return "K"
	default:
		return "°C"
	}
}

// ConvertValue converts a Celsius value and rounds it to the nearest integer,
// halves rounding up.
func ConvertValue(celsius float64, unit TemperatureUnit) float64 {
	v := celsius
	switch unit {
	case Fahrenheit:
		v = celsius*9/5 + 32
	case Kelvin:
		v = celsius + 273.15
	}
	return math.Floor(v + 0.5)
}

// Convert is ConvertValue for optional values: nil stays nil.
func Convert(celsius *float64, unit TemperatureUnit) *float64 {
	if celsius == nil {
		return nil
	}
	v := ConvertValue(*celsius, unit)
	return &v
}
