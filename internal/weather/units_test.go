package weather

import (
	"errors"
	"testing"
)

func TestConvertValue(t *testing.T) {
	cases := []struct {
		celsius float64
		unit    TemperatureUnit
		want    float64
	}{
		{0, Celsius, 0},
		{0, Fahrenheit, 32},
		{0, Kelvin, 273},
		{100, Fahrenheit, 212},
		{-40, Fahrenheit, -40},
		{21.5, Celsius, 22},
		{-0.5, Celsius, 0},
		{-1.5, Celsius, -1},
		{25, Kelvin, 298},
		{37, Fahrenheit, 99},
	}
	for _, tc := range cases {
		if got := ConvertValue(tc.celsius, tc.unit); got != tc.want {
			t.Fatalf("ConvertValue(%v, %s): expected %v, got %v", tc.celsius, tc.unit, tc.want, got)
		}
	}
}

func TestConvertPreservesNull(t *testing.T) {
	if Convert(nil, Fahrenheit) != nil {
		t.Fatalf("expected nil to stay nil")
	}
	v := 10.0
	if got := Convert(&v, Fahrenheit); got == nil || *got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if v != 10 {
		t.Fatalf("input was mutated")
	}
}

func TestParseTemperatureUnit(t *testing.T) {
	for in, want := range map[string]TemperatureUnit{"C": Celsius, "f": Fahrenheit, " kelvin ": Kelvin} {
		got, err := ParseTemperatureUnit(in)
		if err != nil || got != want {
			t.Fatalf("ParseTemperatureUnit(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseTemperatureUnit("R"); !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestConditionMapping(t *testing.T) {
	if ConditionFromWMO(0) != ConditionClear || ConditionFromWMO(95) != ConditionStorm {
		t.Fatalf("unexpected WMO mapping")
	}
	if ConditionFromOpenWeather("Drizzle") != ConditionRain {
		t.Fatalf("unexpected OpenWeatherMap mapping")
	}
	if ConditionFromText("Patchy light snow") != ConditionSnow {
		t.Fatalf("unexpected text mapping")
	}
}
