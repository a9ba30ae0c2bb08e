package weather

import "github.com/i474232898/weather-dashboard/internal/common"

// ConditionFromWMO maps WMO weather interpretation codes as reported by
// Open-Meteo (simplified).
func ConditionFromWMO(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}

// ConditionFromOpenWeather maps OpenWeatherMap's weather[0].main group.
func ConditionFromOpenWeather(main string) Condition {
	switch main {
	case "Clear":
		return ConditionClear
	case "Clouds":
		return ConditionCloudy
	case "Rain", "Drizzle":
		return ConditionRain
	case "Snow":
		return ConditionSnow
	case "Thunderstorm":
		return ConditionStorm
	case "Mist", "Smoke", "Haze", "Dust", "Fog", "Sand", "Ash", "Squall", "Tornado":
		return ConditionMist
	default:
		return ConditionUnknown
	}
}

// ConditionFromText classifies a free-text description such as Weatherstack's
// "Light Rain Shower".
func ConditionFromText(text string) Condition {
	switch {
	case text == "":
		return ConditionUnknown
	case common.ContainsAnyFold(text, "thunder", "storm"):
		return ConditionStorm
	case common.ContainsAnyFold(text, "snow", "sleet", "blizzard", "ice"):
		return ConditionSnow
	case common.ContainsAnyFold(text, "rain", "shower", "drizzle"):
		return ConditionRain
	case common.ContainsAnyFold(text, "mist", "fog", "haze"):
		return ConditionMist
	case common.ContainsAnyFold(text, "cloud", "overcast"):
		return ConditionCloudy
	case common.ContainsAnyFold(text, "sunny", "clear"):
		return ConditionClear
	default:
		return ConditionUnknown
	}
}
