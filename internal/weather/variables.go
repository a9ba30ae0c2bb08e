package weather

// Upstream series names shared by providers and the presentation layer.
const (
	VarTemperature      Variable = "temperature_2m"
	VarHumidity         Variable = "relative_humidity_2m"
	VarWindSpeed        Variable = "wind_speed_10m"
	VarWeatherCode      Variable = "weathercode"
	VarTemperatureMax   Variable = "temperature_2m_max"
	VarTemperatureMin   Variable = "temperature_2m_min"
	VarPrecipitationSum Variable = "precipitation_sum"
	VarPrecipProbMax    Variable = "precipitation_probability_max"

	VarWaveHeight    Variable = "wave_height"
	VarWaveDirection Variable = "wave_direction"
	VarWavePeriod    Variable = "wave_period"

	VarPM10            Variable = "pm10"
	VarPM25            Variable = "pm2_5"
	VarCarbonMonoxide  Variable = "carbon_monoxide"
	VarNitrogenDioxide Variable = "nitrogen_dioxide"
	VarSulphurDioxide  Variable = "sulphur_dioxide"
	VarOzone           Variable = "ozone"

	VarRiverDischarge     Variable = "river_discharge"
	VarRiverDischargeMean Variable = "river_discharge_mean"
	VarRiverDischargeMax  Variable = "river_discharge_max"
)

var (
	HourlyVariables = []Variable{VarTemperature, VarHumidity, VarWindSpeed}
	DailyVariables  = []Variable{
		VarWeatherCode,
		VarTemperatureMax,
		VarTemperatureMin,
		VarPrecipitationSum,
		VarPrecipProbMax,
	}
	HistoricalVariables = []Variable{VarTemperatureMax, VarTemperatureMin, VarPrecipitationSum}
	MarineVariables     = []Variable{VarWaveHeight, VarWaveDirection, VarWavePeriod}
	AirQualityVariables = []Variable{
		VarPM10,
		VarPM25,
		VarCarbonMonoxide,
		VarNitrogenDioxide,
		VarSulphurDioxide,
		VarOzone,
	}
	FloodVariables = []Variable{VarRiverDischarge, VarRiverDischargeMean, VarRiverDischargeMax}
)
